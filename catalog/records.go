// Package catalog holds the menu-side view models and the reshaping that
// turns raw collection snapshots into what the home screen renders: food items
// grouped by category, category chips and the promotional offer carousel.
package catalog

import "github.com/dishdash-app/dishdash/store"

const (
	CollectionFoodItems  = "FoodItems"
	CollectionCategories = "Categories"
	CollectionOffers     = "OnGoingOffers"
)

// FoodItem is a single menu entry. The client treats these as read-only;
// they are maintained out of band.
type FoodItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageRef    string  `json:"imageRef"`
	Description string  `json:"description,omitempty"`
}

type Category struct {
	ID      string `json:"id"`
	IconRef string `json:"iconRef"`
}

type Offer struct {
	ID       string `json:"id"`
	ImageRef string `json:"imageRef"`
	Title    string `json:"title,omitempty"`
}

func FoodItemFromRecord(r store.Record) FoodItem {
	return FoodItem{
		ID:          r.ID,
		Name:        r.String("name"),
		Price:       r.Float("price"),
		Category:    r.String("category"),
		ImageRef:    r.String("imageRef"),
		Description: r.String("description"),
	}
}

func CategoryFromRecord(r store.Record) Category {
	return Category{ID: r.ID, IconRef: r.String("iconRef")}
}

func OfferFromRecord(r store.Record) Offer {
	return Offer{ID: r.ID, ImageRef: r.String("imageRef"), Title: r.String("title")}
}

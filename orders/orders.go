// Package orders owns the cart: placing an order from a draft, listing and
// watching a user's order set, cancelling, and the batch delete used by
// account removal. Every user's orders live in their own sub-collection.
package orders

import (
	"time"

	"github.com/dishdash-app/dishdash/store"
)

// CollectionPath addresses one user's order sub-collection.
func CollectionPath(userID string) string {
	return "Orders/" + userID + "/cart"
}

type OrderType string

const (
	Delivery OrderType = "Delivery"
	Pickup   OrderType = "Pickup"
)

// Status is the closed progress set. The API never writes anything but
// StatusArrivingSoon; the later transitions are administrative.
type Status string

const (
	StatusArrivingSoon Status = "Arriving Soon"
	StatusDelivered    Status = "Delivered"
	StatusCancelled    Status = "Cancelled"
)

// Contact is the customer block stamped onto an order, prefilled from the
// profile record by a one-time read when the draft opens.
type Contact struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type Order struct {
	ID         string    `json:"id"`
	ItemName   string    `json:"itemName"`
	ItemPrice  float64   `json:"itemPrice"`
	Quantity   int       `json:"quantity"`
	TotalPrice float64   `json:"totalPrice"`
	Customer   Contact   `json:"customer"`
	OrderType  OrderType `json:"orderType"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func FromRecord(r store.Record) Order {
	createdAt, _ := r.Fields["timestamp"].(time.Time)
	if createdAt.IsZero() {
		if s := r.String("timestamp"); s != "" {
			createdAt, _ = time.Parse(time.RFC3339Nano, s)
		}
	}
	return Order{
		ID:         r.ID,
		ItemName:   r.String("itemName"),
		ItemPrice:  r.Float("itemPrice"),
		Quantity:   r.Int("quantity"),
		TotalPrice: r.Float("totalPrice"),
		Customer: Contact{
			Name:    r.String("customerName"),
			Address: r.String("address"),
			Phone:   r.String("phone"),
		},
		OrderType: OrderType(r.String("orderType")),
		Status:    Status(r.String("orderProgress")),
		CreatedAt: createdAt,
	}
}

func (o Order) fields(userID string) map[string]any {
	return map[string]any{
		"itemName":      o.ItemName,
		"itemPrice":     o.ItemPrice,
		"quantity":      o.Quantity,
		"totalPrice":    o.TotalPrice,
		"customerName":  o.Customer.Name,
		"address":       o.Customer.Address,
		"phone":         o.Customer.Phone,
		"userId":        userID,
		"orderType":     string(o.OrderType),
		"orderProgress": string(o.Status),
		"timestamp":     o.CreatedAt.Format(time.RFC3339Nano),
	}
}

package catalog

import (
	"context"

	"github.com/dishdash-app/dishdash/store"
)

// Feed is the live view-sync layer for the home screen. Each Watch* call
// opens an independent collection subscription, reshapes every full-set
// snapshot into its view model and hands it to the callback. The returned
// handle must be called on teardown; after that no callback fires again.
type Feed struct {
	st store.Store
}

func NewFeed(st store.Store) *Feed {
	return &Feed{st: st}
}

// Menu is the one-shot equivalent of WatchMenu.
func (f *Feed) Menu(ctx context.Context) ([]CategoryGroup, error) {
	records, err := f.st.List(ctx, CollectionFoodItems)
	if err != nil {
		return nil, err
	}
	return GroupByCategory(mapRecords(records, FoodItemFromRecord)), nil
}

func (f *Feed) Categories(ctx context.Context) ([]Category, error) {
	records, err := f.st.List(ctx, CollectionCategories)
	if err != nil {
		return nil, err
	}
	return mapRecords(records, CategoryFromRecord), nil
}

func (f *Feed) Offers(ctx context.Context) ([]Offer, error) {
	records, err := f.st.List(ctx, CollectionOffers)
	if err != nil {
		return nil, err
	}
	return mapRecords(records, OfferFromRecord), nil
}

// WatchMenu delivers the grouped menu, once immediately and then on every
// FoodItems mutation. State is replaced wholesale per emission.
func (f *Feed) WatchMenu(ctx context.Context, fn func([]CategoryGroup)) (store.UnsubscribeFunc, error) {
	return f.st.Subscribe(ctx, CollectionFoodItems, func(snap store.Snapshot) {
		fn(GroupByCategory(mapRecords(snap.Records, FoodItemFromRecord)))
	})
}

func (f *Feed) WatchOffers(ctx context.Context, fn func([]Offer)) (store.UnsubscribeFunc, error) {
	return f.st.Subscribe(ctx, CollectionOffers, func(snap store.Snapshot) {
		fn(mapRecords(snap.Records, OfferFromRecord))
	})
}

func (f *Feed) WatchCategories(ctx context.Context, fn func([]Category)) (store.UnsubscribeFunc, error) {
	return f.st.Subscribe(ctx, CollectionCategories, func(snap store.Snapshot) {
		fn(mapRecords(snap.Records, CategoryFromRecord))
	})
}

func mapRecords[T any](records []store.Record, from func(store.Record) T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		out = append(out, from(r))
	}
	return out
}

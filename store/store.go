// Package store is the document-store boundary of dishdash. Records live in
// named collections, sub-collections are addressed with slash-separated paths
// ("Orders/{userID}/cart"), and every collection can be watched: subscribers
// receive the full current record set on every mutation, never deltas.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: record not found")

// DeleteField is a sentinel value for Update. A field mapped to DeleteField is
// removed from the record instead of being written.
var DeleteField = deleteField{}

type deleteField struct{}

// Record is a single document. Fields carries the raw decoded document body.
type Record struct {
	ID     string
	Fields map[string]any
}

// String returns the named field as a string, or "" when absent or untyped.
func (r Record) String(field string) string {
	s, _ := r.Fields[field].(string)
	return s
}

// Float returns the named field as a float64, widening integer types.
func (r Record) Float(field string) float64 {
	switch v := r.Fields[field].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Int returns the named field as an int, truncating floats.
func (r Record) Int(field string) int {
	return int(r.Float(field))
}

// Snapshot is the authoritative full contents of a collection at a point in
// time. Consumers must replace their local state with Records, not merge.
type Snapshot struct {
	Collection string   `json:"collection"`
	Records    []Record `json:"records"`
}

// UnsubscribeFunc tears a subscription down. It is idempotent and must be
// called when the subscriber goes away, otherwise the callback keeps firing.
type UnsubscribeFunc func()

type Store interface {
	Get(ctx context.Context, collection, id string) (Record, error)
	Set(ctx context.Context, collection, id string, fields map[string]any) error
	Update(ctx context.Context, collection, id string, partial map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]Record, error)

	// Subscribe delivers the current snapshot immediately, then one snapshot
	// per mutation of the collection. Callbacks run sequentially per
	// subscriber. Errors after registration are terminal: the stream simply
	// stops, reconnection is the caller's decision on remount.
	Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (UnsubscribeFunc, error)
}

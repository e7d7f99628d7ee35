package orders

import (
	"context"
	"errors"
	"sync"
)

const (
	// MinQuantity and MaxQuantity bound an accepted draft quantity, both
	// inclusive. 0 and 50 are rejected.
	MinQuantity = 1
	MaxQuantity = 49
)

var (
	ErrQuantityTooLow     = errors.New("quantity must be at least 1")
	ErrQuantityTooHigh    = errors.New("quantity must be below 50")
	ErrMissingItem        = errors.New("an item is required to place an order")
	ErrInvalidOrderType   = errors.New("order type must be Delivery or Pickup")
	ErrSubmissionInFlight = errors.New("order submission already in progress")
)

// Draft is one unsaved order being edited. It moves Editing -> Submitting and
// back; a submit while another is in flight is refused so at most one order
// record can result from a draft at a time.
type Draft struct {
	UserID    string
	ItemName  string
	ItemPrice float64
	Quantity  int
	OrderType OrderType
	Contact   Contact

	mu         sync.Mutex
	submitting bool
}

// NewDraft opens a draft for userID with contact details the caller read from
// the profile. Quantity starts at 1 and order type at Delivery, matching the
// screen defaults.
func NewDraft(userID, itemName string, itemPrice float64, contact Contact) *Draft {
	return &Draft{
		UserID:    userID,
		ItemName:  itemName,
		ItemPrice: itemPrice,
		Quantity:  MinQuantity,
		OrderType: Delivery,
		Contact:   contact,
	}
}

// TotalPrice is itemPrice x quantity, fixed at creation time and never
// recomputed afterwards.
func (d *Draft) TotalPrice() float64 {
	return d.ItemPrice * float64(d.Quantity)
}

// Validate is the guard before Submitting.
func (d *Draft) Validate() error {
	if d.ItemName == "" {
		return ErrMissingItem
	}
	if d.Quantity < MinQuantity {
		return ErrQuantityTooLow
	}
	if d.Quantity > MaxQuantity {
		return ErrQuantityTooHigh
	}
	if d.OrderType != Delivery && d.OrderType != Pickup {
		return ErrInvalidOrderType
	}
	return nil
}

// Submit runs the Editing -> Submitting transition and writes exactly one
// order record. A validation failure or write failure returns the draft to
// Editing; a concurrent submit gets ErrSubmissionInFlight and writes nothing.
func (d *Draft) Submit(ctx context.Context, svc *Service) (Order, error) {
	d.mu.Lock()
	if d.submitting {
		d.mu.Unlock()
		return Order{}, ErrSubmissionInFlight
	}
	if err := d.Validate(); err != nil {
		d.mu.Unlock()
		return Order{}, err
	}
	d.submitting = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.submitting = false
		d.mu.Unlock()
	}()

	return svc.place(ctx, d)
}

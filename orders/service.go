package orders

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dishdash-app/dishdash/store"
)

type Service struct {
	st  store.Store
	now func() time.Time
}

func NewService(st store.Store) *Service {
	return &Service{st: st, now: time.Now}
}

func (s *Service) place(ctx context.Context, d *Draft) (Order, error) {
	order := Order{
		ID:         uuid.NewString(),
		ItemName:   d.ItemName,
		ItemPrice:  d.ItemPrice,
		Quantity:   d.Quantity,
		TotalPrice: d.TotalPrice(),
		Customer:   d.Contact,
		OrderType:  d.OrderType,
		Status:     StatusArrivingSoon,
		CreatedAt:  s.now(),
	}

	if err := s.st.Set(ctx, CollectionPath(d.UserID), order.ID, order.fields(d.UserID)); err != nil {
		return Order{}, err
	}

	slog.InfoContext(ctx, "order placed",
		slog.String("user_id", d.UserID),
		slog.String("order_id", order.ID),
		slog.Int("quantity", order.Quantity))
	return order, nil
}

// List returns the user's current order set.
func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	records, err := s.st.List(ctx, CollectionPath(userID))
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(records))
	for _, r := range records {
		out = append(out, FromRecord(r))
	}
	return out, nil
}

// Watch delivers the full order list on subscribe and after every mutation.
func (s *Service) Watch(ctx context.Context, userID string, fn func([]Order)) (store.UnsubscribeFunc, error) {
	return s.st.Subscribe(ctx, CollectionPath(userID), func(snap store.Snapshot) {
		out := make([]Order, 0, len(snap.Records))
		for _, r := range snap.Records {
			out = append(out, FromRecord(r))
		}
		fn(out)
	})
}

// Cancel removes an order from the user's cart.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) error {
	if err := s.st.Delete(ctx, CollectionPath(userID), orderID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "order cancelled",
		slog.String("user_id", userID), slog.String("order_id", orderID))
	return nil
}

// DeleteAll removes every order the user owns, deleting concurrently and
// awaiting the whole batch. Used by account deletion.
func (s *Service) DeleteAll(ctx context.Context, userID string) error {
	records, err := s.st.List(ctx, CollectionPath(userID))
	if err != nil {
		return err
	}

	errs := make([]error, len(records))
	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = s.st.Delete(ctx, CollectionPath(userID), id)
		}(i, rec.ID)
	}
	wg.Wait()

	return errors.Join(errs...)
}

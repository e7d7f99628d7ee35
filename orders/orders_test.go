package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dishdash-app/dishdash/store"
)

var testContact = Contact{Name: "Asha", Address: "12 Hill Road", Phone: "9876543210"}

func newTestService() (*Service, *store.Memory) {
	st := store.NewMemory(store.NewChannelBus())
	return NewService(st), st
}

func TestDraftQuantityGuard(t *testing.T) {
	tests := []struct {
		quantity int
		wantErr  error
	}{
		{0, ErrQuantityTooLow},
		{-3, ErrQuantityTooLow},
		{1, nil},
		{49, nil},
		{50, ErrQuantityTooHigh},
		{120, ErrQuantityTooHigh},
	}

	for _, tt := range tests {
		d := NewDraft("u1", "Masala Dosa", 60, testContact)
		d.Quantity = tt.quantity
		err := d.Validate()
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "quantity %d", tt.quantity)
		} else {
			assert.NoError(t, err, "quantity %d", tt.quantity)
		}
	}
}

func TestDraftSubmitWritesOneOrder(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	d := NewDraft("u1", "Masala Dosa", 60, testContact)
	d.Quantity = 3
	d.OrderType = Pickup

	order, err := d.Submit(ctx, svc)
	require.NoError(t, err)
	assert.Equal(t, 180.0, order.TotalPrice, "total = price x quantity")
	assert.Equal(t, StatusArrivingSoon, order.Status)
	assert.Equal(t, testContact, order.Customer)

	records, err := st.List(ctx, CollectionPath("u1"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := FromRecord(records[0])
	assert.Equal(t, order.ItemName, got.ItemName)
	assert.Equal(t, order.TotalPrice, got.TotalPrice)
	assert.Equal(t, Pickup, got.OrderType)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestDraftSubmitRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	d := NewDraft("u1", "Masala Dosa", 60, testContact)
	d.Quantity = 50
	_, err := d.Submit(ctx, svc)
	assert.ErrorIs(t, err, ErrQuantityTooHigh)

	d.Quantity = 0
	_, err = d.Submit(ctx, svc)
	assert.ErrorIs(t, err, ErrQuantityTooLow)

	d = NewDraft("u1", "", 60, testContact)
	_, err = d.Submit(ctx, svc)
	assert.ErrorIs(t, err, ErrMissingItem)

	records, err := st.List(ctx, CollectionPath("u1"))
	require.NoError(t, err)
	assert.Empty(t, records, "rejected drafts persist nothing")
}

// slowStore blocks the first Set until released, so a second submit can race
// the one in flight.
type slowStore struct {
	store.Store
	block chan struct{}
	once  sync.Once
}

func (s *slowStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	s.once.Do(func() { <-s.block })
	return s.Store.Set(ctx, collection, id, fields)
}

func TestDraftSubmitReentrancyGuard(t *testing.T) {
	ctx := context.Background()
	slow := &slowStore{Store: store.NewMemory(nil), block: make(chan struct{})}
	svc := NewService(slow)

	d := NewDraft("u1", "Masala Dosa", 60, testContact)

	firstDone := make(chan error, 1)
	go func() {
		_, err := d.Submit(ctx, svc)
		firstDone <- err
	}()

	// wait for the first submit to hold the in-flight flag
	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.submitting
	}, time.Second, time.Millisecond)

	_, err := d.Submit(ctx, svc)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(slow.block)
	require.NoError(t, <-firstDone)

	records, err := slow.List(ctx, CollectionPath("u1"))
	require.NoError(t, err)
	assert.Len(t, records, 1, "exactly one order record despite the duplicate submit")
}

func TestCancelAndWatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	d := NewDraft("u1", "Masala Dosa", 60, testContact)
	placed, err := d.Submit(ctx, svc)
	require.NoError(t, err)

	var emissions [][]Order
	unsub, err := svc.Watch(ctx, "u1", func(list []Order) { emissions = append(emissions, list) })
	require.NoError(t, err)
	defer unsub()

	require.Len(t, emissions, 1)
	require.Len(t, emissions[0], 1)

	require.NoError(t, svc.Cancel(ctx, "u1", placed.ID))
	require.Len(t, emissions, 2)
	assert.Empty(t, emissions[1], "cancellation empties the live cart view")

	// another user's feed stays untouched
	list, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	for range 5 {
		d := NewDraft("u1", "Masala Dosa", 60, testContact)
		_, err := d.Submit(ctx, svc)
		require.NoError(t, err)
	}
	otherDraft := NewDraft("u2", "Ramen", 120, testContact)
	_, err := otherDraft.Submit(ctx, svc)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAll(ctx, "u1"))

	records, err := st.List(ctx, CollectionPath("u1"))
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = st.List(ctx, CollectionPath("u2"))
	require.NoError(t, err)
	assert.Len(t, records, 1, "other users' orders survive")
}

// failingStore fails deletes for a specific order id.
type failingStore struct {
	store.Store
	failID string
}

func (f *failingStore) Delete(ctx context.Context, collection, id string) error {
	if id == f.failID {
		return errors.New("write failure")
	}
	return f.Store.Delete(ctx, collection, id)
}

func TestDeleteAllSurfacesBatchErrors(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)
	svc := NewService(mem)

	d := NewDraft("u1", "Masala Dosa", 60, testContact)
	placed, err := d.Submit(ctx, svc)
	require.NoError(t, err)
	d2 := NewDraft("u1", "Ramen", 120, testContact)
	_, err = d2.Submit(ctx, svc)
	require.NoError(t, err)

	failing := &failingStore{Store: mem, failID: placed.ID}
	err = NewService(failing).DeleteAll(ctx, "u1")
	assert.Error(t, err, "one failed delete fails the batch")
}

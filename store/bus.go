package store

import (
	"context"
	"sync"
)

// SnapshotBus fans collection snapshots out to live subscribers. Store
// implementations publish after every mutation; feeds subscribe per
// collection and get a cancellation handle back.
type SnapshotBus interface {
	Publish(ctx context.Context, snap Snapshot) error
	Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (UnsubscribeFunc, error)
}

type busSubscriber struct {
	fn func(Snapshot)
}

// ChannelBus is the in-process SnapshotBus. It is the default wiring for a
// single-instance deployment and for tests.
type ChannelBus struct {
	mu   sync.Mutex
	subs map[string]map[*busSubscriber]struct{}
}

var _ SnapshotBus = (*ChannelBus)(nil)

func NewChannelBus() *ChannelBus {
	return &ChannelBus{
		subs: make(map[string]map[*busSubscriber]struct{}),
	}
}

// Publish implements SnapshotBus.
func (b *ChannelBus) Publish(ctx context.Context, snap Snapshot) error {
	b.mu.Lock()
	targets := make([]*busSubscriber, 0, len(b.subs[snap.Collection]))
	for s := range b.subs[snap.Collection] {
		targets = append(targets, s)
	}
	b.mu.Unlock()

	for _, s := range targets {
		s.fn(snap)
	}
	return nil
}

// Subscribe implements SnapshotBus.
func (b *ChannelBus) Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (UnsubscribeFunc, error) {
	sub := &busSubscriber{fn: fn}

	b.mu.Lock()
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[*busSubscriber]struct{})
	}
	b.subs[collection][sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[collection], sub)
			b.mu.Unlock()
		})
	}, nil
}

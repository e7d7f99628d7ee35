package store

import (
	"context"
	"log/slog"
	"sync"
)

// fanout keeps snapshot delivery totally ordered. Mutations enqueue while
// still holding the lock that serialized them, so queue order is mutation
// order; drain then publishes one snapshot at a time. A subscriber's callback
// is never invoked concurrently and the last emission it observes is the
// current state.
type fanout struct {
	bus SnapshotBus

	mu    sync.Mutex
	queue []Snapshot

	delivering sync.Mutex
}

func newFanout(bus SnapshotBus) *fanout {
	return &fanout{bus: bus}
}

func (f *fanout) enqueue(snap Snapshot) {
	if f.bus == nil {
		return
	}
	f.mu.Lock()
	f.queue = append(f.queue, snap)
	f.mu.Unlock()
}

// drain publishes queued snapshots in order. A single drainer runs at a time;
// when the delivery lock is already held, the active drainer picks this
// caller's snapshot up on its next pass.
func (f *fanout) drain(ctx context.Context) {
	if f.bus == nil {
		return
	}
	for {
		if !f.delivering.TryLock() {
			return
		}
		for {
			f.mu.Lock()
			if len(f.queue) == 0 {
				f.mu.Unlock()
				break
			}
			snap := f.queue[0]
			f.queue = f.queue[1:]
			f.mu.Unlock()

			// Fan-out failures never fail the write itself.
			if err := f.bus.Publish(ctx, snap); err != nil {
				slog.ErrorContext(ctx, "failed to publish snapshot",
					slog.String("collection", snap.Collection), slog.Any("err", err))
			}
		}
		f.delivering.Unlock()

		// Re-check: a snapshot enqueued between the empty check and the
		// unlock above must not wait for the next mutation.
		f.mu.Lock()
		pending := len(f.queue) > 0
		f.mu.Unlock()
		if !pending {
			return
		}
	}
}

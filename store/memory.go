package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is a Store kept entirely in process memory. It backs tests and local
// development; the snapshot contract is identical to the Mongo adapter's.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	bus         SnapshotBus
	fan         *fanout
}

var _ Store = (*Memory)(nil)

func NewMemory(bus SnapshotBus) *Memory {
	return &Memory{
		collections: make(map[string]map[string]map[string]any),
		bus:         bus,
		fan:         newFanout(bus),
	}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return Record{ID: id, Fields: copyFields(doc)}, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]map[string]any)
	}
	m.collections[collection][id] = copyFields(fields)
	m.enqueueLocked(collection)
	m.mu.Unlock()

	m.fan.drain(ctx)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	m.mu.Lock()
	doc, ok := m.collections[collection][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range partial {
		if _, del := v.(deleteField); del {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	m.enqueueLocked(collection)
	m.mu.Unlock()

	m.fan.drain(ctx)
	return nil
}

// Delete removes a record. Deleting an absent record is not an error, matching
// the remote store it stands in for.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	delete(m.collections[collection], id)
	m.enqueueLocked(collection)
	m.mu.Unlock()

	m.fan.drain(ctx)
	return nil
}

// List returns the full collection ordered by record ID.
func (m *Memory) List(ctx context.Context, collection string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(collection), nil
}

func (m *Memory) Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (UnsubscribeFunc, error) {
	return subscribeThrough(ctx, m, m.bus, collection, fn)
}

func (m *Memory) listLocked(collection string) []Record {
	ids := make([]string, 0, len(m.collections[collection]))
	for id := range m.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, Record{ID: id, Fields: copyFields(m.collections[collection][id])})
	}
	return records
}

// enqueueLocked captures the snapshot while the write lock is still held, so
// emission order matches mutation order.
func (m *Memory) enqueueLocked(collection string) {
	m.fan.enqueue(Snapshot{Collection: collection, Records: m.listLocked(collection)})
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

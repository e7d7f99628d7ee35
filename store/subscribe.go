package store

import "context"

// subscribeThrough implements the Store.Subscribe contract on top of a
// SnapshotBus: register first so nothing is missed, then deliver the current
// state as the initial authoritative emission.
func subscribeThrough(ctx context.Context, st Store, bus SnapshotBus, collection string, fn func(Snapshot)) (UnsubscribeFunc, error) {
	if bus == nil {
		bus = NewChannelBus()
	}
	unsub, err := bus.Subscribe(ctx, collection, fn)
	if err != nil {
		return nil, err
	}

	records, err := st.List(ctx, collection)
	if err != nil {
		unsub()
		return nil, err
	}
	fn(Snapshot{Collection: collection, Records: records})

	return unsub, nil
}

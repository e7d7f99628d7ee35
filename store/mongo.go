package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the production Store, one mongo collection per collection path.
// Slash-separated sub-collection paths ("Orders/{uid}/cart") map onto dotted
// collection names, which keeps per-user order sets isolated the way the
// remote document store laid them out.
type Mongo struct {
	db  *mongo.Database
	bus SnapshotBus
	fan *fanout

	// captureMu serializes the read-back in notify so enqueued snapshots are
	// monotonic: each capture starts after the previous one finished.
	captureMu sync.Mutex
}

var _ Store = (*Mongo)(nil)

func NewMongo(db *mongo.Database, bus SnapshotBus) *Mongo {
	return &Mongo{db: db, bus: bus, fan: newFanout(bus)}
}

func (m *Mongo) coll(collection string) *mongo.Collection {
	return m.db.Collection(strings.ReplaceAll(collection, "/", "."))
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (Record, error) {
	ctx, span := tracer.Start(ctx, "Mongo.Get")
	defer span.End()

	var doc bson.M
	err := m.coll(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return Record{}, err
	}
	return recordFromDoc(doc), nil
}

func (m *Mongo) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Mongo.Set")
	defer span.End()

	doc := bson.M{"_id": id}
	for k, v := range fields {
		doc[k] = v
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.coll(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		span.RecordError(err)
		return err
	}

	m.notify(ctx, collection)
	return nil
}

func (m *Mongo) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	ctx, span := tracer.Start(ctx, "Mongo.Update")
	defer span.End()

	set := bson.M{}
	unset := bson.M{}
	for k, v := range partial {
		if _, del := v.(deleteField); del {
			unset[k] = ""
			continue
		}
		set[k] = v
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(update) == 0 {
		return nil
	}

	res, err := m.coll(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	m.notify(ctx, collection)
	return nil
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	ctx, span := tracer.Start(ctx, "Mongo.Delete")
	defer span.End()

	if _, err := m.coll(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		span.RecordError(err)
		return err
	}

	m.notify(ctx, collection)
	return nil
}

// List returns the full collection ordered by record ID.
func (m *Mongo) List(ctx context.Context, collection string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "Mongo.List")
	defer span.End()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := m.coll(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer cur.Close(ctx)

	var records []Record
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			span.RecordError(err)
			return nil, err
		}
		records = append(records, recordFromDoc(doc))
	}
	if err := cur.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return records, nil
}

func (m *Mongo) Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (UnsubscribeFunc, error) {
	return subscribeThrough(ctx, m, m.bus, collection, fn)
}

func (m *Mongo) notify(ctx context.Context, collection string) {
	if m.bus == nil {
		return
	}

	m.captureMu.Lock()
	records, err := m.List(ctx, collection)
	if err != nil {
		m.captureMu.Unlock()
		slog.ErrorContext(ctx, "failed to read collection for snapshot fan-out",
			slog.String("collection", collection), slog.Any("err", err))
		return
	}
	m.fan.enqueue(Snapshot{Collection: collection, Records: records})
	m.captureMu.Unlock()

	m.fan.drain(ctx)
}

func recordFromDoc(doc bson.M) Record {
	rec := Record{Fields: make(map[string]any, len(doc))}
	for k, v := range doc {
		if k == "_id" {
			rec.ID, _ = v.(string)
			continue
		}
		rec.Fields[k] = v
	}
	return rec
}

package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

var tracer = otel.Tracer("dishdash.store")

// NATSBus carries snapshots over a NATS subject per collection so that live
// feeds keep working when the API runs with more than one replica.
type NATSBus struct {
	nc            *nats.Conn
	subjectPrefix string
}

var _ SnapshotBus = (*NATSBus)(nil)

func NewNATSBus(nc *nats.Conn, subjectPrefix string) *NATSBus {
	return &NATSBus{nc: nc, subjectPrefix: subjectPrefix}
}

// Sub-collection paths carry slashes, which are not subject token
// separators in NATS, so they become dots.
func (n *NATSBus) subject(collection string) string {
	return n.subjectPrefix + "." + strings.ReplaceAll(collection, "/", ".")
}

// Publish implements SnapshotBus.
func (n *NATSBus) Publish(ctx context.Context, snap Snapshot) error {
	ctx, span := tracer.Start(ctx, "NATSBus.Publish")
	defer span.End()

	propagator := otel.GetTextMapPropagator()
	msg := &nats.Msg{
		Subject: n.subject(snap.Collection),
		Header:  nats.Header{},
	}
	propagator.Inject(ctx, propagation.HeaderCarrier(msg.Header))

	data, err := json.Marshal(snap)
	if err != nil {
		span.SetStatus(codes.Error, "failed to marshal snapshot")
		span.RecordError(err)
		return err
	}
	msg.Data = data

	return n.nc.PublishMsg(msg)
}

// Subscribe implements SnapshotBus.
func (n *NATSBus) Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (UnsubscribeFunc, error) {
	ctx, span := tracer.Start(ctx, "NATSBus.Subscribe")
	defer span.End()

	propagator := otel.GetTextMapPropagator()

	sub, err := n.nc.Subscribe(n.subject(collection), func(msg *nats.Msg) {
		msgCtx := propagator.Extract(ctx, propagation.HeaderCarrier(msg.Header))

		var snap Snapshot
		if err := json.Unmarshal(msg.Data, &snap); err != nil {
			slog.ErrorContext(msgCtx, "failed to unmarshal snapshot from NATS message",
				slog.String("collection", collection), slog.Any("err", err))
			return
		}
		fn(snap)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to subscribe to NATS subject",
			slog.String("subject", n.subject(collection)), slog.Any("err", err))
		span.SetStatus(codes.Error, "failed to subscribe to NATS subject")
		span.RecordError(err)
		return nil, err
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn("failed to unsubscribe from NATS subject",
				slog.String("subject", n.subject(collection)), slog.Any("err", err))
		}
	}, nil
}

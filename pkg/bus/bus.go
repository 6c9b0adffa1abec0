// Package bus provides typed, durable NATS JetStream publish/subscribe
// helpers with OpenTelemetry trace propagation, generalizing the teacher's
// core-NATS pkg/natsutil into the at-least-once, explicitly-acked delivery
// contract the worker runtime depends on (spec.md §7).
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
)

// headerCarrier adapts jetstream message headers for OTel TextMapCarrier.
type headerCarrier struct{ h nats.Header }

func (c headerCarrier) Get(key string) string { return c.h.Get(key) }
func (c headerCarrier) Set(key, val string)    { c.h.Set(key, val) }
func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.h))
	for k := range c.h {
		keys = append(keys, k)
	}
	return keys
}

// Bus wraps a JetStream context bound to a single stream.
type Bus struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
}

// Connect dials NATS and ensures the named stream exists, creating it with
// the given subjects if absent. Workers share one stream (e.g. "PIPELINE")
// spanning all role subjects so a single durable consumer per role can
// subscribe with a filter subject.
func Connect(ctx context.Context, url, streamName string, subjects []string) (*Bus, error) {
	nc, err := nats.Connect(url, nats.MaxReconnects(-1), nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("bus: connect: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("bus: jetstream: %w", err)
	}
	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  subjects,
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("bus: create stream: %w", err)
	}
	return &Bus{nc: nc, js: js, stream: stream}, nil
}

// Close drains and closes the underlying connection.
func (b *Bus) Close() {
	_ = b.nc.Drain()
}

// Publish serializes v as JSON and publishes to subject, injecting the
// trace context from ctx into message headers.
func Publish[T any](ctx context.Context, b *Bus, subject string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("bus: marshal: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg.Header})
	_, err = b.js.PublishMsg(ctx, msg)
	if err != nil {
		return fmt.Errorf("bus: publish %s: %w", subject, err)
	}
	return nil
}

// Delivery wraps a decoded JetStream message with its ack/nak controls and
// redelivery count, so handlers can decide to quarantine after N failures
// (spec.md's poison-message rule) without reaching into the nats.go API.
type Delivery[T any] struct {
	Value      T
	NumDelivered uint64
	msg        jetstream.Msg
}

// Ack acknowledges successful processing.
func (d Delivery[T]) Ack() error { return d.msg.Ack() }

// Nak signals the message should be redelivered after delay.
func (d Delivery[T]) Nak(delay time.Duration) error {
	return d.msg.NakWithDelay(delay)
}

// Term acknowledges the message as permanently failed (poison), preventing
// further redelivery.
func (d Delivery[T]) Term() error { return d.msg.Term() }

// Context recovers the trace context a publisher injected into this
// delivery's headers, if any, for continuing a trace across worker
// boundaries.
func (d Delivery[T]) Context(ctx context.Context) context.Context {
	return ExtractContext(ctx, d.msg.Headers())
}

// Consumer is a durable, pull-based JetStream consumer bound to one
// filter subject, matching one worker role (spec.md §7's "durable consumer
// group named after the worker role").
type Consumer[T any] struct {
	cons jetstream.Consumer
}

// NewConsumer creates (or binds to) a durable consumer named durableName
// filtered to filterSubject, with explicit ack and the given max-deliver
// count before the bus itself stops redelivering.
func NewConsumer[T any](ctx context.Context, b *Bus, durableName, filterSubject string, maxDeliver int) (*Consumer[T], error) {
	cons, err := b.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    maxDeliver,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("bus: consumer %s: %w", durableName, err)
	}
	return &Consumer[T]{cons: cons}, nil
}

// Fetch pulls up to batch messages, blocking up to the context deadline.
// Returns decoded deliveries; malformed payloads are terminated (not
// redelivered) and omitted from the result.
func (c *Consumer[T]) Fetch(ctx context.Context, batch int) ([]Delivery[T], error) {
	msgs, err := c.cons.Fetch(batch, jetstream.FetchMaxWait(5*time.Second))
	if err != nil {
		if err == nats.ErrTimeout || err == context.DeadlineExceeded {
			return nil, nil
		}
		return nil, fmt.Errorf("bus: fetch: %w", err)
	}
	var out []Delivery[T]
	for msg := range msgs.Messages() {
		var v T
		if err := json.Unmarshal(msg.Data(), &v); err != nil {
			_ = msg.Term()
			continue
		}
		meta, _ := msg.Metadata()
		var delivered uint64
		if meta != nil {
			delivered = meta.NumDelivered
		}
		out = append(out, Delivery[T]{Value: v, NumDelivered: delivered, msg: msg})
	}
	if err := msgs.Error(); err != nil {
		return out, fmt.Errorf("bus: fetch batch: %w", err)
	}
	return out, nil
}

// ExtractContext recovers the trace context a publisher injected into a
// delivery's headers, if any. Handlers call this to continue the trace
// started at ingest time across worker boundaries.
func ExtractContext(ctx context.Context, headers nats.Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, headerCarrier{headers})
}

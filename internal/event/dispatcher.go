package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
)

// Dispatcher encodes command envelopes and publishes them. It holds no state of
// its own and gives no visibility into what consumers have applied.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger
	metrics   *Metrics
}

type DispatcherOption func(*Dispatcher)

func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithDispatcherMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func NewDispatcher(publisher Publisher, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		publisher: publisher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch publishes env on topic and returns once the transport accepted it.
func (d *Dispatcher) Dispatch(ctx context.Context, topic string, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	msg := &Message{
		Topic: topic,
		Key:   strconv.Itoa(env.Key),
		Value: value,
		Headers: map[string]string{
			HeaderEventID:   uuid.NewString(),
			HeaderEventType: string(env.Type),
		},
	}
	if err := d.publisher.Publish(ctx, msg); err != nil {
		d.metrics.IncPublishFailure(topic)
		return fmt.Errorf("publish %s to %s: %w", env.Type, topic, err)
	}
	d.metrics.IncDispatched(topic, string(env.Type))
	d.logger.DebugContext(ctx, "dispatched command",
		"topic", topic,
		"type", env.Type,
		"key", env.Key,
		"event_id", msg.Headers[HeaderEventID],
	)
	return nil
}

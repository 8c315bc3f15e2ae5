package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"mosaic/pkg/platform/sentinel"
)

// Applier applies commands to one service's store.
type Applier interface {
	// ApplyCreate decodes env.Data and inserts it. A duplicate key is an error.
	ApplyCreate(ctx context.Context, env Envelope) error
	// ApplyDelete removes every entity under key. Absence is not an error.
	ApplyDelete(ctx context.Context, key int) error
}

// Processor is the consumer side of a command topic. Commands that cannot be
// applied never reach the gateway: they are logged, counted and republished to
// the topic's dead-letter topic.
type Processor struct {
	consumer string
	topic    string
	applier  Applier
	dlq      Publisher
	logger   *slog.Logger
	metrics  *Metrics
}

type ProcessorOption func(*Processor)

// WithDeadLetter sets where failed commands are republished. Without it they are only logged.
func WithDeadLetter(p Publisher) ProcessorOption {
	return func(pr *Processor) {
		pr.dlq = p
	}
}

func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(pr *Processor) {
		if logger != nil {
			pr.logger = logger
		}
	}
}

func WithProcessorMetrics(m *Metrics) ProcessorOption {
	return func(pr *Processor) {
		pr.metrics = m
	}
}

// NewProcessor builds the processor that consumer (a service name) runs on topic.
func NewProcessor(consumer, topic string, applier Applier, opts ...ProcessorOption) *Processor {
	p := &Processor{
		consumer: consumer,
		topic:    topic,
		applier:  applier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Group is the consumer group the processor subscribes with.
func (p *Processor) Group() string {
	return p.consumer + "Group"
}

// Start subscribes the processor to its topic.
func (p *Processor) Start(ctx context.Context, sub Subscriber) error {
	if err := sub.Subscribe(ctx, p.topic, p.Group(), p.Handle); err != nil {
		return fmt.Errorf("subscribe %s to %s: %w", p.consumer, p.topic, err)
	}
	p.logger.InfoContext(ctx, "consuming commands", "topic", p.topic, "group", p.Group())
	return nil
}

// Handle applies one message. It returns an error only when a failed command
// could not be dead-lettered either.
func (p *Processor) Handle(ctx context.Context, msg *Message) error {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return p.fail(ctx, msg, "", fmt.Errorf("decode envelope: %w", err))
	}

	p.logger.InfoContext(ctx, "process message created at",
		"topic", p.topic,
		"type", env.Type,
		"key", env.Key,
		"created_at", env.CreatedAt,
	)

	var err error
	switch env.Type {
	case Create:
		err = p.applier.ApplyCreate(ctx, env)
	case Delete:
		err = p.applier.ApplyDelete(ctx, env.Key)
	default:
		err = fmt.Errorf("%w: Incorrect event type: %s, expected a CREATE or DELETE event", sentinel.ErrUnknownEvent, env.Type)
	}
	if err != nil {
		return p.fail(ctx, msg, env.Type, err)
	}
	p.metrics.IncConsumed(p.topic, string(env.Type), "applied")
	return nil
}

func (p *Processor) fail(ctx context.Context, msg *Message, typ Type, cause error) error {
	p.metrics.IncConsumed(p.topic, string(typ), "failed")
	p.logger.WarnContext(ctx, "command not applied",
		"topic", p.topic,
		"consumer", p.consumer,
		"key", msg.Key,
		"type", typ,
		"error", cause,
	)
	if p.dlq == nil {
		return nil
	}

	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderError] = cause.Error()
	headers[HeaderConsumer] = p.consumer
	dead := &Message{
		Topic:   DeadLetterTopic(p.topic),
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
	if err := p.dlq.Publish(ctx, dead); err != nil {
		p.logger.ErrorContext(ctx, "dead-letter publish failed",
			"topic", dead.Topic,
			"key", msg.Key,
			"error", err,
		)
		return fmt.Errorf("dead-letter %s: %w (cause: %w)", dead.Topic, err, cause)
	}
	p.metrics.IncDeadLettered(p.topic)
	return nil
}

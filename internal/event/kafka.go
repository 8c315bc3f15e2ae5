package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"mosaic/internal/platform/kafka"
)

// KafkaBus publishes with one shared async producer and consumes with one
// group client per subscription.
type KafkaBus struct {
	brokers  []string
	producer *kgo.Client
	logger   *slog.Logger
	metrics  *Metrics

	mu        sync.Mutex
	consumers []*kgo.Client
	wg        sync.WaitGroup
}

// NewKafkaBus connects the producer to brokers.
func NewKafkaBus(brokers []string, logger *slog.Logger, metrics *Metrics) (*KafkaBus, error) {
	producer, err := kafka.NewClient(brokers)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaBus{
		brokers:  brokers,
		producer: producer,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Producer exposes the producing client for topic provisioning and health checks.
func (b *KafkaBus) Producer() *kgo.Client {
	return b.producer
}

// Publish buffers the record and returns; delivery is confirmed asynchronously.
// The record outlives the caller's request, so cancellation is detached.
func (b *KafkaBus) Publish(ctx context.Context, msg *Message) error {
	record := &kgo.Record{
		Topic: msg.Topic,
		Key:   []byte(msg.Key),
		Value: msg.Value,
	}
	for k, v := range msg.Headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	b.producer.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			b.metrics.IncPublishFailure(r.Topic)
			b.logger.Error("kafka delivery failed",
				"topic", r.Topic,
				"key", string(r.Key),
				"error", err,
			)
		}
	})
	return nil
}

// Subscribe joins group on topic with a dedicated client. Offsets are committed
// after the handler returns, so a crash redelivers the in-flight record.
func (b *KafkaBus) Subscribe(ctx context.Context, topic, group string, h MessageHandler) error {
	client, err := kafka.NewClient(b.brokers,
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.AutoCommitMarks(),
	)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return fmt.Errorf("kafka ping: %w", err)
	}

	b.mu.Lock()
	b.consumers = append(b.consumers, client)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(ctx, client, h)
	}()
	return nil
}

func (b *KafkaBus) consume(ctx context.Context, client *kgo.Client, h MessageHandler) {
	for {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			b.logger.ErrorContext(ctx, "kafka fetch failed",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		fetches.EachRecord(func(r *kgo.Record) {
			msg := &Message{
				Topic:   r.Topic,
				Key:     string(r.Key),
				Value:   r.Value,
				Headers: make(map[string]string, len(r.Headers)),
			}
			for _, hdr := range r.Headers {
				msg.Headers[hdr.Key] = string(hdr.Value)
			}
			if err := h(ctx, msg); err != nil {
				b.logger.ErrorContext(ctx, "message handler failed",
					"topic", r.Topic,
					"offset", r.Offset,
					"error", err,
				)
			}
			client.MarkCommitRecords(r)
		})
	}
}

// Close flushes pending records, stops consumers and closes every client.
func (b *KafkaBus) Close() error {
	ctx := context.Background()
	flushErr := b.producer.Flush(ctx)

	b.mu.Lock()
	consumers := b.consumers
	b.consumers = nil
	b.mu.Unlock()

	var errs []error
	if flushErr != nil {
		errs = append(errs, fmt.Errorf("flush producer: %w", flushErr))
	}
	for _, c := range consumers {
		if err := c.CommitMarkedOffsets(ctx); err != nil {
			errs = append(errs, fmt.Errorf("commit offsets: %w", err))
		}
		c.Close()
	}
	b.wg.Wait()
	b.producer.Close()
	return errors.Join(errs...)
}

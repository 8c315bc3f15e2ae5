// Package kafka builds franz-go clients and provisions the command topics.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// NewClient creates a client for brokers. Extra options (consumer group,
// consumed topics) are appended after the defaults.
func NewClient(brokers []string, opts ...kgo.Opt) (*kgo.Client, error) {
	all := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
	}
	all = append(all, opts...)
	client, err := kgo.NewClient(all...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopics creates any missing topic. Topics that already exist are left untouched.
func EnsureTopics(ctx context.Context, client *kgo.Client, partitions int32, replication int16, logger *slog.Logger, topics ...string) error {
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, partitions, replication, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	var errs []error
	for _, t := range resp.Sorted() {
		switch {
		case t.Err == nil:
			logger.InfoContext(ctx, "created topic", "topic", t.Topic, "partitions", partitions)
		case errors.Is(t.Err, kerr.TopicAlreadyExists):
		default:
			errs = append(errs, fmt.Errorf("topic %s: %w", t.Topic, t.Err))
		}
	}
	return errors.Join(errs...)
}

// Ping checks that at least one broker answers a metadata request.
func Ping(ctx context.Context, client *kgo.Client) error {
	return client.Ping(ctx)
}

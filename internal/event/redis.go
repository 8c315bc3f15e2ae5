package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// RedisBus carries messages over Redis pub/sub. Pub/sub has no retention and
// no consumer groups: every subscriber receives every message published while
// it is connected, so run one consumer instance per service with this bus.
type RedisBus struct {
	rdb    *goredis.Client
	logger *slog.Logger

	mu   sync.Mutex
	subs []*goredis.PubSub
	wg   sync.WaitGroup
}

func NewRedisBus(rdb *goredis.Client, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{rdb: rdb, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, msg *Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return b.rdb.Publish(ctx, msg.Topic, raw).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, topic, group string, h MessageHandler) error {
	sub := b.rdb.Subscribe(ctx, topic)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.logger.WarnContext(ctx, "bad redis bus payload", "channel", m.Channel, "group", group, "error", err)
					continue
				}
				if err := h(ctx, &msg); err != nil {
					b.logger.ErrorContext(ctx, "message handler failed",
						"topic", msg.Topic,
						"key", msg.Key,
						"error", err,
					)
				}
			}
		}
	}()
	return nil
}

// Close ends every subscription. The Redis client belongs to the caller.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := s.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			errs = append(errs, err)
		}
	}
	b.wg.Wait()
	return errors.Join(errs...)
}

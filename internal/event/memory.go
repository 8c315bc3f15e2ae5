package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBusClosed is returned by a closed bus.
var ErrBusClosed = errors.New("bus closed")

// DefaultUnconsumedRetention is how many messages a topic without consumer
// groups keeps.
const DefaultUnconsumedRetention = 1024

// MemoryBus is an in-process transport with Kafka-like semantics: every topic
// keeps a log and each consumer group reads it at its own offset, starting from
// the oldest retained message. Messages every group has handled are dropped.
// Topics nobody consumes, such as dead-letter topics, keep only their most
// recent messages. It serves single-process deployments and tests.
type MemoryBus struct {
	logger    *slog.Logger
	retention int

	mu     sync.Mutex
	topics map[string]*memoryTopic
	closed bool
}

// memoryTopic offsets are absolute; log[0] sits at offset base.
type memoryTopic struct {
	log    []*Message
	base   int
	notify chan struct{}
	groups map[string]*memoryGroup
}

func (t *memoryTopic) end() int {
	return t.base + len(t.log)
}

// trim drops what every group has read, or the oldest messages beyond
// retention when there are no groups.
func (t *memoryTopic) trim(retention int) {
	low := t.end()
	if len(t.groups) == 0 {
		low = max(t.base, t.end()-retention)
	}
	for _, g := range t.groups {
		low = min(low, g.offset)
	}
	n := low - t.base
	if n <= 0 {
		return
	}
	clear(t.log[:n])
	t.log = t.log[n:]
	t.base = low
	if len(t.log) == 0 {
		t.log = nil
	}
}

type memoryGroup struct {
	offset   int
	inFlight int
}

type MemoryOption func(*MemoryBus)

// WithUnconsumedRetention caps how many messages a topic without consumer
// groups keeps.
func WithUnconsumedRetention(n int) MemoryOption {
	return func(b *MemoryBus) {
		if n > 0 {
			b.retention = n
		}
	}
}

func NewMemoryBus(logger *slog.Logger, opts ...MemoryOption) *MemoryBus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &MemoryBus{
		logger:    logger,
		retention: DefaultUnconsumedRetention,
		topics:    make(map[string]*memoryTopic),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// topic returns the topic, creating it. Callers hold b.mu.
func (b *MemoryBus) topic(name string) *memoryTopic {
	t, ok := b.topics[name]
	if !ok {
		t = &memoryTopic{
			notify: make(chan struct{}),
			groups: make(map[string]*memoryGroup),
		}
		b.topics[name] = t
	}
	return t
}

func (b *MemoryBus) Publish(_ context.Context, msg *Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	t := b.topic(msg.Topic)
	cp := *msg
	t.log = append(t.log, &cp)
	if len(t.groups) == 0 {
		t.trim(b.retention)
	}
	close(t.notify)
	t.notify = make(chan struct{})
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, topic, group string, h MessageHandler) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	t := b.topic(topic)
	g, ok := t.groups[group]
	if !ok {
		g = &memoryGroup{offset: t.base}
		t.groups[group] = g
	}
	b.mu.Unlock()

	go b.consume(ctx, t, g, h)
	return nil
}

func (b *MemoryBus) consume(ctx context.Context, t *memoryTopic, g *memoryGroup, h MessageHandler) {
	for {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return
		}
		if g.offset < t.end() {
			msg := t.log[g.offset-t.base]
			g.offset++
			g.inFlight++
			b.mu.Unlock()

			if err := h(ctx, msg); err != nil {
				b.logger.ErrorContext(ctx, "message handler failed",
					"topic", msg.Topic,
					"key", msg.Key,
					"error", err,
				)
			}

			b.mu.Lock()
			g.inFlight--
			t.trim(b.retention)
			b.mu.Unlock()
			continue
		}
		wait := t.notify
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-wait:
		}
	}
}

// Idle reports whether every group has handled every message published so far.
func (b *MemoryBus) Idle() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.topics {
		for _, g := range t.groups {
			if g.offset < t.end() || g.inFlight > 0 {
				return false
			}
		}
	}
	return true
}

// WaitIdle blocks until Idle or ctx is done.
func (b *MemoryBus) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for !b.Idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Messages returns a copy of the messages topic still retains.
func (b *MemoryBus) Messages(topic string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[topic]
	if !ok {
		return nil
	}
	out := make([]Message, 0, len(t.log))
	for _, m := range t.log {
		out = append(out, *m)
	}
	return out
}

// Retained reports how many messages topic holds.
func (b *MemoryBus) Retained(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.topics[topic]; ok {
		return len(t.log)
	}
	return 0
}

// Published reports how many messages were ever published to topic.
func (b *MemoryBus) Published(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.topics[topic]; ok {
		return t.end()
	}
	return 0
}

// Close stops delivery. Consumers exit after their current message.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, t := range b.topics {
		close(t.notify)
		t.notify = make(chan struct{})
	}
	return nil
}

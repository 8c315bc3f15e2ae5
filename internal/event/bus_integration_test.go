//go:build integration

package event_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"mosaic/internal/event"
	"mosaic/internal/platform/kafka"
	"mosaic/pkg/testutil/containers"
)

type collector struct {
	mu   sync.Mutex
	msgs []*event.Message
}

func (c *collector) handle(_ context.Context, msg *event.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func (c *collector) first() *event.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.msgs[0]
}

type KafkaBusSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	bus      *event.KafkaBus
	logger   *slog.Logger
}

func TestKafkaBusSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaBusSuite))
}

func (s *KafkaBusSuite) SetupSuite() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
	bus, err := event.NewKafkaBus(s.redpanda.Brokers, s.logger, nil)
	s.Require().NoError(err)
	s.bus = bus
}

func (s *KafkaBusSuite) TearDownSuite() {
	if s.bus != nil {
		s.NoError(s.bus.Close())
	}
}

func (s *KafkaBusSuite) TestEnsureTopicsIsIdempotent() {
	ctx := context.Background()
	topic := "ensure-" + uuid.NewString()
	s.Require().NoError(kafka.EnsureTopics(ctx, s.bus.Producer(), 1, 1, s.logger, topic))
	s.Require().NoError(kafka.EnsureTopics(ctx, s.bus.Producer(), 1, 1, s.logger, topic))
}

func (s *KafkaBusSuite) TestPublishedMessageReachesGroup() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	topic := "products-" + uuid.NewString()
	s.Require().NoError(kafka.EnsureTopics(ctx, s.bus.Producer(), 1, 1, s.logger, topic))

	d := event.NewDispatcher(s.bus)
	s.Require().NoError(d.Dispatch(ctx, topic, event.NewDelete(7, time.Now())))

	// The group starts at the earliest offset, so subscribing after the
	// publish still delivers the message.
	c := &collector{}
	s.Require().NoError(s.bus.Subscribe(ctx, topic, "productGroup", c.handle))

	s.Eventually(func() bool { return c.len() == 1 }, 30*time.Second, 100*time.Millisecond)
	msg := c.first()
	s.Equal("7", msg.Key)
	s.Equal("DELETE", msg.Headers[event.HeaderEventType])
}

type RedisBusSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	bus   *event.RedisBus
}

func TestRedisBusSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBusSuite))
}

func (s *RedisBusSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.bus = event.NewRedisBus(s.redis.Client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *RedisBusSuite) TearDownSuite() {
	s.NoError(s.bus.Close())
}

func (s *RedisBusSuite) TestPublishReachesLiveSubscriber() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	topic := "reviews-" + uuid.NewString()

	c := &collector{}
	s.Require().NoError(s.bus.Subscribe(ctx, topic, "reviewGroup", c.handle))

	env, err := event.NewCreate(3, map[string]any{"productId": 3, "reviewId": 1}, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(event.NewDispatcher(s.bus).Dispatch(ctx, topic, env))

	s.Eventually(func() bool { return c.len() == 1 }, 10*time.Second, 50*time.Millisecond)
	msg := c.first()
	s.Equal(topic, msg.Topic)
	s.Equal("3", msg.Key)
	s.JSONEq(`{"productId":3,"reviewId":1}`, string(mustEnvelope(s.T(), msg.Value).Data))
}

func mustEnvelope(t *testing.T, raw []byte) event.Envelope {
	t.Helper()
	var env event.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

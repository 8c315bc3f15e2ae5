// Package app wires the gateway and the backing services from configuration.
// Each constructor returns a Server holding the router and everything that has
// to be closed when the process stops.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"mosaic/internal/composite/health"
	"mosaic/internal/event"
	"mosaic/internal/platform/config"
	"mosaic/internal/platform/httpserver"
	"mosaic/internal/platform/kafka"
	"mosaic/internal/platform/metrics"
	"mosaic/internal/platform/middleware"
	"mosaic/internal/platform/redis"
)

// Server is one wired service.
type Server struct {
	Name    string
	Handler http.Handler
	// Address is reported as the serviceAddress of this instance.
	Address string

	closers []func() error
}

// Close releases stores and transports in reverse order of creation.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Run serves s on addr until ctx is done, then drains requests and closes s.
func Run(ctx context.Context, s *Server, addr string, shutdownTimeout time.Duration, logger *slog.Logger) error {
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error("close failed", "service", s.Name, "error", err)
		}
	}()
	logger.InfoContext(ctx, "starting service", "service", s.Name, "address", s.Address)
	return httpserver.Run(ctx, httpserver.New(addr, s.Handler), logger, shutdownTimeout)
}

func (s *Server) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

type options struct {
	bus      event.Bus
	registry *prometheus.Registry
	address  string
}

type Option func(*options)

// WithBus shares an existing bus. The caller keeps ownership and closes it.
func WithBus(bus event.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// WithRegistry registers metrics with reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithAddress overrides the reported service address.
func WithAddress(addr string) Option {
	return func(o *options) { o.address = addr }
}

func init() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// base holds what every service builds the same way.
type base struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	bus      event.Bus
	events   *event.Metrics
	server   *Server
}

func newBase(ctx context.Context, name string, cfg config.Config, logger *slog.Logger, opts []Option) (*base, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	reg := o.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	address := o.address
	if address == "" {
		address = httpserver.ServiceAddress(cfg.Server.Addr)
	}
	b := &base{
		cfg:      cfg,
		logger:   logger.With("service", name),
		registry: reg,
		events:   event.NewMetrics(reg),
		server:   &Server{Name: name, Address: address},
	}

	b.bus = o.bus
	if b.bus == nil {
		bus, err := NewBus(ctx, cfg, b.logger, b.events)
		if err != nil {
			return nil, err
		}
		b.bus = bus
		b.server.onClose(bus.Close)
	}
	return b, nil
}

// router starts a chi router with the shared middleware, /metrics and /health.
func (b *base) router(name string, probes ...health.Probe) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Common(b.logger, metrics.New(name, b.registry))...)
	r.Handle("/metrics", promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{Registry: b.registry}))
	r.Method(http.MethodGet, "/health", health.NewAggregator(b.logger, append(probes, busProbe(b.bus))...))
	return r
}

func (b *base) finish(r chi.Router) *Server {
	b.server.Handler = otelhttp.NewHandler(r, b.server.Name)
	return b.server
}

// NewBus builds the command transport cfg selects. Kafka topics, including
// the dead-letter topics, are provisioned before the bus is returned.
func NewBus(ctx context.Context, cfg config.Config, logger *slog.Logger, m *event.Metrics) (event.Bus, error) {
	switch cfg.Bus.Kind {
	case config.BusKafka:
		bus, err := event.NewKafkaBus(cfg.Bus.KafkaBrokers, logger, m)
		if err != nil {
			return nil, err
		}
		topics := event.Topics()
		for _, t := range event.Topics() {
			topics = append(topics, event.DeadLetterTopic(t))
		}
		if err := kafka.EnsureTopics(ctx, bus.Producer(), cfg.Bus.Partitions, cfg.Bus.Replication, logger, topics...); err != nil {
			_ = bus.Close()
			return nil, fmt.Errorf("provision topics: %w", err)
		}
		return bus, nil
	case config.BusRedis:
		client, err := redis.Open(ctx, config.RedisConfig{URL: cfg.Bus.RedisURL})
		if err != nil {
			return nil, fmt.Errorf("connect bus redis: %w", err)
		}
		return &redisBus{RedisBus: event.NewRedisBus(client, logger), client: client}, nil
	default:
		return event.NewMemoryBus(logger), nil
	}
}

// redisBus closes the connection it was built on.
type redisBus struct {
	*event.RedisBus
	client *goredis.Client
}

func (b *redisBus) Close() error {
	return errors.Join(b.RedisBus.Close(), b.client.Close())
}

func busProbe(bus event.Bus) health.Probe {
	check := func(context.Context) error { return nil }
	switch b := bus.(type) {
	case *event.KafkaBus:
		check = func(ctx context.Context) error { return kafka.Ping(ctx, b.Producer()) }
	case *redisBus:
		check = func(ctx context.Context) error { return b.client.Ping(ctx).Err() }
	}
	return health.FuncProbe{ProbeName: "bus", Fn: check}
}

package app

import (
	"context"
	"fmt"
	"log/slog"

	"mosaic/internal/composite/health"
	"mosaic/internal/event"
	"mosaic/internal/platform/config"
	"mosaic/internal/platform/postgres"
	"mosaic/internal/platform/redis"
	producthandler "mosaic/internal/product/handler"
	productservice "mosaic/internal/product/service"
	productstore "mosaic/internal/product/store"
	recommendationhandler "mosaic/internal/recommendation/handler"
	recommendationservice "mosaic/internal/recommendation/service"
	recommendationstore "mosaic/internal/recommendation/store"
	reviewhandler "mosaic/internal/review/handler"
	reviewservice "mosaic/internal/review/service"
	reviewstore "mosaic/internal/review/store"
)

// pinger is implemented by every store.
type pinger interface {
	Ping(ctx context.Context) error
}

func storeProbe(s pinger) health.Probe {
	return health.FuncProbe{ProbeName: "store", Fn: s.Ping}
}

// consume starts the command processor for one backing service.
func (b *base) consume(ctx context.Context, consumer, topic string, applier event.Applier) error {
	p := event.NewProcessor(consumer, topic, applier,
		event.WithDeadLetter(b.bus),
		event.WithProcessorLogger(b.logger),
		event.WithProcessorMetrics(b.events),
	)
	return p.Start(ctx, b.bus)
}

// NewProduct wires the product service. It uses PostgreSQL through pgx when
// PRODUCT_DATABASE_URL is set and memory otherwise.
func NewProduct(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	b, err := newBase(ctx, "product", cfg, logger, opts)
	if err != nil {
		return nil, err
	}

	var store interface {
		productservice.Store
		pinger
	}
	if cfg.Database.ProductURL != "" {
		pool, err := postgres.OpenPool(ctx, cfg.Database.ProductURL, cfg.Database.MaxConns)
		if err != nil {
			_ = b.server.Close()
			return nil, fmt.Errorf("product store: %w", err)
		}
		b.server.onClose(func() error { pool.Close(); return nil })
		pg := productstore.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			_ = b.server.Close()
			return nil, err
		}
		store = pg
	} else {
		store = productstore.NewInMemory()
	}

	svc := productservice.New(store, b.server.Address, productservice.WithLogger(b.logger))
	if err := b.consume(ctx, "product", event.TopicProducts, svc); err != nil {
		_ = b.server.Close()
		return nil, err
	}

	r := b.router("product", storeProbe(store))
	producthandler.New(svc, b.logger).Register(r)
	return b.finish(r), nil
}

// NewRecommendation wires the recommendation service. It stores in Redis when
// REDIS_URL is set and in memory otherwise.
func NewRecommendation(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	b, err := newBase(ctx, "recommendation", cfg, logger, opts)
	if err != nil {
		return nil, err
	}

	var store interface {
		recommendationservice.Store
		pinger
	}
	if cfg.Redis.URL != "" {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			_ = b.server.Close()
			return nil, fmt.Errorf("recommendation store: %w", err)
		}
		b.server.onClose(client.Close)
		store = recommendationstore.NewRedis(client)
	} else {
		store = recommendationstore.NewInMemory()
	}

	svc := recommendationservice.New(store, b.server.Address, b.logger)
	if err := b.consume(ctx, "recommendation", event.TopicRecommendations, svc); err != nil {
		_ = b.server.Close()
		return nil, err
	}

	r := b.router("recommendation", storeProbe(store))
	recommendationhandler.New(svc, b.logger).Register(r)
	return b.finish(r), nil
}

// NewReview wires the review service. It uses PostgreSQL through lib/pq when
// REVIEW_DATABASE_URL is set and memory otherwise.
func NewReview(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	b, err := newBase(ctx, "review", cfg, logger, opts)
	if err != nil {
		return nil, err
	}

	var store interface {
		reviewservice.Store
		pinger
	}
	if cfg.Database.ReviewURL != "" {
		db, err := postgres.OpenDB(ctx, cfg.Database.ReviewURL, cfg.Database.MaxConns)
		if err != nil {
			_ = b.server.Close()
			return nil, fmt.Errorf("review store: %w", err)
		}
		b.server.onClose(db.Close)
		pg := reviewstore.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = b.server.Close()
			return nil, err
		}
		store = pg
	} else {
		store = reviewstore.NewInMemory()
	}

	svc := reviewservice.New(store, b.server.Address, b.logger)
	if err := b.consume(ctx, "review", event.TopicReviews, svc); err != nil {
		_ = b.server.Close()
		return nil, err
	}

	r := b.router("review", storeProbe(store))
	reviewhandler.New(svc, b.logger).Register(r)
	return b.finish(r), nil
}

package app

import (
	"context"
	"log/slog"

	"mosaic/internal/auth"
	"mosaic/internal/composite/handler"
	"mosaic/internal/composite/health"
	"mosaic/internal/composite/integration"
	compositemetrics "mosaic/internal/composite/metrics"
	"mosaic/internal/composite/service"
	"mosaic/internal/event"
	"mosaic/internal/platform/config"
	"mosaic/internal/platform/middleware"
	"mosaic/pkg/platform/circuit"
	"mosaic/pkg/platform/resilience"
)

// ProductResource names the breaker and policy guarding the product service.
const ProductResource = "product"

// NewBreakers builds the breaker registry from the resilience settings.
func NewBreakers(cfg config.Resilience, listener circuit.Listener) *circuit.Registry {
	return circuit.NewRegistry(
		circuit.WithWindowSize(cfg.WindowSize),
		circuit.WithFailureRatio(cfg.FailureRatio),
		circuit.WithOpenCooldown(cfg.OpenCooldown),
		circuit.WithHalfOpenCalls(cfg.HalfOpenCalls),
		circuit.WithListener(listener),
	)
}

// NewProductPolicy composes retry around the product breaker around a per-attempt timeout.
func NewProductPolicy(cfg config.Resilience, breakers *circuit.Registry, logger *slog.Logger, observer resilience.Observer) *resilience.Policy {
	return resilience.New(ProductResource, breakers.Get(ProductResource),
		resilience.WithTimeout(cfg.ProductTimeout),
		resilience.WithMaxAttempts(cfg.MaxAttempts),
		resilience.WithBackoff(cfg.RetryWait, cfg.RetryMultiplier, cfg.RetryMaxWait),
		resilience.WithLogger(logger),
		resilience.WithObserver(observer),
	)
}

// NewComposite wires the gateway: resilient product client, best-effort
// dependent clients, command dispatcher, JWT authentication and health probes
// against the three backing services.
func NewComposite(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	b, err := newBase(ctx, "product-composite", cfg, logger, opts)
	if err != nil {
		return nil, err
	}
	m := compositemetrics.New(b.registry)

	breakers := NewBreakers(cfg.Resilience, m.BreakerListener())
	policy := NewProductPolicy(cfg.Resilience, breakers, b.logger, m)

	products := integration.NewProductClient(cfg.Composite.ProductURL, integration.NewHTTPClient(0), policy, b.logger)
	dependentClient := integration.NewHTTPClient(cfg.Composite.DependentTimeout)
	recommendations := integration.NewRecommendationClient(cfg.Composite.RecommendationURL, dependentClient, b.logger)
	reviews := integration.NewReviewClient(cfg.Composite.ReviewURL, dependentClient, b.logger)

	dispatcher := event.NewDispatcher(b.bus,
		event.WithDispatcherLogger(b.logger),
		event.WithDispatcherMetrics(b.events),
	)
	svc := service.New(products, recommendations, reviews, dispatcher, b.server.Address,
		service.WithLogger(b.logger),
		service.WithMetrics(m),
	)

	tokens := auth.NewTokenService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	authenticate := middleware.Authenticate(tokens, cfg.Auth.Enabled, b.logger)

	probeClient := integration.NewHTTPClient(cfg.Composite.HealthTimeout)
	r := b.router("product-composite",
		health.NewHTTPProbe("product", cfg.Composite.ProductURL, probeClient),
		health.NewHTTPProbe("recommendation", cfg.Composite.RecommendationURL, probeClient),
		health.NewHTTPProbe("review", cfg.Composite.ReviewURL, probeClient),
	)
	handler.New(svc, b.logger).Register(r, authenticate)

	b.logger.InfoContext(ctx, "composite wired",
		"product_url", cfg.Composite.ProductURL,
		"recommendation_url", cfg.Composite.RecommendationURL,
		"review_url", cfg.Composite.ReviewURL,
		"bus", cfg.Bus.Kind,
		"auth_enabled", cfg.Auth.Enabled,
	)
	return b.finish(r), nil
}

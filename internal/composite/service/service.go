// Package service orchestrates the composite API: it assembles aggregates from
// the backing services on read and turns aggregates into commands on write.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"mosaic/internal/api"
	"mosaic/internal/auth"
	"mosaic/internal/composite/metrics"
	"mosaic/internal/event"
)

var tracer = otel.Tracer("mosaic/internal/composite/service")

// ProductClient is the mandatory product lookup. Failures are domain errors;
// an unavailable product service is reported with CodeUnavailable.
type ProductClient interface {
	GetProduct(ctx context.Context, productID, delay, faultPercent int) (*api.Product, error)
}

// RecommendationClient is best-effort and never fails.
type RecommendationClient interface {
	GetRecommendations(ctx context.Context, productID int) []api.Recommendation
}

// ReviewClient is best-effort and never fails.
type ReviewClient interface {
	GetReviews(ctx context.Context, productID int) []api.Review
}

// Dispatcher hands commands to the message transport.
type Dispatcher interface {
	Dispatch(ctx context.Context, topic string, env event.Envelope) error
}

type Service struct {
	products        ProductClient
	recommendations RecommendationClient
	reviews         ReviewClient
	dispatcher      Dispatcher
	address         string
	logger          *slog.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds the orchestrator. address identifies this gateway instance in
// assembled aggregates and fallback products.
func New(
	products ProductClient,
	recommendations RecommendationClient,
	reviews ReviewClient,
	dispatcher Dispatcher,
	address string,
	opts ...Option,
) *Service {
	s := &Service{
		products:        products,
		recommendations: recommendations,
		reviews:         reviews,
		dispatcher:      dispatcher,
		address:         address,
		logger:          slog.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) logAuthorization(ctx context.Context, op string, p auth.Principal) {
	if !p.Authenticated {
		s.logger.WarnContext(ctx, "no JWT based authentication supplied", "operation", op)
		return
	}
	s.logger.InfoContext(ctx, "authorization info", append([]any{"operation", op}, p.LogAttrs()...)...)
}

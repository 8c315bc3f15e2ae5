package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"mosaic/internal/api"
	"mosaic/internal/auth"
	dErrors "mosaic/pkg/domain-errors"
)

// fallbackMissingID is never served from the fallback; an unavailable product
// service answers NotFound for it instead. Resilience tests rely on it to tell
// the fallback apart from a real lookup.
const fallbackMissingID = 13

// GetAggregate assembles the aggregate for productID. The three backing queries
// run concurrently and are all awaited. Only the product query can fail the
// request; the dependent lists degrade to empty.
func (s *Service) GetAggregate(ctx context.Context, principal auth.Principal, productID, delay, faultPercent int) (*api.ProductAggregate, error) {
	s.logAuthorization(ctx, "getCompositeProduct", principal)

	if productID < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, api.InvalidProductIDMessage(productID))
	}
	if delay < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("Invalid delay: %d", delay))
	}
	if faultPercent < 0 || faultPercent > 100 {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("Invalid faultPercent: %d, must be between 0 and 100", faultPercent))
	}

	ctx, span := tracer.Start(ctx, "Service.GetAggregate", trace.WithAttributes(attribute.Int("product.id", productID)))
	defer span.End()

	// Branches outlive the caller: the product branch is bounded by its own
	// per-attempt timeouts and the dependents by the HTTP client timeout.
	branchCtx := context.WithoutCancel(ctx)

	var (
		product         *api.Product
		productErr      error
		recommendations []api.Recommendation
		reviews         []api.Review
		g               errgroup.Group
	)
	g.Go(func() error {
		start := time.Now()
		product, productErr = s.products.GetProduct(branchCtx, productID, delay, faultPercent)
		s.metrics.ObserveBranch("product", time.Since(start))
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		recommendations = s.recommendations.GetRecommendations(branchCtx, productID)
		s.metrics.ObserveBranch("recommendations", time.Since(start))
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		reviews = s.reviews.GetReviews(branchCtx, productID)
		s.metrics.ObserveBranch("reviews", time.Since(start))
		return nil
	})
	_ = g.Wait()

	if productErr != nil {
		product, productErr = s.fallback(ctx, productID, productErr)
		if productErr != nil {
			span.RecordError(productErr)
			return nil, productErr
		}
	}

	s.logger.DebugContext(ctx, "getCompositeProduct: aggregate assembled",
		"product_id", productID,
		"recommendations", len(recommendations),
		"reviews", len(reviews),
	)
	return s.assemble(product, recommendations, reviews), nil
}

// fallback resolves an unavailable product service. Every other product error
// is returned unchanged.
func (s *Service) fallback(ctx context.Context, productID int, err error) (*api.Product, error) {
	if !dErrors.HasCode(err, dErrors.CodeUnavailable) {
		return nil, err
	}
	if productID == fallbackMissingID {
		s.metrics.IncFallback("not_found")
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound,
			fmt.Sprintf("Product Id: %d not found in fallback cache!", productID))
	}
	s.metrics.IncFallback("fallback")
	s.logger.WarnContext(ctx, "creating a fallback product", "product_id", productID, "error", err)
	return &api.Product{
		ProductID:      productID,
		Name:           fmt.Sprintf("Fallback product%d", productID),
		Weight:         productID,
		ServiceAddress: s.address,
	}, nil
}

func (s *Service) assemble(product *api.Product, recommendations []api.Recommendation, reviews []api.Review) *api.ProductAggregate {
	recSummaries := make([]api.RecommendationSummary, 0, len(recommendations))
	for _, r := range recommendations {
		recSummaries = append(recSummaries, api.SummarizeRecommendation(r))
	}
	reviewSummaries := make([]api.ReviewSummary, 0, len(reviews))
	for _, r := range reviews {
		reviewSummaries = append(reviewSummaries, api.SummarizeReview(r))
	}

	addresses := &api.ServiceAddresses{
		Cmp: s.address,
		Pro: product.ServiceAddress,
	}
	if len(reviews) > 0 {
		addresses.Rev = reviews[0].ServiceAddress
	}
	if len(recommendations) > 0 {
		addresses.Rec = recommendations[0].ServiceAddress
	}

	return &api.ProductAggregate{
		ProductID:        product.ProductID,
		Name:             product.Name,
		Weight:           product.Weight,
		Recommendations:  api.Some(recSummaries),
		Reviews:          api.Some(reviewSummaries),
		ServiceAddresses: addresses,
	}
}

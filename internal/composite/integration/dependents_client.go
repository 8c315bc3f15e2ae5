package integration

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mosaic/internal/api"
)

// RecommendationClient is best-effort: any failure yields an empty list.
type RecommendationClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewRecommendationClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *RecommendationClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, logger: logger}
}

func (c *RecommendationClient) GetRecommendations(ctx context.Context, productID int) []api.Recommendation {
	ctx, span := tracer.Start(ctx, "RecommendationClient.GetRecommendations",
		trace.WithAttributes(attribute.Int("product.id", productID)))
	defer span.End()

	target := fmt.Sprintf("%s/recommendation?productId=%d", c.baseURL, productID)
	recs, err := getJSON[[]api.Recommendation](ctx, c.http, target)
	if err != nil {
		span.RecordError(err)
		c.logger.WarnContext(ctx, "got an exception while requesting recommendations, return zero recommendations",
			"product_id", productID,
			"error", err,
		)
		return []api.Recommendation{}
	}
	if recs == nil {
		recs = []api.Recommendation{}
	}
	span.SetAttributes(attribute.Int("result.count", len(recs)))
	return recs
}

// ReviewClient is best-effort: any failure yields an empty list.
type ReviewClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewReviewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *ReviewClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, logger: logger}
}

func (c *ReviewClient) GetReviews(ctx context.Context, productID int) []api.Review {
	ctx, span := tracer.Start(ctx, "ReviewClient.GetReviews",
		trace.WithAttributes(attribute.Int("product.id", productID)))
	defer span.End()

	target := fmt.Sprintf("%s/review?productId=%d", c.baseURL, productID)
	reviews, err := getJSON[[]api.Review](ctx, c.http, target)
	if err != nil {
		span.RecordError(err)
		c.logger.WarnContext(ctx, "got an exception while requesting reviews, return zero reviews",
			"product_id", productID,
			"error", err,
		)
		return []api.Review{}
	}
	if reviews == nil {
		reviews = []api.Review{}
	}
	span.SetAttributes(attribute.Int("result.count", len(reviews)))
	return reviews
}

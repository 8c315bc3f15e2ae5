package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mosaic/internal/api"
	dErrors "mosaic/pkg/domain-errors"
	"mosaic/pkg/platform/resilience"
	"mosaic/pkg/platform/sentinel"
)

// ProductClient fetches products through a resilience policy. Exhausted retries
// and breaker rejections surface as unavailable domain errors; business errors
// from the product service surface unchanged.
type ProductClient struct {
	baseURL string
	http    *http.Client
	policy  *resilience.Policy
	logger  *slog.Logger
}

func NewProductClient(baseURL string, httpClient *http.Client, policy *resilience.Policy, logger *slog.Logger) *ProductClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		policy:  policy,
		logger:  logger,
	}
}

// GetProduct asks the product service for productID, passing the fault
// injection parameters through.
func (c *ProductClient) GetProduct(ctx context.Context, productID, delay, faultPercent int) (*api.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductClient.GetProduct", trace.WithAttributes(
		attribute.Int("product.id", productID),
		attribute.Int("fault.delay", delay),
		attribute.Int("fault.percent", faultPercent),
	))
	defer span.End()

	q := url.Values{}
	q.Set("delay", strconv.Itoa(delay))
	q.Set("faultPercent", strconv.Itoa(faultPercent))
	target := fmt.Sprintf("%s/product/%d?%s", c.baseURL, productID, q.Encode())

	c.logger.DebugContext(ctx, "will call the product API", "url", target)
	product, err := resilience.Do(ctx, c.policy, func(ctx context.Context) (api.Product, error) {
		return getJSON[api.Product](ctx, c.http, target)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get product failed")
		return nil, c.translate(ctx, productID, err)
	}
	return &product, nil
}

func (c *ProductClient) translate(ctx context.Context, productID int, err error) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		c.logger.WarnContext(ctx, "product service unavailable", "product_id", productID, "error", err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "Product service unavailable")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	// Caller cancellation or a failure the classifier marked terminal.
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "Product service unavailable")
}

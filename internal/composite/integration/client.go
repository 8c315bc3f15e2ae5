// Package integration holds the gateway's HTTP clients for the backing services.
// The product client is mandatory and resilient; the recommendation and review
// clients are best-effort and never fail.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	dErrors "mosaic/pkg/domain-errors"
	"mosaic/pkg/platform/httputil"
)

var tracer = otel.Tracer("mosaic/internal/composite/integration")

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// NewHTTPClient returns a client whose transport records a span per request.
// A zero timeout leaves deadlines to the caller's context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// getJSON issues a GET and decodes a 200 body into T. Any other status becomes
// a domain error carrying the backing service's status and message.
func getJSON[T any](ctx context.Context, client *http.Client, url string) (T, error) {
	var out T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return out, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return out, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s: %w", url, err)
	}
	return out, nil
}

// statusError turns a non-200 response into a domain error. 404 and 422 keep
// their meaning; any other status is proxied as-is.
func statusError(resp *http.Response) error {
	message := http.StatusText(resp.StatusCode)
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var er httputil.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		message = er.Message
	}

	switch code := dErrors.FromStatus(resp.StatusCode); code {
	case dErrors.CodeNotFound, dErrors.CodeInvalidInput:
		return dErrors.New(code, message)
	default:
		return dErrors.WithStatus(resp.StatusCode, message)
	}
}

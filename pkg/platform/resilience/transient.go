package resilience

import (
	"context"
	"errors"
	"net/http"

	"mosaic/pkg/platform/sentinel"
)

// statusCoder is satisfied by errors that carry an HTTP status, such as domain errors.
type statusCoder interface {
	HTTPStatus() int
}

// IsTransient is the default classifier. Timeouts, network failures and
// retryable HTTP statuses are transient; caller cancellation, breaker rejection
// and other statuses are not. Unknown errors are treated as transient since they
// usually come from the transport.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, sentinel.ErrCircuitOpen) {
		return false
	}
	if errors.Is(err, ErrAttemptTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return RetryableStatus(sc.HTTPStatus())
	}
	return true
}

// RetryableStatus reports whether an HTTP status is worth another attempt.
func RetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return status >= 500
}

// Package requestcontext carries request-scoped values that services and
// clients log without importing net/http.
package requestcontext

import "context"

type requestIDKey struct{}

// RequestID returns the id the RequestID middleware stored, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

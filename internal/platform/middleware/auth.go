package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"mosaic/internal/auth"
	dErrors "mosaic/pkg/domain-errors"
	"mosaic/pkg/platform/httputil"
	"mosaic/pkg/requestcontext"
)

// TokenValidator turns a bearer token into a Principal.
type TokenValidator interface {
	Validate(token string) (auth.Principal, error)
}

// Authenticate resolves the caller from the Authorization header. When enforce
// is false a request without a token proceeds as auth.Anonymous; a token that is
// present but invalid is always rejected.
func Authenticate(validator TokenValidator, enforce bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				if enforce {
					logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", requestID)
					httputil.WriteError(w, r, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
					return
				}
				logger.DebugContext(ctx, "no JWT based security context", "request_id", requestID)
				next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(ctx, auth.Anonymous())))
				return
			}

			p, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(ctx, p)))
		})
	}
}

// RequireScope rejects authenticated callers lacking scope. Anonymous callers
// only reach it when enforcement is off, and pass through.
func RequireScope(scope string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := auth.PrincipalFrom(r.Context())
			if p.Authenticated && !p.HasScope(scope) {
				logger.WarnContext(r.Context(), "forbidden - missing scope",
					"subject", p.Subject,
					"scope", scope,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, r, dErrors.New(dErrors.CodeForbidden, "missing scope "+scope))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

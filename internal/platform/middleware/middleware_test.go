package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaic/internal/auth"
	"mosaic/internal/platform/metrics"
	"mosaic/pkg/requestcontext"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var tokens = auth.NewTokenService("k", "mosaic", "product-composite")

func issue(t *testing.T, scopes ...string) string {
	t.Helper()
	token, err := tokens.Issue("tester", scopes, time.Hour)
	require.NoError(t, err)
	return token
}

func principalEcho(seen *auth.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = auth.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("no token and not enforced proceeds anonymously", func(t *testing.T) {
		var seen auth.Principal
		h := Authenticate(tokens, false, quietLogger())(principalEcho(&seen))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, seen.Authenticated)
	})

	t.Run("no token and enforced is 401", func(t *testing.T) {
		var seen auth.Principal
		h := Authenticate(tokens, true, quietLogger())(principalEcho(&seen))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token is 401 even when not enforced", func(t *testing.T) {
		var seen auth.Principal
		h := Authenticate(tokens, false, quietLogger())(principalEcho(&seen))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token sets principal", func(t *testing.T) {
		var seen auth.Principal
		h := Authenticate(tokens, true, quietLogger())(principalEcho(&seen))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, auth.ScopeRead))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "tester", seen.Subject)
		assert.True(t, seen.HasScope(auth.ScopeRead))
	})
}

func TestRequireScope(t *testing.T) {
	var seen auth.Principal
	h := Authenticate(tokens, false, quietLogger())(RequireScope(auth.ScopeWrite, quietLogger())(principalEcho(&seen)))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, auth.ScopeRead))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, auth.ScopeWrite))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "anonymous callers pass when auth is not enforced")
}

func TestRequestIDIsPropagated(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "req-1", got)
	assert.Equal(t, "req-1", rr.Header().Get(RequestIDHeader))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
}

func TestRecoveryWritesErrorBody(t *testing.T) {
	h := Recovery(quietLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), `"path":"/x"`)
}

func TestLatencyUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New("test", reg)
	r := chi.NewRouter()
	r.Use(Latency(m))
	r.Get("/product/{productId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/product/7", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/product/{productId}", http.MethodGet, "418")))
}

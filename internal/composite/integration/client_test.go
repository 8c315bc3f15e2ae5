package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaic/internal/api"
	dErrors "mosaic/pkg/domain-errors"
	"mosaic/pkg/platform/circuit"
	"mosaic/pkg/platform/httputil"
	"mosaic/pkg/platform/resilience"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy(b *circuit.Breaker) *resilience.Policy {
	return resilience.New("product", b,
		resilience.WithTimeout(100*time.Millisecond),
		resilience.WithMaxAttempts(3),
		resilience.WithBackoff(time.Millisecond, 1, time.Millisecond),
		resilience.WithLogger(quietLogger()),
	)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	httputil.WriteJSON(w, status, httputil.ErrorResponse{Status: status, Message: msg})
}

func TestProductClientReturnsProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/product/1", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("delay"))
		assert.Equal(t, "10", r.URL.Query().Get("faultPercent"))
		httputil.WriteJSON(w, http.StatusOK, api.Product{ProductID: 1, Name: "p1", Weight: 3, ServiceAddress: "pro"})
	}))
	defer srv.Close()

	c := NewProductClient(srv.URL, nil, fastPolicy(circuit.New("product")), quietLogger())
	p, err := c.GetProduct(context.Background(), 1, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, api.Product{ProductID: 1, Name: "p1", Weight: 3, ServiceAddress: "pro"}, *p)
}

func TestProductClientBusinessErrorsAreNotRetried(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		message  string
		wantCode dErrors.Code
		wantHTTP int
	}{
		{"not found", http.StatusNotFound, "No product found for productId: 9", dErrors.CodeNotFound, http.StatusNotFound},
		{"invalid input", http.StatusUnprocessableEntity, "Invalid productId: -1", dErrors.CodeInvalidInput, http.StatusUnprocessableEntity},
		{"other client error", http.StatusConflict, "conflict", dErrors.CodeUnexpected, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				writeError(w, tc.status, tc.message)
			}))
			defer srv.Close()

			breaker := circuit.New("product", circuit.WithWindowSize(1))
			c := NewProductClient(srv.URL, nil, fastPolicy(breaker), quietLogger())
			_, err := c.GetProduct(context.Background(), 9, 0, 0)

			de, ok := dErrors.As(err)
			require.True(t, ok, "expected domain error, got %v", err)
			assert.Equal(t, tc.wantCode, de.Code)
			assert.Equal(t, tc.wantHTTP, de.HTTPStatus())
			assert.Equal(t, tc.message, de.Message)
			assert.Equal(t, int32(1), calls.Load())
			assert.Equal(t, circuit.StateClosed, breaker.State(), "business errors do not trip the breaker")
		})
	}
}

func TestProductClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			writeError(w, http.StatusInternalServerError, "Something very bad happened")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, api.Product{ProductID: 4})
	}))
	defer srv.Close()

	c := NewProductClient(srv.URL, nil, fastPolicy(circuit.New("product", circuit.WithWindowSize(10))), quietLogger())
	p, err := c.GetProduct(context.Background(), 4, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, p.ProductID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestProductClientExhaustedRetriesAreUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeError(w, http.StatusInternalServerError, "Something very bad happened")
	}))
	defer srv.Close()

	c := NewProductClient(srv.URL, nil, fastPolicy(circuit.New("product", circuit.WithWindowSize(10))), quietLogger())
	_, err := c.GetProduct(context.Background(), 1, 0, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable), "got %v", err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestProductClientTimeoutCountsAsFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	breaker := circuit.New("product", circuit.WithWindowSize(3), circuit.WithFailureRatio(1))
	c := NewProductClient(srv.URL, nil, fastPolicy(breaker), quietLogger())
	_, err := c.GetProduct(context.Background(), 1, 0, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable), "got %v", err)
	assert.Equal(t, circuit.StateOpen, breaker.State())
}

func TestProductClientOpenBreakerShortCircuits(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		httputil.WriteJSON(w, http.StatusOK, api.Product{ProductID: 1})
	}))
	defer srv.Close()

	breaker := circuit.New("product", circuit.WithWindowSize(1))
	breaker.RecordFailure()
	require.True(t, breaker.IsOpen())

	c := NewProductClient(srv.URL, nil, fastPolicy(breaker), quietLogger())
	_, err := c.GetProduct(context.Background(), 1, 0, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.Zero(t, calls.Load())
}

func TestDependentClientsReturnLists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /recommendation", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("productId"))
		httputil.WriteJSON(w, http.StatusOK, []api.Recommendation{{ProductID: 5, RecommendationID: 1, ServiceAddress: "rec"}})
	})
	mux.HandleFunc("GET /review", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, []api.Review{{ProductID: 5, ReviewID: 1}, {ProductID: 5, ReviewID: 2}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	recs := NewRecommendationClient(srv.URL, nil, quietLogger()).GetRecommendations(context.Background(), 5)
	require.Len(t, recs, 1)
	assert.Equal(t, "rec", recs[0].ServiceAddress)

	reviews := NewReviewClient(srv.URL, nil, quietLogger()).GetReviews(context.Background(), 5)
	assert.Len(t, reviews, 2)
}

func TestDependentClientsAbsorbFailures(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusInternalServerError, "boom")
	}))
	defer failing.Close()

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer garbage.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer slow.Close()

	for name, url := range map[string]string{
		"server error": failing.URL,
		"bad body":     garbage.URL,
		"timeout":      slow.URL,
		"unreachable":  "http://127.0.0.1:1",
	} {
		t.Run(name, func(t *testing.T) {
			httpClient := NewHTTPClient(50 * time.Millisecond)
			recs := NewRecommendationClient(url, httpClient, quietLogger()).GetRecommendations(context.Background(), 1)
			assert.NotNil(t, recs)
			assert.Empty(t, recs)
			reviews := NewReviewClient(url, httpClient, quietLogger()).GetReviews(context.Background(), 1)
			assert.NotNil(t, reviews)
			assert.Empty(t, reviews)
		})
	}
}

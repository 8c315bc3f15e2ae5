package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaic/pkg/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func backing(status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
	}))
}

func TestAggregator(t *testing.T) {
	up := backing(http.StatusOK)
	defer up.Close()
	down := backing(http.StatusServiceUnavailable)
	defer down.Close()

	testutil.Given(t, "every backing service is healthy", func(t *testing.T) {
		a := NewAggregator(quietLogger(),
			NewHTTPProbe("product", up.URL, nil),
			NewHTTPProbe("recommendation", up.URL, nil),
			NewHTTPProbe("review", up.URL+"/", nil),
		)
		testutil.Then(t, "the composite is UP", func(t *testing.T) {
			report := a.Check(context.Background())
			assert.Equal(t, StatusUp, report.Status)
			assert.Equal(t, map[string]Status{"product": StatusUp, "recommendation": StatusUp, "review": StatusUp}, report.Components)
		})
	})

	testutil.Given(t, "one backing service is failing and one is unreachable", func(t *testing.T) {
		a := NewAggregator(quietLogger(),
			NewHTTPProbe("product", up.URL, nil),
			NewHTTPProbe("recommendation", down.URL, nil),
			NewHTTPProbe("review", "http://127.0.0.1:1", nil),
		)
		testutil.Then(t, "only those components are DOWN", func(t *testing.T) {
			report := a.Check(context.Background())
			assert.Equal(t, StatusDown, report.Status)
			assert.Equal(t, StatusUp, report.Components["product"])
			assert.Equal(t, StatusDown, report.Components["recommendation"])
			assert.Equal(t, StatusDown, report.Components["review"])
		})
	})
}

func TestAggregatorServeHTTP(t *testing.T) {
	ok := FuncProbe{ProbeName: "store", Fn: func(context.Context) error { return nil }}
	failing := FuncProbe{ProbeName: "bus", Fn: func(context.Context) error { return errors.New("down") }}

	rr := testutil.DoRequest(NewAggregator(quietLogger(), ok), testutil.NewRequest(t, http.MethodGet, "/health"))
	testutil.AssertStatusOK(t, rr)
	report := testutil.UnmarshalResponse[Report](t, rr)
	assert.Equal(t, StatusUp, report.Status)

	rr = testutil.DoRequest(NewAggregator(quietLogger(), ok, failing), testutil.NewRequest(t, http.MethodGet, "/health"))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	report = testutil.UnmarshalResponse[Report](t, rr)
	require.Len(t, report.Components, 2)
	assert.Equal(t, StatusDown, report.Components["bus"])
}

func TestAggregatorWithoutProbesIsUp(t *testing.T) {
	assert.Equal(t, StatusUp, NewAggregator(nil).Check(context.Background()).Status)
}

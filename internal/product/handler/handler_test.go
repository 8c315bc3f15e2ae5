package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"mosaic/internal/api"
	"mosaic/internal/product/handler"
	"mosaic/internal/product/service"
	"mosaic/internal/product/store"
	"mosaic/pkg/testutil"
)

func newRouter(roll int) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), "product/127.0.0.1:7001",
		service.WithLogger(logger),
		service.WithRoll(func() int { return roll }),
	)
	r := chi.NewRouter()
	handler.New(svc, logger).Register(r)
	return r
}

func TestProductEndpoints(t *testing.T) {
	router := newRouter(100)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/product", api.Product{ProductID: 1, Name: "n", Weight: 2}))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/product/1"))
	testutil.AssertStatusOK(t, rr)
	p := testutil.UnmarshalResponse[api.Product](t, rr)
	assert.Equal(t, api.Product{ProductID: 1, Name: "n", Weight: 2, ServiceAddress: "product/127.0.0.1:7001"}, *p)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/product", api.Product{ProductID: 1}))
	testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "Duplicate key, Product Id: 1")

	for range 2 {
		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/product/1"))
		testutil.AssertStatusOK(t, rr)
	}

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/product/1"))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "No product found for productId: 1")
}

func TestProductErrors(t *testing.T) {
	router := newRouter(1)

	cases := []struct {
		name    string
		path    string
		status  int
		message string
	}{
		{"malformed id", "/product/no-integer", http.StatusBadRequest, "Type mismatch for productId"},
		{"invalid id", "/product/-1", http.StatusUnprocessableEntity, "Invalid productId: -1"},
		{"malformed delay", "/product/1?delay=soon", http.StatusBadRequest, "Type mismatch for delay"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, tc.path))
			testutil.AssertStatusAndError(t, rr, tc.status, tc.message)
		})
	}

	t.Run("injected fault", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/product", api.Product{ProductID: 2}))
		testutil.AssertStatusOK(t, rr)
		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/product/2?faultPercent=100"))
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "Something very bad happened")
	})
}

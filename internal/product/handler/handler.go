package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mosaic/internal/api"
	"mosaic/pkg/platform/httputil"
	"mosaic/pkg/requestcontext"
)

// Service defines the product operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, p api.Product) (api.Product, error)
	Get(ctx context.Context, productID, delay, faultPercent int) (api.Product, error)
	Delete(ctx context.Context, productID int) error
}

// Handler serves the product endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the product routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/product/{productId}", h.handleGet)
	r.Post("/product", h.handleCreate)
	r.Delete("/product/{productId}", h.handleDelete)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, err := httputil.IntParam("productId", chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	delay, err := httputil.OptionalIntQuery(r, "delay", 0)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	faultPercent, err := httputil.OptionalIntQuery(r, "faultPercent", 0)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	p, err := h.service.Get(ctx, productID, delay, faultPercent)
	if err != nil {
		h.logger.WarnContext(ctx, "get product failed",
			"product_id", productID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body api.Product
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	p, err := h.service.Create(ctx, body)
	if err != nil {
		h.logger.WarnContext(ctx, "create product failed",
			"product_id", body.ProductID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.IntParam("productId", chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), productID); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

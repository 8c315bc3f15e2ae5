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

type Service interface {
	Create(ctx context.Context, r api.Review) (api.Review, error)
	List(ctx context.Context, productID int) ([]api.Review, error)
	DeleteByProduct(ctx context.Context, productID int) error
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/review", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Delete("/", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.RequiredIntQuery(r, "productId")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	recs, err := h.service.List(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recs)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body api.Review
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	created, err := h.service.Create(ctx, body)
	if err != nil {
		h.logger.WarnContext(ctx, "create review failed",
			"product_id", body.ProductID,
			"review_id", body.ReviewID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, created)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.RequiredIntQuery(r, "productId")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.service.DeleteByProduct(r.Context(), productID); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

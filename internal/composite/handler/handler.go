package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mosaic/internal/api"
	"mosaic/internal/auth"
	"mosaic/internal/platform/middleware"
	"mosaic/pkg/platform/httputil"
	"mosaic/pkg/requestcontext"
)

// Service defines the composite operations.
type Service interface {
	GetAggregate(ctx context.Context, principal auth.Principal, productID, delay, faultPercent int) (*api.ProductAggregate, error)
	CreateAggregate(ctx context.Context, principal auth.Principal, agg api.ProductAggregate) error
	DeleteAggregate(ctx context.Context, principal auth.Principal, productID int) error
}

// Handler serves the product-composite endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register mounts the composite routes on r. authenticate resolves the caller;
// nil leaves every request anonymous.
func (h *Handler) Register(r chi.Router, authenticate func(http.Handler) http.Handler) {
	compositeRouter := chi.NewRouter()
	if authenticate != nil {
		compositeRouter.Use(authenticate)
	}
	read := middleware.RequireScope(auth.ScopeRead, h.logger)
	write := middleware.RequireScope(auth.ScopeWrite, h.logger)

	compositeRouter.With(read).Get("/{productId}", h.handleGet)
	compositeRouter.With(write).Post("/", h.handleCreate)
	compositeRouter.With(write).Delete("/{productId}", h.handleDelete)

	r.Mount("/product-composite", compositeRouter)
}

// handleGet returns the aggregate for a product id.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

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

	agg, err := h.service.GetAggregate(ctx, auth.PrincipalFrom(ctx), productID, delay, faultPercent)
	if err != nil {
		h.logger.WarnContext(ctx, "get composite product failed",
			"product_id", productID,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, agg)
}

// handleCreate accepts an aggregate and dispatches its create commands.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var agg api.ProductAggregate
	if err := httputil.DecodeJSON(r, &agg); err != nil {
		h.logger.WarnContext(ctx, "invalid composite body", "error", err, "request_id", requestID)
		httputil.WriteError(w, r, err)
		return
	}

	if err := h.service.CreateAggregate(ctx, auth.PrincipalFrom(ctx), agg); err != nil {
		h.logger.ErrorContext(ctx, "create composite product failed",
			"product_id", agg.ProductID,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleDelete dispatches delete commands. Repeating it is harmless.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	productID, err := httputil.IntParam("productId", chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if err := h.service.DeleteAggregate(ctx, auth.PrincipalFrom(ctx), productID); err != nil {
		h.logger.ErrorContext(ctx, "delete composite product failed",
			"product_id", productID,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

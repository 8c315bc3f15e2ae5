// Package service implements the recommendation service.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mosaic/internal/api"
	"mosaic/internal/event"
	dErrors "mosaic/pkg/domain-errors"
	"mosaic/pkg/platform/sentinel"
)

type Store interface {
	Create(ctx context.Context, r api.Recommendation) error
	List(ctx context.Context, productID int) ([]api.Recommendation, error)
	DeleteByProduct(ctx context.Context, productID int) error
}

type Service struct {
	store   Store
	address string
	logger  *slog.Logger
}

func New(store Store, address string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, address: address, logger: logger}
}

func (s *Service) Create(ctx context.Context, r api.Recommendation) (api.Recommendation, error) {
	if r.ProductID < 1 {
		return api.Recommendation{}, dErrors.New(dErrors.CodeInvalidInput, api.InvalidProductIDMessage(r.ProductID))
	}
	r.ServiceAddress = ""
	if err := s.store.Create(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return api.Recommendation{}, dErrors.Wrap(err, dErrors.CodeInvalidInput,
				fmt.Sprintf("Duplicate key, Product Id: %d, Recommendation Id:%d", r.ProductID, r.RecommendationID))
		}
		return api.Recommendation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create recommendation")
	}
	s.logger.DebugContext(ctx, "createRecommendation: created a recommendation entity",
		"product_id", r.ProductID,
		"recommendation_id", r.RecommendationID,
	)
	return r, nil
}

// List returns the product's recommendations, each stamped with this instance's address.
func (s *Service) List(ctx context.Context, productID int) ([]api.Recommendation, error) {
	if productID < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, api.InvalidProductIDMessage(productID))
	}
	recs, err := s.store.List(ctx, productID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load recommendations")
	}
	for i := range recs {
		recs[i].ServiceAddress = s.address
	}
	s.logger.DebugContext(ctx, "getRecommendations: response size", "product_id", productID, "count", len(recs))
	return recs, nil
}

func (s *Service) DeleteByProduct(ctx context.Context, productID int) error {
	if productID < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, api.InvalidProductIDMessage(productID))
	}
	s.logger.DebugContext(ctx, "deleteRecommendations: tries to delete recommendations", "product_id", productID)
	if err := s.store.DeleteByProduct(ctx, productID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete recommendations")
	}
	return nil
}

// ApplyCreate implements event.Applier.
func (s *Service) ApplyCreate(ctx context.Context, env event.Envelope) error {
	var r api.Recommendation
	if err := env.DecodeData(&r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid recommendation payload")
	}
	_, err := s.Create(ctx, r)
	return err
}

// ApplyDelete implements event.Applier.
func (s *Service) ApplyDelete(ctx context.Context, productID int) error {
	return s.DeleteByProduct(ctx, productID)
}

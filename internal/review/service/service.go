// Package service implements the review service.
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
	Create(ctx context.Context, r api.Review) error
	List(ctx context.Context, productID int) ([]api.Review, error)
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

func (s *Service) Create(ctx context.Context, r api.Review) (api.Review, error) {
	if err := validateProductID(r.ProductID); err != nil {
		return api.Review{}, err
	}
	r.ServiceAddress = ""
	if err := s.store.Create(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return api.Review{}, dErrors.Wrap(err, dErrors.CodeInvalidInput,
				fmt.Sprintf("Duplicate key, Product Id: %d, Review Id:%d", r.ProductID, r.ReviewID))
		}
		return api.Review{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create review")
	}
	s.logger.DebugContext(ctx, "createReview: created a review entity", "product_id", r.ProductID, "review_id", r.ReviewID)
	return r, nil
}

func (s *Service) List(ctx context.Context, productID int) ([]api.Review, error) {
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	reviews, err := s.store.List(ctx, productID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reviews")
	}
	for i := range reviews {
		reviews[i].ServiceAddress = s.address
	}
	return reviews, nil
}

func (s *Service) DeleteByProduct(ctx context.Context, productID int) error {
	if err := validateProductID(productID); err != nil {
		return err
	}
	if err := s.store.DeleteByProduct(ctx, productID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete reviews")
	}
	return nil
}

func (s *Service) ApplyCreate(ctx context.Context, env event.Envelope) error {
	var r api.Review
	if err := env.DecodeData(&r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid review payload")
	}
	_, err := s.Create(ctx, r)
	return err
}

func (s *Service) ApplyDelete(ctx context.Context, productID int) error {
	return s.DeleteByProduct(ctx, productID)
}

func validateProductID(productID int) error {
	if productID < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, api.InvalidProductIDMessage(productID))
	}
	return nil
}

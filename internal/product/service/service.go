// Package service implements the product service: synchronous CRUD plus the
// command consumer side of the products topic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"mosaic/internal/api"
	"mosaic/internal/event"
	dErrors "mosaic/pkg/domain-errors"
	"mosaic/pkg/platform/sentinel"
)

type Store interface {
	Create(ctx context.Context, p api.Product) error
	Get(ctx context.Context, productID int) (api.Product, error)
	Delete(ctx context.Context, productID int) error
}

type Service struct {
	store   Store
	address string
	logger  *slog.Logger
	// roll returns a number in [1, 100] for fault injection.
	roll func() int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRoll replaces the fault injection dice.
func WithRoll(roll func() int) Option {
	return func(s *Service) {
		if roll != nil {
			s.roll = roll
		}
	}
}

// New builds the service. address is reported as the serviceAddress of every product served.
func New(store Store, address string, opts ...Option) *Service {
	s := &Service{
		store:   store,
		address: address,
		logger:  slog.Default(),
		roll:    func() int { return rand.IntN(100) + 1 },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, p api.Product) (api.Product, error) {
	if p.ProductID < 1 {
		return api.Product{}, dErrors.New(dErrors.CodeInvalidInput, api.InvalidProductIDMessage(p.ProductID))
	}
	p.ServiceAddress = ""
	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return api.Product{}, dErrors.Wrap(err, dErrors.CodeInvalidInput,
				fmt.Sprintf("Duplicate key, Product Id: %d", p.ProductID))
		}
		return api.Product{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create product")
	}
	s.logger.DebugContext(ctx, "createProduct: created a product entity", "product_id", p.ProductID)
	return p, nil
}

// Get looks up productID, then waits delay seconds, then fails with probability
// faultPercent. Delay and faults exist to exercise the gateway's resilience.
func (s *Service) Get(ctx context.Context, productID, delay, faultPercent int) (api.Product, error) {
	if productID < 1 {
		return api.Product{}, dErrors.New(dErrors.CodeInvalidInput, api.InvalidProductIDMessage(productID))
	}

	p, err := s.store.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return api.Product{}, dErrors.Wrap(err, dErrors.CodeNotFound,
				fmt.Sprintf("No product found for productId: %d", productID))
		}
		return api.Product{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
	}

	if err := s.simulateDelay(ctx, delay); err != nil {
		return api.Product{}, err
	}
	if err := s.throwIfBadLuck(ctx, faultPercent); err != nil {
		return api.Product{}, err
	}

	p.ServiceAddress = s.address
	return p, nil
}

func (s *Service) Delete(ctx context.Context, productID int) error {
	if productID < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, api.InvalidProductIDMessage(productID))
	}
	s.logger.DebugContext(ctx, "deleteProduct: tries to delete an entity", "product_id", productID)
	if err := s.store.Delete(ctx, productID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete product")
	}
	return nil
}

// ApplyCreate implements event.Applier.
func (s *Service) ApplyCreate(ctx context.Context, env event.Envelope) error {
	var p api.Product
	if err := env.DecodeData(&p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid product payload")
	}
	_, err := s.Create(ctx, p)
	return err
}

// ApplyDelete implements event.Applier.
func (s *Service) ApplyDelete(ctx context.Context, productID int) error {
	return s.Delete(ctx, productID)
}

func (s *Service) simulateDelay(ctx context.Context, seconds int) error {
	if seconds <= 0 {
		return nil
	}
	s.logger.DebugContext(ctx, "sleeping", "seconds", seconds)
	timer := time.NewTimer(time.Duration(seconds) * time.Second)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) throwIfBadLuck(ctx context.Context, faultPercent int) error {
	if faultPercent <= 0 {
		return nil
	}
	threshold := s.roll()
	if faultPercent < threshold {
		s.logger.DebugContext(ctx, "we got lucky, no error occurred", "fault_percent", faultPercent, "threshold", threshold)
		return nil
	}
	s.logger.DebugContext(ctx, "bad luck, an error occurred", "fault_percent", faultPercent, "threshold", threshold)
	return dErrors.WithStatus(http.StatusInternalServerError, "Something very bad happened")
}

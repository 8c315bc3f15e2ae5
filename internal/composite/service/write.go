package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mosaic/internal/api"
	"mosaic/internal/auth"
	"mosaic/internal/event"
	dErrors "mosaic/pkg/domain-errors"
)

// CreateAggregate dispatches one CREATE for the product and one per
// recommendation and review. An absent list dispatches nothing for its entity
// type. It returns once the transport has accepted every command.
func (s *Service) CreateAggregate(ctx context.Context, principal auth.Principal, agg api.ProductAggregate) error {
	s.logAuthorization(ctx, "createCompositeProduct", principal)

	id := agg.ProductID
	if id < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, api.InvalidProductIDMessage(id))
	}

	ctx, span := tracer.Start(ctx, "Service.CreateAggregate", trace.WithAttributes(attribute.Int("product.id", id)))
	defer span.End()

	now := s.now()
	if err := s.dispatchCreate(ctx, event.TopicProducts, id, api.Product{
		ProductID: id,
		Name:      agg.Name,
		Weight:    agg.Weight,
	}, now); err != nil {
		return err
	}

	if agg.Recommendations.Present() {
		for _, r := range agg.Recommendations.Items() {
			if err := s.dispatchCreate(ctx, event.TopicRecommendations, id, r.Recommendation(id), now); err != nil {
				return err
			}
		}
	}
	if agg.Reviews.Present() {
		for _, r := range agg.Reviews.Items() {
			if err := s.dispatchCreate(ctx, event.TopicReviews, id, r.Review(id), now); err != nil {
				return err
			}
		}
	}

	s.logger.DebugContext(ctx, "createCompositeProduct: composite entities created",
		"product_id", id,
		"recommendations", agg.Recommendations.Len(),
		"reviews", agg.Reviews.Len(),
	)
	return nil
}

// DeleteAggregate dispatches a DELETE on every entity topic. Deleting an
// unknown product is not an error.
func (s *Service) DeleteAggregate(ctx context.Context, principal auth.Principal, productID int) error {
	s.logAuthorization(ctx, "deleteCompositeProduct", principal)

	if productID < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, api.InvalidProductIDMessage(productID))
	}

	ctx, span := tracer.Start(ctx, "Service.DeleteAggregate", trace.WithAttributes(attribute.Int("product.id", productID)))
	defer span.End()

	env := event.NewDelete(productID, s.now())
	for _, topic := range event.Topics() {
		if err := s.dispatch(ctx, topic, env); err != nil {
			return err
		}
	}

	s.logger.DebugContext(ctx, "deleteCompositeProduct: aggregate entities deleted", "product_id", productID)
	return nil
}

func (s *Service) dispatchCreate(ctx context.Context, topic string, key int, data any, now time.Time) error {
	env, err := event.NewCreate(key, data, now)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode command")
	}
	return s.dispatch(ctx, topic, env)
}

func (s *Service) dispatch(ctx context.Context, topic string, env event.Envelope) error {
	if err := s.dispatcher.Dispatch(ctx, topic, env); err != nil {
		s.logger.ErrorContext(ctx, "command dispatch failed",
			"topic", topic,
			"type", env.Type,
			"key", env.Key,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "Message transport unavailable")
	}
	return nil
}

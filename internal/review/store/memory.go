// Package store persists reviews.
package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"mosaic/internal/api"
	"mosaic/pkg/platform/sentinel"
)

type reviewKey struct {
	productID int
	reviewID  int
}

// InMemory keeps reviews keyed by (product id, review id).
type InMemory struct {
	mu      sync.RWMutex
	reviews map[reviewKey]api.Review
}

func NewInMemory() *InMemory {
	return &InMemory{reviews: make(map[reviewKey]api.Review)}
}

func (s *InMemory) Create(_ context.Context, r api.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := reviewKey{r.ProductID, r.ReviewID}
	if _, ok := s.reviews[k]; ok {
		return fmt.Errorf("review %d/%d: %w", r.ProductID, r.ReviewID, sentinel.ErrConflict)
	}
	r.ServiceAddress = ""
	s.reviews[k] = r
	return nil
}

func (s *InMemory) List(_ context.Context, productID int) ([]api.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []api.Review{}
	for k, r := range s.reviews {
		if k.productID == productID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b api.Review) int { return cmp.Compare(a.ReviewID, b.ReviewID) })
	return out, nil
}

func (s *InMemory) DeleteByProduct(_ context.Context, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.reviews {
		if k.productID == productID {
			delete(s.reviews, k)
		}
	}
	return nil
}

func (s *InMemory) Ping(context.Context) error {
	return nil
}

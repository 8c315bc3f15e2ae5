// Package store persists recommendations.
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

// InMemory keeps recommendations grouped by product id.
type InMemory struct {
	mu    sync.RWMutex
	byKey map[int]map[int]api.Recommendation
}

func NewInMemory() *InMemory {
	return &InMemory{byKey: make(map[int]map[int]api.Recommendation)}
}

func (s *InMemory) Create(_ context.Context, r api.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, ok := s.byKey[r.ProductID]
	if !ok {
		recs = make(map[int]api.Recommendation)
		s.byKey[r.ProductID] = recs
	}
	if _, dup := recs[r.RecommendationID]; dup {
		return fmt.Errorf("recommendation %d/%d: %w", r.ProductID, r.RecommendationID, sentinel.ErrConflict)
	}
	r.ServiceAddress = ""
	recs[r.RecommendationID] = r
	return nil
}

// List returns the product's recommendations ordered by recommendation id.
func (s *InMemory) List(_ context.Context, productID int) ([]api.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Recommendation, 0, len(s.byKey[productID]))
	for _, r := range s.byKey[productID] {
		out = append(out, r)
	}
	sortByID(out)
	return out, nil
}

func (s *InMemory) DeleteByProduct(_ context.Context, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byKey, productID)
	return nil
}

func (s *InMemory) Ping(context.Context) error {
	return nil
}

func sortByID(recs []api.Recommendation) {
	slices.SortFunc(recs, func(a, b api.Recommendation) int {
		return cmp.Compare(a.RecommendationID, b.RecommendationID)
	})
}

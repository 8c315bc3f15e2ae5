// Package store persists products.
package store

import (
	"context"
	"fmt"
	"sync"

	"mosaic/internal/api"
	"mosaic/pkg/platform/sentinel"
)

// InMemory keeps products in a map keyed by product id.
type InMemory struct {
	mu       sync.RWMutex
	products map[int]api.Product
}

func NewInMemory() *InMemory {
	return &InMemory{products: make(map[int]api.Product)}
}

func (s *InMemory) Create(_ context.Context, p api.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ProductID]; ok {
		return fmt.Errorf("product %d: %w", p.ProductID, sentinel.ErrConflict)
	}
	p.ServiceAddress = ""
	s.products[p.ProductID] = p
	return nil
}

func (s *InMemory) Get(_ context.Context, productID int) (api.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productID]
	if !ok {
		return api.Product{}, fmt.Errorf("product %d: %w", productID, sentinel.ErrNotFound)
	}
	return p, nil
}

func (s *InMemory) Delete(_ context.Context, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, productID)
	return nil
}

func (s *InMemory) Ping(context.Context) error {
	return nil
}

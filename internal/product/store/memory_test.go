package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"mosaic/internal/api"
	"mosaic/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) TestCreateAndGet() {
	s.Require().NoError(s.store.Create(s.ctx, api.Product{ProductID: 1, Name: "n", Weight: 2, ServiceAddress: "addr"}))

	p, err := s.store.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(api.Product{ProductID: 1, Name: "n", Weight: 2}, p, "service address is not persisted")

	_, err = s.store.Get(s.ctx, 2)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestDuplicateIsConflict() {
	s.Require().NoError(s.store.Create(s.ctx, api.Product{ProductID: 1}))
	s.ErrorIs(s.store.Create(s.ctx, api.Product{ProductID: 1}), sentinel.ErrConflict)
}

func (s *InMemorySuite) TestDeleteIsIdempotent() {
	s.Require().NoError(s.store.Create(s.ctx, api.Product{ProductID: 1}))
	s.Require().NoError(s.store.Delete(s.ctx, 1))
	s.Require().NoError(s.store.Delete(s.ctx, 1))
	_, err := s.store.Get(s.ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

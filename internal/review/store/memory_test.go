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

func (s *InMemorySuite) TestListIsOrderedAndScopedToProduct() {
	for _, id := range []int{2, 3, 1} {
		s.Require().NoError(s.store.Create(s.ctx, api.Review{ProductID: 1, ReviewID: id, ServiceAddress: "addr"}))
	}
	s.Require().NoError(s.store.Create(s.ctx, api.Review{ProductID: 2, ReviewID: 1}))

	reviews, err := s.store.List(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(reviews, 3)
	for i, r := range reviews {
		s.Equal(i+1, r.ReviewID)
		s.Empty(r.ServiceAddress)
	}
}

func (s *InMemorySuite) TestDuplicateIsConflict() {
	s.Require().NoError(s.store.Create(s.ctx, api.Review{ProductID: 1, ReviewID: 1}))
	s.ErrorIs(s.store.Create(s.ctx, api.Review{ProductID: 1, ReviewID: 1}), sentinel.ErrConflict)
}

func (s *InMemorySuite) TestDeleteByProductLeavesOthers() {
	s.Require().NoError(s.store.Create(s.ctx, api.Review{ProductID: 1, ReviewID: 1}))
	s.Require().NoError(s.store.Create(s.ctx, api.Review{ProductID: 2, ReviewID: 1}))
	s.Require().NoError(s.store.DeleteByProduct(s.ctx, 1))
	s.Require().NoError(s.store.DeleteByProduct(s.ctx, 1))

	reviews, err := s.store.List(s.ctx, 1)
	s.Require().NoError(err)
	s.NotNil(reviews)
	s.Empty(reviews)

	reviews, err = s.store.List(s.ctx, 2)
	s.Require().NoError(err)
	s.Len(reviews, 1)
}

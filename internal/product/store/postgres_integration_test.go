//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"mosaic/internal/api"
	"mosaic/internal/product/store"
	"mosaic/pkg/platform/sentinel"
	"mosaic/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.Pool)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "products"))
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, api.Product{ProductID: 1, Name: "n", Weight: 3}))

	p, err := s.store.Get(ctx, 1)
	s.Require().NoError(err)
	s.Equal(api.Product{ProductID: 1, Name: "n", Weight: 3}, p)

	s.Require().NoError(s.store.Delete(ctx, 1))
	s.Require().NoError(s.store.Delete(ctx, 1))
	_, err = s.store.Get(ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentDuplicateCreates verifies the primary key lets exactly one insert win.
func (s *PostgresStoreSuite) TestConcurrentDuplicateCreates() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, api.Product{ProductID: 42, Name: "race"})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaic/internal/api"
	"mosaic/internal/event"
	"mosaic/internal/product/store"
	dErrors "mosaic/pkg/domain-errors"
	"mosaic/pkg/testutil"
)

func newTestService(roll int) *Service {
	return New(store.NewInMemory(), "product/10.0.0.2:7001",
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRoll(func() int { return roll }),
	)
}

func TestProductLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(100)

	testutil.Given(t, "a created product", func(t *testing.T) {
		created, err := svc.Create(ctx, api.Product{ProductID: 1, Name: "n", Weight: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, created.ProductID)

		testutil.When(t, "it is fetched", func(t *testing.T) {
			p, err := svc.Get(ctx, 1, 0, 0)
			require.NoError(t, err)
			testutil.Then(t, "it carries this instance's address", func(t *testing.T) {
				assert.Equal(t, "product/10.0.0.2:7001", p.ServiceAddress)
			})
		})

		testutil.When(t, "it is created again", func(t *testing.T) {
			_, err := svc.Create(ctx, api.Product{ProductID: 1})
			testutil.Then(t, "the duplicate is invalid input", func(t *testing.T) {
				de, ok := dErrors.As(err)
				require.True(t, ok)
				assert.Equal(t, dErrors.CodeInvalidInput, de.Code)
				assert.Equal(t, "Duplicate key, Product Id: 1", de.Message)
			})
		})

		testutil.When(t, "it is deleted twice", func(t *testing.T) {
			require.NoError(t, svc.Delete(ctx, 1))
			require.NoError(t, svc.Delete(ctx, 1))
			_, err := svc.Get(ctx, 1, 0, 0)
			testutil.Then(t, "it is gone", func(t *testing.T) {
				de, ok := dErrors.As(err)
				require.True(t, ok)
				assert.Equal(t, dErrors.CodeNotFound, de.Code)
				assert.Equal(t, "No product found for productId: 1", de.Message)
			})
		})
	})
}

func TestInvalidProductID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(100)

	_, err := svc.Get(ctx, 0, 0, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	_, err = svc.Create(ctx, api.Product{ProductID: -1})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.True(t, dErrors.HasCode(svc.Delete(ctx, 0), dErrors.CodeInvalidInput))
}

func TestFaultInjection(t *testing.T) {
	ctx := context.Background()

	lucky := newTestService(51)
	_, err := lucky.Create(ctx, api.Product{ProductID: 1})
	require.NoError(t, err)
	_, err = lucky.Get(ctx, 1, 0, 50)
	assert.NoError(t, err, "fault percent below the roll passes")

	unlucky := newTestService(50)
	_, err = unlucky.Create(ctx, api.Product{ProductID: 1})
	require.NoError(t, err)
	_, err = unlucky.Get(ctx, 1, 0, 50)
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus())
	assert.Equal(t, "Something very bad happened", de.Message)
}

func TestDelayHonoursCancellation(t *testing.T) {
	svc := newTestService(100)
	_, err := svc.Create(context.Background(), api.Product{ProductID: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = svc.Get(ctx, 1, 10, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestApplier(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(100)

	env, err := event.NewCreate(3, api.Product{ProductID: 3, Name: "n", Weight: 3}, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.ApplyCreate(ctx, env))
	assert.True(t, dErrors.HasCode(svc.ApplyCreate(ctx, env), dErrors.CodeInvalidInput))

	p, err := svc.Get(ctx, 3, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "n", p.Name)

	require.NoError(t, svc.ApplyDelete(ctx, 3))
	require.NoError(t, svc.ApplyDelete(ctx, 3))

	assert.True(t, dErrors.HasCode(svc.ApplyCreate(ctx, event.NewDelete(3, time.Now())), dErrors.CodeBadRequest))
}

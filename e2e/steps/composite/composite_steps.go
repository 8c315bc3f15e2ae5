package composite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	DELETE(path string) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// settleTimeout bounds how long a scenario waits for commands to be applied.
const settleTimeout = 15 * time.Second

// RegisterSteps registers composite gateway step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &compositeSteps{tc: tc}

	ctx.Step(`^a product (\d+) named "([^"]*)" with (\d+) recommendations and (\d+) reviews$`, steps.createAggregate)
	ctx.Step(`^a product (\d+) named "([^"]*)" without dependents$`, steps.createBareAggregate)
	ctx.Step(`^product (\d+) does not exist$`, steps.deleteAggregate)
	ctx.Step(`^eventually product (\d+) is served with (\d+) recommendations and (\d+) reviews$`, steps.eventuallyServed)
	ctx.Step(`^eventually product (\d+) is not found$`, steps.eventuallyNotFound)
}

type compositeSteps struct {
	tc TestContext
}

type aggregate struct {
	ProductID       int              `json:"productId"`
	Name            string           `json:"name"`
	Weight          int              `json:"weight"`
	Recommendations []map[string]any `json:"recommendations,omitempty"`
	Reviews         []map[string]any `json:"reviews,omitempty"`
}

func (s *compositeSteps) createAggregate(ctx context.Context, productID int, name string, recs, reviews int) error {
	agg := aggregate{ProductID: productID, Name: name, Weight: productID}
	for i := 1; i <= recs; i++ {
		agg.Recommendations = append(agg.Recommendations, map[string]any{
			"recommendationId": i, "author": "author", "rate": i, "content": "content",
		})
	}
	for i := 1; i <= reviews; i++ {
		agg.Reviews = append(agg.Reviews, map[string]any{
			"reviewId": i, "author": "author", "subject": "subject", "content": "content",
		})
	}
	if err := s.tc.POST("/product-composite", agg); err != nil {
		return err
	}
	return s.expectStatus(202)
}

func (s *compositeSteps) createBareAggregate(ctx context.Context, productID int, name string) error {
	return s.createAggregate(ctx, productID, name, 0, 0)
}

func (s *compositeSteps) deleteAggregate(ctx context.Context, productID int) error {
	if err := s.tc.DELETE(fmt.Sprintf("/product-composite/%d", productID)); err != nil {
		return err
	}
	if err := s.expectStatus(200); err != nil {
		return err
	}
	return s.eventuallyNotFound(ctx, productID)
}

func (s *compositeSteps) eventuallyServed(ctx context.Context, productID, recs, reviews int) error {
	return s.poll(func() error {
		if err := s.tc.GET(fmt.Sprintf("/product-composite/%d", productID), nil); err != nil {
			return err
		}
		if err := s.expectStatus(200); err != nil {
			return err
		}
		var got aggregate
		if err := json.Unmarshal(s.tc.GetLastResponseBody(), &got); err != nil {
			return err
		}
		if len(got.Recommendations) != recs || len(got.Reviews) != reviews {
			return fmt.Errorf("have %d recommendations and %d reviews", len(got.Recommendations), len(got.Reviews))
		}
		return nil
	})
}

func (s *compositeSteps) eventuallyNotFound(ctx context.Context, productID int) error {
	return s.poll(func() error {
		if err := s.tc.GET(fmt.Sprintf("/product-composite/%d", productID), nil); err != nil {
			return err
		}
		return s.expectStatus(404)
	})
}

func (s *compositeSteps) expectStatus(status int) error {
	if got := s.tc.GetLastResponseStatus(); got != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, got, s.tc.GetLastResponseBody())
	}
	return nil
}

// poll retries check until it passes or settleTimeout elapses; the write path
// is asynchronous.
func (s *compositeSteps) poll(check func() error) error {
	deadline := time.Now().Add(settleTimeout)
	for {
		err := check()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("not settled after %s: %w", settleTimeout, err)
		}
		time.Sleep(250 * time.Millisecond)
	}
}

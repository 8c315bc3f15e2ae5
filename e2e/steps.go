package e2e

import (
	"github.com/cucumber/godog"

	"mosaic/e2e/steps/common"
	"mosaic/e2e/steps/composite"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register composite gateway steps
	composite.RegisterSteps(ctx, tc)
}

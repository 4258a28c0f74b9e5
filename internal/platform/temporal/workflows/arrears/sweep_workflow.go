package arrears

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/mikopo/internal/domains/loans/ports"
	"github.com/Apurer/mikopo/internal/platform/temporal/sequences"
)

const (
	// SweepWorkflowName is the public identifier for registering the workflow.
	SweepWorkflowName = "loans.workflows.ArrearsSweep"
	// SweepTaskQueue is the queue consumed by the worker processing sweeps.
	SweepTaskQueue = "ARREARS_SWEEP"
)

// SweepWorkflowInput selects the sweep date. A nil AsOf means "today" in
// Timezone at the moment the run starts, which is what cron runs use.
type SweepWorkflowInput struct {
	AsOf     *civil.Date
	Timezone string
}

// SweepWorkflow resolves the business date and runs the arrears sweep.
func SweepWorkflow(ctx workflow.Context, input SweepWorkflowInput) (*ports.SweepResult, error) {
	logger := workflow.GetLogger(ctx)
	asOf, err := resolveAsOf(ctx, input)
	if err != nil {
		logger.Error("SweepWorkflow cannot resolve date", "timezone", input.Timezone, "error", err)
		return nil, err
	}
	logger.Info("SweepWorkflow started", "asOf", asOf.String())
	result, err := sequences.RunArrearsSweepSequence(ctx, asOf)
	if err != nil {
		logger.Error("SweepWorkflow failed", "asOf", asOf.String(), "error", err)
		return nil, err
	}
	logger.Info("SweepWorkflow completed", "asOf", asOf.String(), "arrears", result.Arrears)
	return result, nil
}

func resolveAsOf(ctx workflow.Context, input SweepWorkflowInput) (civil.Date, error) {
	if input.AsOf != nil {
		if !input.AsOf.IsValid() {
			return civil.Date{}, fmt.Errorf("invalid sweep date %q", input.AsOf.String())
		}
		return *input.AsOf, nil
	}
	loc := time.UTC
	if input.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(input.Timezone); err != nil {
			return civil.Date{}, err
		}
	}
	return civil.DateOf(workflow.Now(ctx).In(loc)), nil
}

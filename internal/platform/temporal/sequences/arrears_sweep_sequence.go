package sequences

import (
	"time"

	"cloud.google.com/go/civil"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/mikopo/internal/domains/loans/ports"
	arrearsactivities "github.com/Apurer/mikopo/internal/platform/temporal/activities/arrears"
)

// RunArrearsSweepSequence executes the sweep activity for asOf with retries.
func RunArrearsSweepSequence(ctx workflow.Context, asOf civil.Date) (*ports.SweepResult, error) {
	logger := workflow.GetLogger(ctx)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	}
	var result ports.SweepResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), arrearsactivities.SweepArrearsActivityName, asOf).Get(ctx, &result)
	if err != nil {
		logger.Error("arrears sweep sequence failed", "asOf", asOf.String(), "error", err)
		return nil, err
	}
	logger.Info("arrears sweep sequence finished", "asOf", asOf.String(), "reminders", result.Reminders)
	return &result, nil
}

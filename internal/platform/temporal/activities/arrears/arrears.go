package arrears

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"
	"go.temporal.io/sdk/activity"

	"github.com/Apurer/mikopo/internal/domains/loans/ports"
)

// SweepArrearsActivityName computes arrears and publishes reminders for one date.
const SweepArrearsActivityName = "loans.activities.SweepArrears"

// Activities groups activities that operate on the loans bounded context.
type Activities struct {
	service ports.Service
}

func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// SweepArrears runs one sweep. Reminder ids are deterministic so a retried
// attempt republishes the same messages.
func (a *Activities) SweepArrears(ctx context.Context, asOf civil.Date) (*ports.SweepResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("arrears sweep activity not initialized", "asOf", asOf.String())
		return nil, errors.New("arrears sweep activity not initialized")
	}
	logger.Info("SweepArrears activity started", "asOf", asOf.String(), "attempt", activity.GetInfo(ctx).Attempt)
	result, err := a.service.SweepArrears(ctx, asOf)
	if err != nil {
		logger.Error("SweepArrears activity failed", "asOf", asOf.String(), "error", err)
		return nil, err
	}
	logger.Info("SweepArrears activity completed",
		"asOf", asOf.String(), "arrears", result.Arrears, "reminders", result.Reminders, "skipped", result.Skipped)
	return result, nil
}

package ports

import (
	"context"

	"cloud.google.com/go/civil"
)

// SweepOrchestrator runs arrears sweeps, durably or inline.
type SweepOrchestrator interface {
	RunSweep(ctx context.Context, asOf civil.Date) (*SweepResult, error)
}

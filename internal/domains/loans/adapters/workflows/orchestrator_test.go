package workflows

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	loanmemory "github.com/Apurer/mikopo/internal/domains/loans/adapters/memory"
	"github.com/Apurer/mikopo/internal/domains/loans/application"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
	arrearsworkflows "github.com/Apurer/mikopo/internal/platform/temporal/workflows/arrears"
)

var sweepDate = civil.Date{Year: 2025, Month: time.March, Day: 15}

func completedRun(result ports.SweepResult) *mocks.WorkflowRun {
	run := &mocks.WorkflowRun{}
	run.On("Get", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		*args.Get(1).(*ports.SweepResult) = result
	})
	return run
}

func TestTemporalSweepOrchestrator_StartsDatedWorkflow(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.ID == "arrears-sweep-2025-03-15" && o.TaskQueue == arrearsworkflows.SweepTaskQueue
		}),
		arrearsworkflows.SweepWorkflowName,
		mock.Anything,
	).Return(completedRun(ports.SweepResult{AsOf: sweepDate, Reminders: 4}), nil)

	result, err := NewTemporalSweepOrchestrator(c, "Africa/Nairobi").RunSweep(context.Background(), sweepDate)
	require.NoError(t, err)
	require.Equal(t, 4, result.Reminders)
	c.AssertExpectations(t)
}

func TestTemporalSweepOrchestrator_JoinsRunningSweep(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("running", "req", "run-1"))
	c.On("GetWorkflow", mock.Anything, "arrears-sweep-2025-03-15", "run-1").
		Return(completedRun(ports.SweepResult{AsOf: sweepDate, Arrears: 1}))

	result, err := NewTemporalSweepOrchestrator(c, "").RunSweep(context.Background(), sweepDate)
	require.NoError(t, err)
	require.Equal(t, 1, result.Arrears)
}

func TestTemporalSweepOrchestrator_EnsureCronSweepIsIdempotent(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.ID == CronSweepWorkflowID && o.CronSchedule == "CRON_TZ=Africa/Nairobi 0 3 * * *"
		}),
		arrearsworkflows.SweepWorkflowName,
		mock.Anything,
	).Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("running", "req", "run-1"))

	require.NoError(t, NewTemporalSweepOrchestrator(c, "Africa/Nairobi").EnsureCronSweep(context.Background(), "0 3 * * *"))
}

func TestCronSchedule(t *testing.T) {
	require.Equal(t, "0 3 * * *", CronSchedule(" 0 3 * * * ", ""))
	require.Equal(t, "CRON_TZ=UTC 0 3 * * *", CronSchedule("CRON_TZ=UTC 0 3 * * *", "Africa/Nairobi"))
}

func TestInlineSweepOrchestrator(t *testing.T) {
	svc := application.NewService(loanmemory.NewRepository(), nil, time.UTC)
	result, err := NewInlineSweepOrchestrator(svc).RunSweep(context.Background(), sweepDate)
	require.NoError(t, err)
	require.Equal(t, sweepDate, result.AsOf)
	require.Zero(t, result.Reminders)

	var unset *InlineSweepOrchestrator
	_, err = unset.RunSweep(context.Background(), sweepDate)
	require.Error(t, err)
}

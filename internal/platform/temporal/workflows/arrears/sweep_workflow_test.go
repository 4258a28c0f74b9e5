package arrears

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/Apurer/mikopo/internal/domains/loans/ports"
	arrearsactivities "github.com/Apurer/mikopo/internal/platform/temporal/activities/arrears"
)

func registerSweep(env *testsuite.TestWorkflowEnvironment, seen *[]civil.Date, failures int) {
	calls := 0
	env.RegisterActivityWithOptions(func(_ context.Context, asOf civil.Date) (*ports.SweepResult, error) {
		calls++
		if calls <= failures {
			return nil, errors.New("broker unavailable")
		}
		*seen = append(*seen, asOf)
		return &ports.SweepResult{AsOf: asOf, Arrears: 2, Reminders: 3}, nil
	}, activity.RegisterOptions{Name: arrearsactivities.SweepArrearsActivityName})
}

func TestSweepWorkflow_UsesExplicitDate(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	var seen []civil.Date
	registerSweep(env, &seen, 0)

	asOf := civil.Date{Year: 2025, Month: time.March, Day: 15}
	env.ExecuteWorkflow(SweepWorkflow, SweepWorkflowInput{AsOf: &asOf})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var result ports.SweepResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, 3, result.Reminders)
	require.Equal(t, []civil.Date{asOf}, seen)
}

func TestSweepWorkflow_ResolvesTodayInBusinessTimezone(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	var seen []civil.Date
	registerSweep(env, &seen, 0)

	// 22:30 UTC on the 14th is already the 15th in Nairobi (UTC+3).
	env.SetStartTime(time.Date(2025, 3, 14, 22, 30, 0, 0, time.UTC))
	env.ExecuteWorkflow(SweepWorkflow, SweepWorkflowInput{Timezone: "Africa/Nairobi"})

	require.NoError(t, env.GetWorkflowError())
	require.Equal(t, []civil.Date{{Year: 2025, Month: time.March, Day: 15}}, seen)
}

func TestSweepWorkflow_RetriesActivity(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	var seen []civil.Date
	registerSweep(env, &seen, 2)

	asOf := civil.Date{Year: 2025, Month: time.March, Day: 15}
	env.ExecuteWorkflow(SweepWorkflow, SweepWorkflowInput{AsOf: &asOf})

	require.NoError(t, env.GetWorkflowError())
	require.Len(t, seen, 1)
}

func TestSweepWorkflow_RejectsUnknownTimezone(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	var seen []civil.Date
	registerSweep(env, &seen, 0)

	env.ExecuteWorkflow(SweepWorkflow, SweepWorkflowInput{Timezone: "Mars/Olympus"})
	require.Error(t, env.GetWorkflowError())
	require.Empty(t, seen)
}

package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/mikopo/internal/domains/loans/ports"
	arrearsworkflows "github.com/Apurer/mikopo/internal/platform/temporal/workflows/arrears"
)

// CronSweepWorkflowID identifies the single scheduled sweep.
const CronSweepWorkflowID = "arrears-sweep-cron"

var (
	_ ports.SweepOrchestrator = (*TemporalSweepOrchestrator)(nil)
	_ ports.SweepOrchestrator = (*InlineSweepOrchestrator)(nil)
)

// TemporalSweepOrchestrator runs arrears sweeps as Temporal workflows.
type TemporalSweepOrchestrator struct {
	client    client.Client
	taskQueue string
	timezone  string
}

// NewTemporalSweepOrchestrator wires a Temporal client. timezone is the IANA
// name used by cron runs to pick the business date.
func NewTemporalSweepOrchestrator(c client.Client, timezone string) *TemporalSweepOrchestrator {
	return &TemporalSweepOrchestrator{client: c, taskQueue: arrearsworkflows.SweepTaskQueue, timezone: timezone}
}

// RunSweep starts (or joins) the sweep for asOf and waits for its result.
// The workflow id is derived from the date so concurrent requests share one run.
func (o *TemporalSweepOrchestrator) RunSweep(ctx context.Context, asOf civil.Date) (*ports.SweepResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal sweep orchestrator not configured")
	}
	workflowID := SweepWorkflowID(asOf)
	options := client.StartWorkflowOptions{
		ID:                                       workflowID,
		TaskQueue:                                o.taskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	input := arrearsworkflows.SweepWorkflowInput{AsOf: &asOf, Timezone: o.timezone}
	run, err := o.client.ExecuteWorkflow(ctx, options, arrearsworkflows.SweepWorkflowName, input)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var result ports.SweepResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EnsureCronSweep registers the daily sweep. An already running cron
// workflow is left untouched.
func (o *TemporalSweepOrchestrator) EnsureCronSweep(ctx context.Context, cron string) error {
	if o == nil || o.client == nil {
		return errors.New("temporal sweep orchestrator not configured")
	}
	options := client.StartWorkflowOptions{
		ID:                                       CronSweepWorkflowID,
		TaskQueue:                                o.taskQueue,
		CronSchedule:                             CronSchedule(cron, o.timezone),
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	_, err := o.client.ExecuteWorkflow(ctx, options, arrearsworkflows.SweepWorkflowName,
		arrearsworkflows.SweepWorkflowInput{Timezone: o.timezone})
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return nil
	}
	return err
}

// SweepWorkflowID is the workflow id of the on-demand sweep for asOf.
func SweepWorkflowID(asOf civil.Date) string {
	return fmt.Sprintf("arrears-sweep-%s", asOf.String())
}

// CronSchedule prefixes cron with CRON_TZ so Temporal fires it in the business timezone.
func CronSchedule(cron, timezone string) string {
	cron = strings.TrimSpace(cron)
	if timezone == "" || strings.HasPrefix(cron, "CRON_TZ=") {
		return cron
	}
	return "CRON_TZ=" + timezone + " " + cron
}

// InlineSweepOrchestrator runs sweeps in-process, useful for tests or when Temporal is unavailable.
type InlineSweepOrchestrator struct {
	service ports.Service
}

func NewInlineSweepOrchestrator(service ports.Service) *InlineSweepOrchestrator {
	return &InlineSweepOrchestrator{service: service}
}

func (o *InlineSweepOrchestrator) RunSweep(ctx context.Context, asOf civil.Date) (*ports.SweepResult, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline sweep orchestrator not configured")
	}
	return o.service.SweepArrears(ctx, asOf)
}

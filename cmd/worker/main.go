package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/mikopo/internal/app/bootstrap"
	loanworkflows "github.com/Apurer/mikopo/internal/domains/loans/adapters/workflows"
	"github.com/Apurer/mikopo/internal/platform/config"
	arrearsactivities "github.com/Apurer/mikopo/internal/platform/temporal/activities/arrears"
	arrearsworkflows "github.com/Apurer/mikopo/internal/platform/temporal/workflows/arrears"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{ServiceName: "mikopo-worker"})
	if err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}
	defer app.Close()
	logger := app.Logger

	temporalClient, err := bootstrap.DialTemporal(cfg, app.Instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		app.Close()
		os.Exit(1)
	}
	defer temporalClient.Close()

	activities := arrearsactivities.NewActivities(app.Service)
	w := worker.New(temporalClient, arrearsworkflows.SweepTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(arrearsworkflows.SweepWorkflow, workflow.RegisterOptions{Name: arrearsworkflows.SweepWorkflowName})
	w.RegisterActivityWithOptions(activities.SweepArrears, activity.RegisterOptions{Name: arrearsactivities.SweepArrearsActivityName})

	orchestrator := loanworkflows.NewTemporalSweepOrchestrator(temporalClient, cfg.BusinessTimezone)
	if err := orchestrator.EnsureCronSweep(ctx, cfg.ArrearsSweepCron); err != nil {
		logger.Error("failed to schedule arrears sweep", slog.String("error", err.Error()))
	} else {
		logger.Info("arrears sweep scheduled",
			slog.String("cron", loanworkflows.CronSchedule(cfg.ArrearsSweepCron, cfg.BusinessTimezone)))
	}

	logger.Info("worker listening", slog.String("taskQueue", arrearsworkflows.SweepTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

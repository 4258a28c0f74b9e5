package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	mikoposerver "github.com/Apurer/mikopo/go"
	"github.com/Apurer/mikopo/internal/app/bootstrap"
	loanworkflows "github.com/Apurer/mikopo/internal/domains/loans/adapters/workflows"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
	"github.com/Apurer/mikopo/internal/platform/config"
)

const serviceName = "mikopo-api"

// Run boots the loans HTTP API with observability, storage, reminders and sweeps wired.
// It returns when ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{ServiceName: serviceName})
	if err != nil {
		return err
	}
	defer app.Close()
	logger := app.Logger

	var sweeps ports.SweepOrchestrator = loanworkflows.NewInlineSweepOrchestrator(app.Service)
	if temporalClient, err := bootstrap.DialTemporal(cfg, app.Instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, running arrears sweeps inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		sweeps = loanworkflows.NewTemporalSweepOrchestrator(temporalClient, cfg.BusinessTimezone)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	calendar := mikoposerver.BusinessCalendar{Location: cfg.Location()}
	router := mikoposerver.NewRouter(mikoposerver.Handlers{
		Customers: mikoposerver.NewCustomerAPI(app.Service),
		Loans:     mikoposerver.NewLoanAPI(app.Service, calendar),
		Reports:   mikoposerver.NewReportAPI(app.Service, sweeps, calendar),
	}, otelgin.Middleware(serviceName))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Mikopo API listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Mikopo API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("Mikopo API stopped")
		return nil
	}
}

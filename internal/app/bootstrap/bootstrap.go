// Package bootstrap assembles the loans service and its infrastructure for
// the API, the Temporal worker and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	loanmemory "github.com/Apurer/mikopo/internal/domains/loans/adapters/memory"
	"github.com/Apurer/mikopo/internal/domains/loans/adapters/notify"
	loansobs "github.com/Apurer/mikopo/internal/domains/loans/adapters/observability"
	loanspostgres "github.com/Apurer/mikopo/internal/domains/loans/adapters/persistence/postgres"
	"github.com/Apurer/mikopo/internal/domains/loans/application"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
	platformamqp "github.com/Apurer/mikopo/internal/platform/amqp"
	"github.com/Apurer/mikopo/internal/platform/config"
	platformobservability "github.com/Apurer/mikopo/internal/platform/observability"
	platformpostgres "github.com/Apurer/mikopo/internal/platform/postgres"
)

// Options tunes the assembly per binary.
type Options struct {
	ServiceName string
	// LogOutput overrides where JSON logs go; nil means stdout.
	LogOutput io.Writer
	// OneShot disables trace export and reminder publishing, for read-only commands.
	OneShot bool
}

// App holds the wired loans service and everything that must be closed with it.
type App struct {
	Config      config.Config
	Logger      *slog.Logger
	Instruments *platformobservability.Instruments
	Repository  ports.Repository
	Service     ports.Service
	closers     []func()
}

// New wires observability, storage, reminders and the decorated loans service.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.Settings{
		ServiceName:        opts.ServiceName,
		Environment:        cfg.Environment,
		LogOutput:          opts.LogOutput,
		DisableTraceExport: opts.OneShot,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	app := &App{Config: cfg, Logger: instruments.Logger, Instruments: instruments}
	app.closers = append(app.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	})

	db, closeDB, err := platformpostgres.Open(ctx, cfg.PostgresDSN, app.Logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeDB)
	if db != nil {
		app.Repository = loanspostgres.NewRepository(db)
	} else {
		app.Repository = loanmemory.NewRepository()
	}

	reminders, err := app.reminderPublisher(opts.OneShot)
	if err != nil {
		app.Close()
		return nil, err
	}

	core := application.NewService(app.Repository, reminders, cfg.Location())
	app.Service = loansobs.New(core,
		loansobs.WithLogger(app.Logger),
		loansobs.WithTracer(instruments.Tracer("internal.loans.application")),
		loansobs.WithMeter(instruments.Meter("internal.loans.application")),
	)
	return app, nil
}

func (a *App) reminderPublisher(oneShot bool) (ports.ReminderPublisher, error) {
	if oneShot {
		return ports.NoopReminderPublisher, nil
	}
	if a.Config.AMQPURL == "" {
		a.Logger.Warn("AMQP_URL not set, arrears reminders are only logged")
		return notify.NewLogPublisher(a.Logger), nil
	}
	client, err := platformamqp.Dial(a.Config.AMQPURL, a.Config.AMQPExchange, a.Config.AMQPReminderQueue)
	if err != nil {
		return nil, fmt.Errorf("connect reminder queue: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.Logger.Info("arrears reminders published to AMQP",
		slog.String("exchange", a.Config.AMQPExchange), slog.String("queue", a.Config.AMQPReminderQueue))
	return notify.NewQueuePublisher(client), nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// DialTemporal connects a Temporal client with tracing and structured logging.
func DialTemporal(cfg config.Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(tracerName),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

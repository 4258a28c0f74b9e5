package bootstrap

import (
	"bytes"
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	loanmemory "github.com/Apurer/mikopo/internal/domains/loans/adapters/memory"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
	"github.com/Apurer/mikopo/internal/platform/config"
)

func TestNew_FallsBackToMemoryAndLogPublisher(t *testing.T) {
	var logs bytes.Buffer
	cfg := config.Config{Port: "8080", BusinessTimezone: "Africa/Nairobi", ArrearsSweepCron: "0 3 * * *", TemporalDisabled: true}
	app, err := New(context.Background(), cfg, Options{ServiceName: "mikopo-test", LogOutput: &logs})
	require.NoError(t, err)
	defer app.Close()

	require.IsType(t, &loanmemory.Repository{}, app.Repository)
	require.Contains(t, logs.String(), "AMQP_URL not set")

	report, err := app.Service.ListLoansInArrears(context.Background(), ports.ArrearsQuery{
		AsOf: civil.Date{Year: 2025, Month: time.March, Day: 15},
	})
	require.NoError(t, err)
	require.Empty(t, report.Records)

	_, err = DialTemporal(cfg, app.Instruments, "test")
	require.ErrorContains(t, err, "TEMPORAL_DISABLED")
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/Apurer/mikopo/internal/app/bootstrap"
	loanmapper "github.com/Apurer/mikopo/internal/domains/loans/adapters/http/mapper"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
	"github.com/Apurer/mikopo/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type reportFlags struct {
	asOf     string
	officeID int64
}

func newRootCmd() *cobra.Command {
	flags := &reportFlags{}
	root := &cobra.Command{
		Use:          "arrears-report",
		Short:        "Print loans in arrears as JSON",
		Long:         "Compute the arrears report for a business date and print it as JSON on stdout. Logs go to stderr.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, flags, func(ctx context.Context, svc ports.Service, asOf civil.Date) (any, error) {
				report, err := svc.ListLoansInArrears(ctx, ports.ArrearsQuery{AsOf: asOf, OfficeID: flags.officeID})
				if err != nil {
					return nil, err
				}
				return loanmapper.FromArrearsReport(report), nil
			})
		},
	}
	root.PersistentFlags().StringVar(&flags.asOf, "as-of", "", "business date YYYY-MM-DD (default: today in BUSINESS_TIMEZONE)")
	root.Flags().Int64Var(&flags.officeID, "office-id", 0, "restrict to one office id")

	root.AddCommand(&cobra.Command{
		Use:   "portfolio",
		Short: "Print defaulted loan count and interest profit as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, flags, func(ctx context.Context, svc ports.Service, asOf civil.Date) (any, error) {
				summary, err := svc.PortfolioSummary(ctx, asOf)
				if err != nil {
					return nil, err
				}
				return loanmapper.FromPortfolioSummary(summary), nil
			})
		},
	})
	return root
}

type query func(ctx context.Context, svc ports.Service, asOf civil.Date) (any, error)

func withService(cmd *cobra.Command, flags *reportFlags, run query) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	asOf, err := resolveAsOf(flags.asOf, cfg.Location(), time.Now)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		ServiceName: "mikopo-arrears-report",
		LogOutput:   cmd.ErrOrStderr(),
		OneShot:     true,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	out, err := run(ctx, app.Service, asOf)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func resolveAsOf(raw string, loc *time.Location, now func() time.Time) (civil.Date, error) {
	if raw == "" {
		return civil.DateOf(now().In(loc)), nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

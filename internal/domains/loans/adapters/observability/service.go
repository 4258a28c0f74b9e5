package observability

import (
	"context"
	"io"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/mikopo/internal/domains/loans/domain"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
)

const tracerName = "github.com/Apurer/mikopo/internal/domains/loans/adapters/observability/service"

// Service decorates the loans service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core loans service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) RegisterCustomer(ctx context.Context, input ports.RegisterCustomerInput) (*domain.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.RegisterCustomer", trace.WithAttributes(attribute.Int64("office.id", input.OfficeID)))
	defer span.End()

	result, err := s.inner.RegisterCustomer(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register customer", slog.Int64("office.id", input.OfficeID))
	}
	s.logInfo(ctx, "customer registered", slog.Int64("customer.id", result.ID), slog.Int64("office.id", result.OfficeID))
	return result, nil
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.GetCustomer", trace.WithAttributes(attribute.Int64("customer.id", id)))
	defer span.End()

	result, err := s.inner.GetCustomer(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load customer", slog.Int64("customer.id", id))
	}
	return result, nil
}

func (s *Service) CreateLoan(ctx context.Context, input ports.CreateLoanInput) (*domain.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.CreateLoan", trace.WithAttributes(
		attribute.Int64("office.id", input.OfficeID),
		attribute.String("loan.type", string(input.Type)),
		attribute.String("loan.cadence", string(input.Cadence)),
	))
	defer span.End()

	s.logInfo(ctx, "creating loan", slog.Int64("office.id", input.OfficeID), slog.Int("borrowers", len(input.BorrowerIDs)))
	result, err := s.inner.CreateLoan(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create loan", slog.Int64("office.id", input.OfficeID))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "loan created", slog.Int64("loan.id", result.ID))
	return result, nil
}

func (s *Service) ApproveLoan(ctx context.Context, id int64, issueDate civil.Date) (*domain.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.ApproveLoan", trace.WithAttributes(
		attribute.Int64("loan.id", id), attribute.String("loan.issue_date", issueDate.String())))
	defer span.End()

	return s.transition(ctx, span, id, "approve", func(ctx context.Context) (*domain.Loan, error) {
		return s.inner.ApproveLoan(ctx, id, issueDate)
	})
}

func (s *Service) MarkDefaulted(ctx context.Context, id int64) (*domain.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.MarkDefaulted", trace.WithAttributes(attribute.Int64("loan.id", id)))
	defer span.End()

	return s.transition(ctx, span, id, "default", func(ctx context.Context) (*domain.Loan, error) {
		return s.inner.MarkDefaulted(ctx, id)
	})
}

func (s *Service) CloseLoan(ctx context.Context, id int64) (*domain.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.CloseLoan", trace.WithAttributes(attribute.Int64("loan.id", id)))
	defer span.End()

	return s.transition(ctx, span, id, "close", func(ctx context.Context) (*domain.Loan, error) {
		return s.inner.CloseLoan(ctx, id)
	})
}

func (s *Service) transition(ctx context.Context, span trace.Span, id int64, action string, call func(context.Context) (*domain.Loan, error)) (*domain.Loan, error) {
	result, err := call(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to "+action+" loan", slog.Int64("loan.id", id))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "loan status changed", slog.Int64("loan.id", id), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) GetLoan(ctx context.Context, id int64) (*domain.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.GetLoan", trace.WithAttributes(attribute.Int64("loan.id", id)))
	defer span.End()

	result, err := s.inner.GetLoan(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load loan", slog.Int64("loan.id", id))
	}
	return result, nil
}

func (s *Service) ListLoans(ctx context.Context, filter ports.LoanFilter) ([]*domain.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.ListLoans", trace.WithAttributes(attribute.Int64("office.id", filter.OfficeID)))
	defer span.End()

	result, err := s.inner.ListLoans(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list loans")
	}
	span.SetAttributes(attribute.Int("loans.count", len(result)))
	return result, nil
}

func (s *Service) RecordTransaction(ctx context.Context, input ports.RecordTransactionInput) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.RecordTransaction", trace.WithAttributes(
		attribute.Int64("loan.id", input.LoanID),
		attribute.String("transaction.direction", string(input.Direction)),
		attribute.String("transaction.category", string(input.Category)),
	))
	defer span.End()

	result, err := s.inner.RecordTransaction(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to record transaction", slog.Int64("loan.id", input.LoanID))
	}
	s.metrics.recordTransaction(ctx, result.Category)
	s.logInfo(ctx, "transaction recorded",
		slog.Int64("loan.id", result.LoanID),
		slog.Int64("transaction.id", result.ID),
		slog.String("amount", result.Amount.StringFixed(2)))
	if result.IsRepayment() {
		s.observeRepaid(ctx, span, result.LoanID)
	}
	return result, nil
}

// observeRepaid records the automatic move to repaid. Repayments are only
// accepted on approved or defaulted loans, so a repaid loan right after one
// was settled by it.
func (s *Service) observeRepaid(ctx context.Context, span trace.Span, loanID int64) {
	loan, err := s.inner.GetLoan(ctx, loanID)
	if err != nil {
		s.logWarn(ctx, "failed to reload loan after repayment",
			slog.Int64("loan.id", loanID), slog.String("error", err.Error()))
		return
	}
	if loan.Status != domain.StatusRepaid {
		return
	}
	span.SetAttributes(attribute.String("loan.status", string(loan.Status)))
	s.metrics.recordTransition(ctx, loan.Status)
	s.logInfo(ctx, "loan status changed", slog.Int64("loan.id", loanID), slog.String("status", string(loan.Status)))
}

func (s *Service) ListTransactions(ctx context.Context, loanID int64) ([]domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.ListTransactions", trace.WithAttributes(attribute.Int64("loan.id", loanID)))
	defer span.End()

	result, err := s.inner.ListTransactions(ctx, loanID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list transactions", slog.Int64("loan.id", loanID))
	}
	span.SetAttributes(attribute.Int("transactions.count", len(result)))
	return result, nil
}

func (s *Service) LoanDueAmount(ctx context.Context, loanID int64, asOf civil.Date) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.LoanDueAmount", trace.WithAttributes(
		attribute.Int64("loan.id", loanID), attribute.String("as_of", asOf.String())))
	defer span.End()

	due, err := s.inner.LoanDueAmount(ctx, loanID, asOf)
	if err != nil {
		return decimal.Zero, s.handleError(ctx, span, err, "failed to project due amount", slog.Int64("loan.id", loanID))
	}
	span.SetAttributes(attribute.String("loan.due", due.StringFixed(2)))
	return due, nil
}

func (s *Service) ListLoansInArrears(ctx context.Context, query ports.ArrearsQuery) (*domain.ArrearsReport, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.ListLoansInArrears", trace.WithAttributes(
		attribute.String("as_of", query.AsOf.String()), attribute.Int64("office.id", query.OfficeID)))
	defer span.End()

	s.logInfo(ctx, "computing arrears", slog.String("as_of", query.AsOf.String()), slog.Int64("office.id", query.OfficeID))
	report, err := s.inner.ListLoansInArrears(ctx, query)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to compute arrears", slog.String("as_of", query.AsOf.String()))
	}
	span.SetAttributes(
		attribute.Int("arrears.count", len(report.Records)),
		attribute.Int("arrears.skipped", len(report.Skipped)),
	)
	s.observeSkipped(ctx, report.Skipped)
	s.metrics.recordArrears(ctx, len(report.Records))
	s.logInfo(ctx, "arrears computed", slog.Int("arrears", len(report.Records)), slog.Int("skipped", len(report.Skipped)))
	return report, nil
}

func (s *Service) CountDefaultedLoans(ctx context.Context, asOf civil.Date) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.CountDefaultedLoans", trace.WithAttributes(attribute.String("as_of", asOf.String())))
	defer span.End()

	count, err := s.inner.CountDefaultedLoans(ctx, asOf)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to count defaulted loans")
	}
	span.SetAttributes(attribute.Int64("loans.defaulted", count))
	return count, nil
}

func (s *Service) TotalInterestProfit(ctx context.Context, asOf civil.Date) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.TotalInterestProfit", trace.WithAttributes(attribute.String("as_of", asOf.String())))
	defer span.End()

	profit, err := s.inner.TotalInterestProfit(ctx, asOf)
	if err != nil {
		return decimal.Zero, s.handleError(ctx, span, err, "failed to sum interest profit")
	}
	span.SetAttributes(attribute.String("loans.interest_profit", profit.StringFixed(2)))
	return profit, nil
}

func (s *Service) PortfolioSummary(ctx context.Context, asOf civil.Date) (*domain.PortfolioSummary, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.PortfolioSummary", trace.WithAttributes(attribute.String("as_of", asOf.String())))
	defer span.End()

	summary, err := s.inner.PortfolioSummary(ctx, asOf)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to summarise portfolio")
	}
	return summary, nil
}

func (s *Service) SweepArrears(ctx context.Context, asOf civil.Date) (*ports.SweepResult, error) {
	ctx, span := s.tracer.Start(ctx, "LoansService.SweepArrears", trace.WithAttributes(attribute.String("as_of", asOf.String())))
	defer span.End()

	s.logInfo(ctx, "sweeping arrears", slog.String("as_of", asOf.String()))
	result, err := s.inner.SweepArrears(ctx, asOf)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "arrears sweep failed", slog.String("as_of", asOf.String()))
	}
	span.SetAttributes(
		attribute.Int("arrears.count", result.Arrears),
		attribute.Int("arrears.skipped", result.Skipped),
	)
	s.observeSkipped(ctx, result.SkippedLoans)
	s.metrics.recordArrears(ctx, result.Arrears)
	s.metrics.recordReminders(ctx, result.Reminders)
	s.logInfo(ctx, "arrears sweep finished",
		slog.Int("arrears", result.Arrears),
		slog.Int("reminders", result.Reminders),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

func (s *Service) observeSkipped(ctx context.Context, skipped []domain.SkippedLoan) {
	for _, loan := range skipped {
		s.logWarn(ctx, "loan skipped in arrears report",
			slog.Int64("loan.id", loan.LoanID), slog.String("reason", string(loan.Reason)))
		s.metrics.recordSkipped(ctx, loan.Reason)
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	transitions  metric.Int64Counter
	transactions metric.Int64Counter
	arrears      metric.Int64Histogram
	skipped      metric.Int64Counter
	reminders    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	transitions, _ := m.Int64Counter("loans.service.status_changes", metric.WithDescription("Loan status changes by target status"))
	transactions, _ := m.Int64Counter("loans.service.transactions", metric.WithDescription("Transactions recorded by category"))
	arrears, _ := m.Int64Histogram("loans.service.arrears", metric.WithDescription("Loans in arrears per report"))
	skipped, _ := m.Int64Counter("loans.service.arrears_skipped", metric.WithDescription("Loans skipped by the arrears report"))
	reminders, _ := m.Int64Counter("loans.service.reminders", metric.WithDescription("Arrears reminders published"))
	return serviceMetrics{
		transitions:  transitions,
		transactions: transactions,
		arrears:      arrears,
		skipped:      skipped,
		reminders:    reminders,
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, status domain.Status) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("loan.status", string(status))))
	}
}

func (m serviceMetrics) recordTransaction(ctx context.Context, category domain.Category) {
	if m.transactions != nil {
		m.transactions.Add(ctx, 1, metric.WithAttributes(attribute.String("transaction.category", string(category))))
	}
}

func (m serviceMetrics) recordArrears(ctx context.Context, n int) {
	if m.arrears != nil {
		m.arrears.Record(ctx, int64(n))
	}
}

func (m serviceMetrics) recordSkipped(ctx context.Context, reason domain.SkipReason) {
	if m.skipped != nil {
		m.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(reason))))
	}
}

func (m serviceMetrics) recordReminders(ctx context.Context, n int) {
	if m.reminders != nil && n > 0 {
		m.reminders.Add(ctx, int64(n))
	}
}

var _ ports.Service = (*Service)(nil)

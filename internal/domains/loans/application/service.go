package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Apurer/mikopo/internal/domains/loans/domain"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
)

// reminderNamespace seeds the deterministic reminder message ids.
var reminderNamespace = uuid.MustParse("6f1c9a52-3d0e-4b8e-9a57-0c2d6a1e7f44")

var projectableStatuses = []domain.Status{domain.StatusApproved, domain.StatusDefaulted}

// Service orchestrates the loans bounded context use cases.
type Service struct {
	repo      ports.Repository
	reminders ports.ReminderPublisher
	loc       *time.Location
	now       func() time.Time
}

// NewService wires the loans service. loc is the business timezone used to read
// transaction timestamps as calendar dates; nil means UTC.
func NewService(repo ports.Repository, reminders ports.ReminderPublisher, loc *time.Location) *Service {
	if reminders == nil {
		reminders = ports.NoopReminderPublisher
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, reminders: reminders, loc: loc, now: time.Now}
}

// WithClock overrides the clock used to timestamp transactions recorded without one.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) RegisterCustomer(ctx context.Context, input ports.RegisterCustomerInput) (*domain.Customer, error) {
	customer, err := domain.NewCustomer(input.OfficeID, input.FullName, input.Phone, input.Email, input.Address)
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.SaveCustomer(ctx, customer)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// CreateLoan registers a pending loan for existing borrowers of the same office.
func (s *Service) CreateLoan(ctx context.Context, input ports.CreateLoanInput) (*domain.Loan, error) {
	loan, err := domain.NewLoan(input.OfficeID, input.Type, input.Principal, input.InterestRate,
		input.Installments, input.Cadence, input.BorrowerIDs)
	if err != nil {
		return nil, mapError(err)
	}
	seen := make(map[int64]struct{}, len(loan.BorrowerIDs))
	for _, id := range loan.BorrowerIDs {
		if _, dup := seen[id]; dup {
			return nil, mapError(domain.ErrInvalidBorrowers)
		}
		seen[id] = struct{}{}
		customer, err := s.repo.GetCustomer(ctx, id)
		if err != nil {
			return nil, err
		}
		if customer.OfficeID != loan.OfficeID {
			return nil, mapError(fmt.Errorf("%w: customer %d", domain.ErrBorrowerOtherOffice, id))
		}
	}
	return s.repo.SaveLoan(ctx, loan)
}

// ApproveLoan issues a pending loan on issueDate.
func (s *Service) ApproveLoan(ctx context.Context, id int64, issueDate civil.Date) (*domain.Loan, error) {
	return s.updateLoan(ctx, id, func(loan *domain.Loan) error {
		return loan.Approve(issueDate)
	})
}

func (s *Service) MarkDefaulted(ctx context.Context, id int64) (*domain.Loan, error) {
	return s.updateLoan(ctx, id, func(loan *domain.Loan) error {
		return loan.Transition(domain.StatusDefaulted)
	})
}

func (s *Service) CloseLoan(ctx context.Context, id int64) (*domain.Loan, error) {
	return s.updateLoan(ctx, id, func(loan *domain.Loan) error {
		return loan.Transition(domain.StatusClosed)
	})
}

func (s *Service) updateLoan(ctx context.Context, id int64, mutate func(*domain.Loan) error) (*domain.Loan, error) {
	loan, err := s.repo.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(loan); err != nil {
		return nil, mapError(err)
	}
	return s.repo.SaveLoan(ctx, loan)
}

func (s *Service) GetLoan(ctx context.Context, id int64) (*domain.Loan, error) {
	return s.repo.GetLoan(ctx, id)
}

func (s *Service) ListLoans(ctx context.Context, filter ports.LoanFilter) ([]*domain.Loan, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, mapError(domain.ErrInvalidStatus)
		}
	}
	return s.repo.ListLoans(ctx, filter)
}

// RecordTransaction stores a transaction and marks the loan repaid once
// cumulative repayments cover the total amount due.
func (s *Service) RecordTransaction(ctx context.Context, input ports.RecordTransactionInput) (*domain.Transaction, error) {
	loan, err := s.repo.GetLoan(ctx, input.LoanID)
	if err != nil {
		return nil, err
	}
	at := input.At
	if at.IsZero() {
		at = s.now()
	}
	tx, err := domain.NewTransaction(loan.ID, input.Direction, input.Category, input.Amount, at)
	if err != nil {
		return nil, mapError(err)
	}
	if tx.IsRepayment() && !loan.Status.Projectable() {
		return nil, mapError(domain.ErrLoanNotRepayable)
	}
	saved, err := s.repo.SaveTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !saved.IsRepayment() || !loan.TotalDue.Valid {
		return saved, nil
	}
	repayments, err := s.repo.RepaymentsByLoan(ctx, []int64{loan.ID})
	if err != nil {
		return nil, err
	}
	paid := decimal.Zero
	for _, r := range repayments[loan.ID] {
		paid = paid.Add(r.Amount)
	}
	if paid.GreaterThanOrEqual(loan.TotalDue.Decimal) {
		if err := loan.Transition(domain.StatusRepaid); err != nil {
			return nil, mapError(err)
		}
		if _, err := s.repo.SaveLoan(ctx, loan); err != nil {
			return nil, err
		}
	}
	return saved, nil
}

func (s *Service) ListTransactions(ctx context.Context, loanID int64) ([]domain.Transaction, error) {
	if _, err := s.repo.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, loanID)
}

// LoanDueAmount projects the amount due on a stored loan. Unlike the batch
// report it fails when the loan's terms are incomplete or its cadence is unknown.
func (s *Service) LoanDueAmount(ctx context.Context, loanID int64, asOf civil.Date) (decimal.Decimal, error) {
	loan, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return decimal.Zero, err
	}
	terms, ok := loan.Terms()
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrUnprojectable, domain.ErrIncompleteLoan)
	}
	due, err := domain.ProjectDueAmount(terms.IssueDate, asOf, terms.Installments, terms.Cadence, terms.TotalDue)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrUnprojectable, err)
	}
	return due, nil
}

// ListLoansInArrears reports every approved or defaulted loan whose expected
// repayments exceed what was paid by query.AsOf. Loans that cannot be
// projected are listed in Skipped rather than failing the report.
func (s *Service) ListLoansInArrears(ctx context.Context, query ports.ArrearsQuery) (*domain.ArrearsReport, error) {
	loans, err := s.repo.ListLoans(ctx, ports.LoanFilter{OfficeID: query.OfficeID, Statuses: projectableStatuses})
	if err != nil {
		return nil, err
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })

	report := &domain.ArrearsReport{AsOf: query.AsOf}
	candidates := make([]*domain.Loan, 0, len(loans))
	ids := make([]int64, 0, len(loans))
	for _, loan := range loans {
		if _, ok := loan.Terms(); !ok {
			report.Skipped = append(report.Skipped, domain.SkippedLoan{LoanID: loan.ID, Reason: domain.SkipIncomplete})
			continue
		}
		candidates = append(candidates, loan)
		ids = append(ids, loan.ID)
	}
	if len(candidates) == 0 {
		return report, nil
	}

	repayments, err := s.repo.RepaymentsByLoan(ctx, ids)
	if err != nil {
		return nil, err
	}
	var behind []int64
	for _, loan := range candidates {
		record, isBehind, err := domain.AssessArrears(loan, repayments[loan.ID], query.AsOf, s.loc)
		if err != nil {
			reason, skip := domain.SkipReasonFor(err)
			if !skip {
				return nil, err
			}
			report.Skipped = append(report.Skipped, domain.SkippedLoan{LoanID: loan.ID, Reason: reason})
			continue
		}
		if isBehind {
			report.Records = append(report.Records, record)
			behind = append(behind, loan.ID)
		}
	}
	if len(behind) == 0 {
		return report, nil
	}

	borrowers, err := s.repo.CustomersByLoan(ctx, behind)
	if err != nil {
		return nil, err
	}
	for i := range report.Records {
		report.Records[i].Borrowers = borrowers[report.Records[i].LoanID]
	}
	return report, nil
}

func (s *Service) CountDefaultedLoans(ctx context.Context, asOf civil.Date) (int64, error) {
	return s.repo.CountDefaulted(ctx, asOf)
}

// TotalInterestProfit sums principal × rate/100 over active loans issued by asOf.
func (s *Service) TotalInterestProfit(ctx context.Context, asOf civil.Date) (decimal.Decimal, error) {
	sum, err := s.repo.SumInterest(ctx, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.RoundMoney(sum), nil
}

func (s *Service) PortfolioSummary(ctx context.Context, asOf civil.Date) (*domain.PortfolioSummary, error) {
	defaulted, err := s.CountDefaultedLoans(ctx, asOf)
	if err != nil {
		return nil, err
	}
	profit, err := s.TotalInterestProfit(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return &domain.PortfolioSummary{AsOf: asOf, DefaultedLoans: defaulted, InterestProfit: profit}, nil
}

// SweepArrears computes the arrears report for asOf and publishes one reminder
// per borrower with a phone number. Reminder ids are derived from loan,
// customer and date, so a repeated sweep produces the same messages.
func (s *Service) SweepArrears(ctx context.Context, asOf civil.Date) (*ports.SweepResult, error) {
	report, err := s.ListLoansInArrears(ctx, ports.ArrearsQuery{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	var reminders []ports.Reminder
	for _, record := range report.Records {
		for _, borrower := range record.Borrowers {
			if borrower.Phone == "" {
				continue
			}
			reminders = append(reminders, ports.Reminder{
				MessageID:  reminderID(record.LoanID, borrower.ID, asOf),
				LoanID:     record.LoanID,
				OfficeID:   record.OfficeID,
				CustomerID: borrower.ID,
				FullName:   borrower.FullName,
				Phone:      borrower.Phone,
				Balance:    record.Balance,
				AsOf:       asOf,
			})
		}
	}
	if len(reminders) > 0 {
		if err := s.reminders.Publish(ctx, reminders); err != nil {
			return nil, fmt.Errorf("publish arrears reminders: %w", err)
		}
	}
	return &ports.SweepResult{
		AsOf:         asOf,
		Arrears:      len(report.Records),
		Reminders:    len(reminders),
		Skipped:      len(report.Skipped),
		SkippedLoans: report.Skipped,
	}, nil
}

func reminderID(loanID, customerID int64, asOf civil.Date) string {
	return uuid.NewSHA1(reminderNamespace, []byte(fmt.Sprintf("%d|%d|%s", loanID, customerID, asOf))).String()
}

// IsNotFound reports whether err means the addressed loan or customer does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ports.ErrLoanNotFound) || errors.Is(err, ports.ErrCustomerNotFound)
}

var _ ports.Service = (*Service)(nil)

package ports

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/Apurer/mikopo/internal/domains/loans/domain"
)

// RegisterCustomerInput carries the fields of a new borrower.
type RegisterCustomerInput struct {
	OfficeID int64
	FullName string
	Phone    string
	Email    string
	Address  string
}

// CreateLoanInput carries the terms of a new loan application.
type CreateLoanInput struct {
	OfficeID     int64
	Type         domain.LoanType
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	Installments int
	Cadence      domain.Cadence
	BorrowerIDs  []int64
}

// RecordTransactionInput carries a money movement against a loan.
type RecordTransactionInput struct {
	LoanID    int64
	Direction domain.Direction
	Category  domain.Category
	Amount    decimal.Decimal
	At        time.Time
}

// ArrearsQuery scopes an arrears computation. OfficeID 0 covers every office.
type ArrearsQuery struct {
	AsOf     civil.Date
	OfficeID int64
}

// SweepResult summarises one arrears sweep.
type SweepResult struct {
	AsOf      civil.Date
	Arrears   int
	Reminders int
	Skipped   int
	// SkippedLoans lists the loans the underlying report could not evaluate.
	SkippedLoans []domain.SkippedLoan
}

// Service exposes the loans use cases to adapters.
type Service interface {
	RegisterCustomer(ctx context.Context, input RegisterCustomerInput) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)

	CreateLoan(ctx context.Context, input CreateLoanInput) (*domain.Loan, error)
	ApproveLoan(ctx context.Context, id int64, issueDate civil.Date) (*domain.Loan, error)
	MarkDefaulted(ctx context.Context, id int64) (*domain.Loan, error)
	CloseLoan(ctx context.Context, id int64) (*domain.Loan, error)
	GetLoan(ctx context.Context, id int64) (*domain.Loan, error)
	ListLoans(ctx context.Context, filter LoanFilter) ([]*domain.Loan, error)

	RecordTransaction(ctx context.Context, input RecordTransactionInput) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, loanID int64) ([]domain.Transaction, error)

	LoanDueAmount(ctx context.Context, loanID int64, asOf civil.Date) (decimal.Decimal, error)
	ListLoansInArrears(ctx context.Context, query ArrearsQuery) (*domain.ArrearsReport, error)
	CountDefaultedLoans(ctx context.Context, asOf civil.Date) (int64, error)
	TotalInterestProfit(ctx context.Context, asOf civil.Date) (decimal.Decimal, error)
	PortfolioSummary(ctx context.Context, asOf civil.Date) (*domain.PortfolioSummary, error)

	SweepArrears(ctx context.Context, asOf civil.Date) (*SweepResult, error)
}

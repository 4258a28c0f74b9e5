package ports

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/Apurer/mikopo/internal/domains/loans/domain"
)

var (
	ErrLoanNotFound     = errors.New("loan not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

// LoanFilter narrows loan enumeration. Zero values mean "any".
type LoanFilter struct {
	OfficeID int64
	Statuses []domain.Status
}

// Repository persists loans, their borrowers and their transactions.
type Repository interface {
	SaveCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	// CustomersByLoan returns the borrowers of each requested loan.
	CustomersByLoan(ctx context.Context, loanIDs []int64) (map[int64][]domain.Customer, error)

	SaveLoan(ctx context.Context, loan *domain.Loan) (*domain.Loan, error)
	GetLoan(ctx context.Context, id int64) (*domain.Loan, error)
	// ListLoans returns loans ordered by ascending id.
	ListLoans(ctx context.Context, filter LoanFilter) ([]*domain.Loan, error)

	SaveTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, loanID int64) ([]domain.Transaction, error)
	// RepaymentsByLoan returns deposit/repayment transactions of the given loans.
	RepaymentsByLoan(ctx context.Context, loanIDs []int64) (map[int64][]domain.Transaction, error)

	CountDefaulted(ctx context.Context, asOf civil.Date) (int64, error)
	// SumInterest returns Σ principal × rate/100 over approved/defaulted loans
	// issued on or before asOf, unrounded; zero when nothing matches.
	SumInterest(ctx context.Context, asOf civil.Date) (decimal.Decimal, error)
}

package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Loan models a loan issued by an office to one or more borrowers.
// Amount fields are nullable because rows created by older flows may lack them.
type Loan struct {
	ID           int64
	OfficeID     int64
	Type         LoanType
	Principal    decimal.NullDecimal
	InterestRate decimal.NullDecimal
	TotalDue     decimal.NullDecimal
	IssueDate    *civil.Date
	Installments int
	Cadence      Cadence
	Status       Status
	BorrowerIDs  []int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Terms is the complete set of fields the projection engine needs.
type Terms struct {
	IssueDate    civil.Date
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	TotalDue     decimal.Decimal
	Installments int
	Cadence      Cadence
}

// NewLoan validates and constructs a pending loan.
func NewLoan(officeID int64, loanType LoanType, principal, rate decimal.Decimal, installments int, cadence Cadence, borrowerIDs []int64) (*Loan, error) {
	loan := &Loan{
		OfficeID:     officeID,
		Type:         loanType,
		Principal:    decimal.NewNullDecimal(principal),
		InterestRate: decimal.NewNullDecimal(rate),
		Installments: installments,
		Cadence:      cadence,
		Status:       StatusPending,
		BorrowerIDs:  append([]int64(nil), borrowerIDs...),
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}
	return loan, nil
}

// Validate enforces the invariants required to originate a loan.
func (l *Loan) Validate() error {
	if l.OfficeID <= 0 {
		return ErrInvalidOffice
	}
	if !l.Type.Valid() {
		return ErrInvalidLoanType
	}
	if !l.Principal.Valid || !l.Principal.Decimal.IsPositive() {
		return ErrInvalidPrincipal
	}
	if !l.InterestRate.Valid || l.InterestRate.Decimal.IsNegative() {
		return ErrInvalidRate
	}
	if l.Installments <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, ErrInvalidInstallmentCount)
	}
	if !l.Cadence.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidArgument, ErrInvalidCadence, string(l.Cadence))
	}
	switch {
	case l.Type == LoanTypeIndividual && len(l.BorrowerIDs) != 1:
		return ErrInvalidBorrowers
	case l.Type == LoanTypeGroup && len(l.BorrowerIDs) < 2:
		return ErrInvalidBorrowers
	}
	if !l.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Transition moves the loan to next when the lifecycle allows it.
func (l *Loan) Transition(next Status) error {
	if !next.Valid() {
		return ErrInvalidStatus
	}
	if !l.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Status, next)
	}
	l.Status = next
	return nil
}

// Approve issues the loan on issueDate and fixes the total amount due.
func (l *Loan) Approve(issueDate civil.Date) error {
	if !issueDate.IsValid() {
		return ErrMissingIssueDate
	}
	if !l.Principal.Valid || !l.InterestRate.Valid {
		return ErrIncompleteLoan
	}
	if err := l.Transition(StatusApproved); err != nil {
		return err
	}
	principal := l.Principal.Decimal
	l.TotalDue = decimal.NewNullDecimal(RoundMoney(principal.Add(InterestOn(principal, l.InterestRate.Decimal))))
	d := issueDate
	l.IssueDate = &d
	return nil
}

// Terms returns the projection terms, or false when any field is missing.
// Cadence validity is not checked here; ProjectDueAmount reports that separately.
func (l *Loan) Terms() (Terms, bool) {
	if l == nil || l.IssueDate == nil || !l.Principal.Valid || !l.InterestRate.Valid ||
		!l.TotalDue.Valid || l.Installments <= 0 || l.Cadence == "" {
		return Terms{}, false
	}
	return Terms{
		IssueDate:    *l.IssueDate,
		Principal:    l.Principal.Decimal,
		InterestRate: l.InterestRate.Decimal,
		TotalDue:     l.TotalDue.Decimal,
		Installments: l.Installments,
		Cadence:      l.Cadence,
	}, true
}

// IssuedOnOrBefore reports whether the loan has an issue date not after asOf.
func (l *Loan) IssuedOnOrBefore(asOf civil.Date) bool {
	return l.IssueDate != nil && !l.IssueDate.After(asOf)
}

// Clone returns a deep copy safe to hand across adapter boundaries.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	if l.IssueDate != nil {
		d := *l.IssueDate
		clone.IssueDate = &d
	}
	clone.BorrowerIDs = append([]int64(nil), l.BorrowerIDs...)
	return &clone
}

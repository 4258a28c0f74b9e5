package domain

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// SkipReason explains why a loan was left out of a batch report.
type SkipReason string

const (
	SkipIncomplete     SkipReason = "incomplete"
	SkipInvalidCadence SkipReason = "invalid_cadence"
)

// ArrearsRecord reports a loan whose expected repayments exceed what was paid.
type ArrearsRecord struct {
	LoanID       int64
	OfficeID     int64
	LoanType     LoanType
	Expected     decimal.Decimal
	Paid         decimal.Decimal
	Balance      decimal.Decimal
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	Cadence      Cadence
	Borrowers    []Customer
}

// SkippedLoan identifies a loan a batch report could not evaluate.
type SkippedLoan struct {
	LoanID int64
	Reason SkipReason
}

// ArrearsReport is the result of one arrears computation.
type ArrearsReport struct {
	AsOf    civil.Date
	Records []ArrearsRecord
	Skipped []SkippedLoan
}

// PortfolioSummary carries the portfolio-level aggregates as of a date.
type PortfolioSummary struct {
	AsOf           civil.Date
	DefaultedLoans int64
	InterestProfit decimal.Decimal
}

// AssessArrears evaluates a single loan against its repayment history.
// It returns ok=false when the loan is not behind. A loan that cannot be
// projected yields an error wrapping ErrIncompleteLoan or ErrInvalidCadence.
func AssessArrears(loan *Loan, txs []Transaction, asOf civil.Date, loc *time.Location) (ArrearsRecord, bool, error) {
	terms, ok := loan.Terms()
	if !ok {
		return ArrearsRecord{}, false, ErrIncompleteLoan
	}
	count, err := ExpectedInstallments(terms.IssueDate, asOf, terms.Installments, terms.Cadence)
	if err != nil {
		return ArrearsRecord{}, false, err
	}
	expected := installmentsWorth(count, terms.Installments, terms.TotalDue)
	paid := RoundMoney(PaidAmount(txs, asOf, loc))
	if !expected.GreaterThan(paid) {
		return ArrearsRecord{}, false, nil
	}
	return ArrearsRecord{
		LoanID:       loan.ID,
		OfficeID:     loan.OfficeID,
		LoanType:     loan.Type,
		Expected:     expected,
		Paid:         paid,
		Balance:      RoundMoney(expected.Sub(paid)),
		Principal:    terms.Principal,
		InterestRate: terms.InterestRate,
		Cadence:      terms.Cadence,
	}, true, nil
}

// SkipReasonFor maps an AssessArrears error to a skip reason. Errors that are
// not about the loan's own data return false and must be propagated.
func SkipReasonFor(err error) (SkipReason, bool) {
	switch {
	case errors.Is(err, ErrIncompleteLoan), errors.Is(err, ErrInvalidInstallmentCount):
		return SkipIncomplete, true
	case errors.Is(err, ErrInvalidCadence):
		return SkipInvalidCadence, true
	default:
		return "", false
	}
}

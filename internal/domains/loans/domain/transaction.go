package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Direction says whether money flows into ("kuweka") or out of ("kutoa") the office.
type Direction string

const (
	DirectionDeposit    Direction = "kuweka"
	DirectionWithdrawal Direction = "kutoa"
)

// Category classifies a transaction.
type Category string

const (
	CategoryRepayment    Category = "rejesho"
	CategoryFee          Category = "fomu"
	CategoryDisbursement Category = "mkopo"
)

// Transaction is a money movement recorded against a loan.
type Transaction struct {
	ID        int64
	LoanID    int64
	Direction Direction
	Category  Category
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// NewTransaction validates a transaction before it is recorded.
func NewTransaction(loanID int64, direction Direction, category Category, amount decimal.Decimal, at time.Time) (*Transaction, error) {
	tx := &Transaction{
		LoanID:    loanID,
		Direction: direction,
		Category:  category,
		Amount:    RoundMoney(amount),
		CreatedAt: at,
	}
	if direction != DirectionDeposit && direction != DirectionWithdrawal {
		return nil, ErrInvalidDirection
	}
	switch category {
	case CategoryRepayment, CategoryFee, CategoryDisbursement:
	default:
		return nil, ErrInvalidCategory
	}
	if !tx.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return tx, nil
}

// IsRepayment reports whether the transaction counts toward what a borrower has paid.
func (t Transaction) IsRepayment() bool {
	return t.Direction == DirectionDeposit && t.Category == CategoryRepayment
}

// PaidAmount sums repayments created on or before asOf, with creation
// timestamps read as calendar dates in loc.
func PaidAmount(txs []Transaction, asOf civil.Date, loc *time.Location) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if !tx.IsRepayment() {
			continue
		}
		if BusinessDate(tx.CreatedAt, loc).After(asOf) {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}

// BusinessDate returns the calendar date of t in loc (UTC when loc is nil).
func BusinessDate(t time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(t.In(loc))
}

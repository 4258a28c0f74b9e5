package domain

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ProjectDueAmount returns how much of totalDue has fallen due by asOf.
//
// The first installment is due one cadence unit after issueDate; the number of
// elapsed installments is capped at installments, and each installment is worth
// totalDue/installments. The result is rounded to two decimal places.
func ProjectDueAmount(issueDate, asOf civil.Date, installments int, cadence Cadence, totalDue decimal.Decimal) (decimal.Decimal, error) {
	if asOf.Before(issueDate) {
		return decimal.Zero, nil
	}
	if installments <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrInvalidArgument, ErrInvalidInstallmentCount)
	}
	firstDue, err := cadence.Advance(issueDate, 1)
	if err != nil {
		return decimal.Zero, err
	}
	if asOf.Before(firstDue) {
		return decimal.Zero, nil
	}
	due := cadence.elapsedUnits(firstDue, asOf)
	if due >= installments {
		return RoundMoney(totalDue), nil
	}
	return installmentsWorth(due, installments, totalDue), nil
}

// DueDates generates the installment schedule: issueDate + i units for i in [0, installments).
func DueDates(issueDate civil.Date, installments int, cadence Cadence) ([]civil.Date, error) {
	if installments <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, ErrInvalidInstallmentCount)
	}
	dates := make([]civil.Date, 0, installments)
	for i := 0; i < installments; i++ {
		d, err := cadence.Advance(issueDate, i)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// ExpectedInstallments counts schedule dates strictly after issueDate and on or before asOf.
func ExpectedInstallments(issueDate, asOf civil.Date, installments int, cadence Cadence) (int, error) {
	dates, err := DueDates(issueDate, installments, cadence)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, d := range dates {
		if d.After(issueDate) && !d.After(asOf) {
			count++
		}
	}
	return count, nil
}

func installmentsWorth(count, installments int, totalDue decimal.Decimal) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	per := totalDue.Div(decimal.NewFromInt(int64(installments)))
	return RoundMoney(per.Mul(decimal.NewFromInt(int64(count))))
}

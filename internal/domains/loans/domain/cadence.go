package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Cadence is the repayment interval unit ("kipindi_malipo").
type Cadence string

const (
	CadenceDay   Cadence = "day"
	CadenceWeek  Cadence = "week"
	CadenceMonth Cadence = "month"
)

// ParseCadence converts a stored cadence string into the closed enumeration.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseCadence(raw string) (Cadence, error) {
	c := NormalizeCadence(raw)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %w: %q", ErrInvalidArgument, ErrInvalidCadence, raw)
	}
	return c, nil
}

// NormalizeCadence lower-cases a stored value without validating it. Loaders use
// it so that unknown values survive until the projection decides to skip them.
func NormalizeCadence(raw string) Cadence {
	return Cadence(strings.ToLower(strings.TrimSpace(raw)))
}

// Valid reports whether the cadence is one of day, week or month.
func (c Cadence) Valid() bool {
	switch c {
	case CadenceDay, CadenceWeek, CadenceMonth:
		return true
	default:
		return false
	}
}

// Advance moves d forward by n cadence units. Months are added to the calendar
// month and normalized the way time.Date does (Jan 31 + 1 month = Mar 2/3).
func (c Cadence) Advance(d civil.Date, n int) (civil.Date, error) {
	switch c {
	case CadenceDay:
		return d.AddDays(n), nil
	case CadenceWeek:
		return d.AddDays(7 * n), nil
	case CadenceMonth:
		return civil.DateOf(d.In(time.UTC).AddDate(0, n, 0)), nil
	default:
		return civil.Date{}, fmt.Errorf("%w: %w: %q", ErrInvalidArgument, ErrInvalidCadence, string(c))
	}
}

// elapsedUnits counts installments due between firstDue and asOf, inclusive of
// the first one. Callers guarantee asOf is not before firstDue.
func (c Cadence) elapsedUnits(firstDue, asOf civil.Date) int {
	switch c {
	case CadenceDay:
		return asOf.DaysSince(firstDue) + 1
	case CadenceWeek:
		return asOf.DaysSince(firstDue)/7 + 1
	default:
		months := (asOf.Year-firstDue.Year)*12 + int(asOf.Month) - int(firstDue.Month)
		if asOf.Day >= firstDue.Day {
			months++
		}
		return months
	}
}

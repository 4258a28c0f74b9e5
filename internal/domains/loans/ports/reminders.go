package ports

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Reminder asks a borrower to settle an overdue balance.
type Reminder struct {
	// MessageID is stable for a (loan, customer, as-of) triple so consumers can dedupe.
	MessageID  string
	LoanID     int64
	OfficeID   int64
	CustomerID int64
	FullName   string
	Phone      string
	Balance    decimal.Decimal
	AsOf       civil.Date
}

// ReminderPublisher hands reminders to the notification pipeline.
type ReminderPublisher interface {
	Publish(ctx context.Context, reminders []Reminder) error
}

// NoopReminderPublisher drops reminders.
var NoopReminderPublisher ReminderPublisher = noopReminderPublisher{}

type noopReminderPublisher struct{}

func (noopReminderPublisher) Publish(context.Context, []Reminder) error { return nil }

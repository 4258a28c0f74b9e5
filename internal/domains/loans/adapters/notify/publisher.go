package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/Apurer/mikopo/internal/domains/loans/ports"
)

var (
	_ ports.ReminderPublisher = (*LogPublisher)(nil)
	_ ports.ReminderPublisher = (*QueuePublisher)(nil)
)

// LogPublisher writes reminders to a structured log. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, reminders []ports.Reminder) error {
	for _, r := range reminders {
		p.logger.LogAttrs(ctx, slog.LevelInfo, "arrears reminder",
			slog.String("message.id", r.MessageID),
			slog.Int64("loan.id", r.LoanID),
			slog.Int64("customer.id", r.CustomerID),
			slog.String("balance", r.Balance.StringFixed(2)),
			slog.String("report.as_of", r.AsOf.String()),
		)
	}
	return nil
}

// MessageSender sends one message body under a stable id.
type MessageSender interface {
	Publish(ctx context.Context, messageID string, body []byte) error
}

// QueuePublisher serialises reminders as JSON and hands them to a broker.
type QueuePublisher struct {
	sender MessageSender
}

func NewQueuePublisher(sender MessageSender) *QueuePublisher {
	return &QueuePublisher{sender: sender}
}

// ReminderMessage is the wire shape consumed by the SMS dispatcher.
type ReminderMessage struct {
	MessageID  string          `json:"messageId"`
	LoanID     int64           `json:"loanId"`
	OfficeID   int64           `json:"officeId"`
	CustomerID int64           `json:"customerId"`
	FullName   string          `json:"fullName"`
	Phone      string          `json:"phone"`
	Balance    decimal.Decimal `json:"balance"`
	AsOf       civil.Date      `json:"asOf"`
}

// Publish sends every reminder and reports all failures together; one bad
// message does not stop the rest.
func (p *QueuePublisher) Publish(ctx context.Context, reminders []ports.Reminder) error {
	if p == nil || p.sender == nil {
		return errors.New("reminder queue not configured")
	}
	var errs []error
	for _, r := range reminders {
		body, err := json.Marshal(ReminderMessage{
			MessageID:  r.MessageID,
			LoanID:     r.LoanID,
			OfficeID:   r.OfficeID,
			CustomerID: r.CustomerID,
			FullName:   r.FullName,
			Phone:      r.Phone,
			Balance:    r.Balance,
			AsOf:       r.AsOf,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal reminder %s: %w", r.MessageID, err))
			continue
		}
		if err := p.sender.Publish(ctx, r.MessageID, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

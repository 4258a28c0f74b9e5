package mapper

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/Apurer/mikopo/internal/domains/loans/domain"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
)

// Amounts travel as JSON strings ("1234.50") and dates as "YYYY-MM-DD".

type NewCustomer struct {
	OfficeID int64  `json:"officeId"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`
}

type Customer struct {
	ID        int64     `json:"id"`
	OfficeID  int64     `json:"officeId"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type NewLoan struct {
	OfficeID     int64           `json:"officeId"`
	Type         string          `json:"type"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interestRate"`
	Installments int             `json:"installments"`
	Cadence      string          `json:"cadence"`
	BorrowerIDs  []int64         `json:"borrowerIds"`
}

type ApproveLoan struct {
	IssueDate civil.Date `json:"issueDate"`
}

type Loan struct {
	ID           int64            `json:"id"`
	OfficeID     int64            `json:"officeId"`
	Type         string           `json:"type"`
	Principal    *decimal.Decimal `json:"principal"`
	InterestRate *decimal.Decimal `json:"interestRate"`
	TotalDue     *decimal.Decimal `json:"totalDue"`
	IssueDate    *civil.Date      `json:"issueDate"`
	Installments int              `json:"installments"`
	Cadence      string           `json:"cadence"`
	Status       string           `json:"status"`
	BorrowerIDs  []int64          `json:"borrowerIds"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type NewTransaction struct {
	Direction string          `json:"direction"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	At        *time.Time      `json:"at,omitempty"`
}

type Transaction struct {
	ID        int64           `json:"id"`
	LoanID    int64           `json:"loanId"`
	Direction string          `json:"direction"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

type DueAmount struct {
	LoanID int64           `json:"loanId"`
	AsOf   civil.Date      `json:"asOf"`
	Due    decimal.Decimal `json:"due"`
}

type Borrower struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
}

type ArrearsRecord struct {
	LoanID       int64           `json:"loanId"`
	OfficeID     int64           `json:"officeId"`
	LoanType     string          `json:"loanType"`
	Cadence      string          `json:"cadence"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interestRate"`
	Expected     decimal.Decimal `json:"expected"`
	Paid         decimal.Decimal `json:"paid"`
	Balance      decimal.Decimal `json:"balance"`
	Borrowers    []Borrower      `json:"borrowers"`
}

type SkippedLoan struct {
	LoanID int64  `json:"loanId"`
	Reason string `json:"reason"`
}

type ArrearsReport struct {
	AsOf    civil.Date      `json:"asOf"`
	Records []ArrearsRecord `json:"records"`
	Skipped []SkippedLoan   `json:"skipped"`
}

type PortfolioSummary struct {
	AsOf           civil.Date      `json:"asOf"`
	DefaultedLoans int64           `json:"defaultedLoans"`
	InterestProfit decimal.Decimal `json:"interestProfit"`
}

type SweepResult struct {
	AsOf      civil.Date `json:"asOf"`
	Arrears   int        `json:"arrears"`
	Reminders int        `json:"reminders"`
	Skipped   int        `json:"skipped"`
}

func ToRegisterCustomerInput(in NewCustomer) ports.RegisterCustomerInput {
	return ports.RegisterCustomerInput{
		OfficeID: in.OfficeID,
		FullName: in.FullName,
		Phone:    in.Phone,
		Email:    in.Email,
		Address:  in.Address,
	}
}

func FromDomainCustomer(c *domain.Customer) Customer {
	if c == nil {
		return Customer{}
	}
	return Customer{
		ID:        c.ID,
		OfficeID:  c.OfficeID,
		FullName:  c.FullName,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
	}
}

// ToCreateLoanInput normalises type and cadence spelling; validation stays in the domain.
func ToCreateLoanInput(in NewLoan) ports.CreateLoanInput {
	return ports.CreateLoanInput{
		OfficeID:     in.OfficeID,
		Type:         domain.LoanType(in.Type),
		Principal:    in.Principal,
		InterestRate: in.InterestRate,
		Installments: in.Installments,
		Cadence:      domain.NormalizeCadence(in.Cadence),
		BorrowerIDs:  in.BorrowerIDs,
	}
}

func FromDomainLoan(l *domain.Loan) Loan {
	if l == nil {
		return Loan{}
	}
	out := Loan{
		ID:           l.ID,
		OfficeID:     l.OfficeID,
		Type:         string(l.Type),
		Principal:    nullable(l.Principal),
		InterestRate: nullable(l.InterestRate),
		TotalDue:     nullable(l.TotalDue),
		Installments: l.Installments,
		Cadence:      string(l.Cadence),
		Status:       string(l.Status),
		BorrowerIDs:  append([]int64{}, l.BorrowerIDs...),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
	if l.IssueDate != nil {
		d := *l.IssueDate
		out.IssueDate = &d
	}
	return out
}

func FromDomainLoans(loans []*domain.Loan) []Loan {
	out := make([]Loan, 0, len(loans))
	for _, l := range loans {
		out = append(out, FromDomainLoan(l))
	}
	return out
}

func ToRecordTransactionInput(loanID int64, in NewTransaction) ports.RecordTransactionInput {
	input := ports.RecordTransactionInput{
		LoanID:    loanID,
		Direction: domain.Direction(in.Direction),
		Category:  domain.Category(in.Category),
		Amount:    in.Amount,
	}
	if in.At != nil {
		input.At = *in.At
	}
	return input
}

func FromDomainTransaction(t *domain.Transaction) Transaction {
	if t == nil {
		return Transaction{}
	}
	return Transaction{
		ID:        t.ID,
		LoanID:    t.LoanID,
		Direction: string(t.Direction),
		Category:  string(t.Category),
		Amount:    t.Amount,
		CreatedAt: t.CreatedAt,
	}
}

func FromDomainTransactions(txs []domain.Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for i := range txs {
		out = append(out, FromDomainTransaction(&txs[i]))
	}
	return out
}

// FromArrearsReport never returns nil slices so clients always see arrays.
func FromArrearsReport(r *domain.ArrearsReport) ArrearsReport {
	if r == nil {
		return ArrearsReport{Records: []ArrearsRecord{}, Skipped: []SkippedLoan{}}
	}
	out := ArrearsReport{
		AsOf:    r.AsOf,
		Records: make([]ArrearsRecord, 0, len(r.Records)),
		Skipped: make([]SkippedLoan, 0, len(r.Skipped)),
	}
	for _, rec := range r.Records {
		borrowers := make([]Borrower, 0, len(rec.Borrowers))
		for _, b := range rec.Borrowers {
			borrowers = append(borrowers, Borrower{ID: b.ID, FullName: b.FullName, Phone: b.Phone, Email: b.Email})
		}
		out.Records = append(out.Records, ArrearsRecord{
			LoanID:       rec.LoanID,
			OfficeID:     rec.OfficeID,
			LoanType:     string(rec.LoanType),
			Cadence:      string(rec.Cadence),
			Principal:    rec.Principal,
			InterestRate: rec.InterestRate,
			Expected:     rec.Expected,
			Paid:         rec.Paid,
			Balance:      rec.Balance,
			Borrowers:    borrowers,
		})
	}
	for _, s := range r.Skipped {
		out.Skipped = append(out.Skipped, SkippedLoan{LoanID: s.LoanID, Reason: string(s.Reason)})
	}
	return out
}

func FromPortfolioSummary(s *domain.PortfolioSummary) PortfolioSummary {
	if s == nil {
		return PortfolioSummary{}
	}
	return PortfolioSummary{AsOf: s.AsOf, DefaultedLoans: s.DefaultedLoans, InterestProfit: s.InterestProfit}
}

func FromSweepResult(r *ports.SweepResult) SweepResult {
	if r == nil {
		return SweepResult{}
	}
	return SweepResult{AsOf: r.AsOf, Arrears: r.Arrears, Reminders: r.Reminders, Skipped: r.Skipped}
}

func nullable(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

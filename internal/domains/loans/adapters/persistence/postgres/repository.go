package postgres

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/mikopo/internal/domains/loans/domain"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists customers, loans and transactions in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle
// and runs migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type customerRecord struct {
	ID        int64     `gorm:"primaryKey;column:id;autoIncrement"`
	OfficeID  int64     `gorm:"column:office_id;index"`
	FullName  string    `gorm:"column:full_name"`
	Phone     string    `gorm:"column:phone"`
	Email     string    `gorm:"column:email"`
	Address   string    `gorm:"column:address"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (customerRecord) TableName() string { return "customers" }

// borrowerRow is the scan target of the loan_borrowers/customers join. Every
// column is declared explicitly since GORM ignores unexported embedded structs.
type borrowerRow struct {
	LoanID    int64     `gorm:"column:loan_id"`
	ID        int64     `gorm:"column:id"`
	OfficeID  int64     `gorm:"column:office_id"`
	FullName  string    `gorm:"column:full_name"`
	Phone     string    `gorm:"column:phone"`
	Email     string    `gorm:"column:email"`
	Address   string    `gorm:"column:address"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (r borrowerRow) customer() customerRecord {
	return customerRecord{
		ID:        r.ID,
		OfficeID:  r.OfficeID,
		FullName:  r.FullName,
		Phone:     r.Phone,
		Email:     r.Email,
		Address:   r.Address,
		CreatedAt: r.CreatedAt,
	}
}

type loanRecord struct {
	ID           int64               `gorm:"primaryKey;column:id;autoIncrement"`
	OfficeID     int64               `gorm:"column:office_id;index:idx_loans_office_status"`
	LoanType     string              `gorm:"column:loan_type;type:varchar(16)"`
	Principal    decimal.NullDecimal `gorm:"column:principal;type:numeric(14,2)"`
	InterestRate decimal.NullDecimal `gorm:"column:interest_rate;type:numeric(7,4)"`
	TotalDue     decimal.NullDecimal `gorm:"column:total_due;type:numeric(14,2)"`
	IssueDate    *time.Time          `gorm:"column:issue_date;type:date;index"`
	Installments int                 `gorm:"column:installments"`
	Cadence      string              `gorm:"column:cadence;type:varchar(16)"`
	Status       string              `gorm:"column:status;type:varchar(16);index:idx_loans_office_status"`
	CreatedAt    time.Time           `gorm:"column:created_at"`
	UpdatedAt    time.Time           `gorm:"column:updated_at"`
}

func (loanRecord) TableName() string { return "loans" }

type borrowerRecord struct {
	LoanID     int64 `gorm:"primaryKey;column:loan_id"`
	CustomerID int64 `gorm:"primaryKey;column:customer_id;index"`
	Position   int   `gorm:"column:position"`
}

func (borrowerRecord) TableName() string { return "loan_borrowers" }

type transactionRecord struct {
	ID        int64           `gorm:"primaryKey;column:id;autoIncrement"`
	LoanID    int64           `gorm:"column:loan_id;index"`
	Direction string          `gorm:"column:direction;type:varchar(16)"`
	Category  string          `gorm:"column:category;type:varchar(16)"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(14,2)"`
	CreatedAt time.Time       `gorm:"column:created_at;index"`
}

func (transactionRecord) TableName() string { return "transactions" }

// Models lists the tables owned by this adapter, in dependency order.
func Models() []any {
	return []any{&customerRecord{}, &loanRecord{}, &borrowerRecord{}, &transactionRecord{}}
}

// SaveCustomer inserts or updates a customer.
func (r *Repository) SaveCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, errors.New("customer is nil")
	}
	record := customerRecord{
		ID:        customer.ID,
		OfficeID:  customer.OfficeID,
		FullName:  customer.FullName,
		Phone:     customer.Phone,
		Email:     customer.Email,
		Address:   customer.Address,
		CreatedAt: customer.CreatedAt,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"office_id", "full_name", "phone", "email", "address",
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetCustomer(ctx, record.ID)
}

// GetCustomer fetches a customer by identifier.
func (r *Repository) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record customerRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrCustomerNotFound
		}
		return nil, err
	}
	customer := record.toDomain()
	return &customer, nil
}

// CustomersByLoan loads the borrowers of every requested loan in one query.
func (r *Repository) CustomersByLoan(ctx context.Context, loanIDs []int64) (map[int64][]domain.Customer, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	result := make(map[int64][]domain.Customer, len(loanIDs))
	if len(loanIDs) == 0 {
		return result, nil
	}
	var rows []borrowerRow
	if err := r.db.WithContext(ctx).
		Table("loan_borrowers AS lb").
		Select("lb.loan_id, c.id, c.office_id, c.full_name, c.phone, c.email, c.address, c.created_at").
		Joins("JOIN customers AS c ON c.id = lb.customer_id").
		Where("lb.loan_id = ANY(?)", pq.Array(loanIDs)).
		Order("lb.loan_id, lb.position").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		result[rw.LoanID] = append(result[rw.LoanID], rw.customer().toDomain())
	}
	return result, nil
}

// SaveLoan upserts the loan row and replaces its borrower links atomically.
func (r *Repository) SaveLoan(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, errors.New("loan is nil")
	}
	record := toLoanRecord(loan)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"office_id":     record.OfficeID,
				"loan_type":     record.LoanType,
				"principal":     record.Principal,
				"interest_rate": record.InterestRate,
				"total_due":     record.TotalDue,
				"issue_date":    record.IssueDate,
				"installments":  record.Installments,
				"cadence":       record.Cadence,
				"status":        record.Status,
				"updated_at":    gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
			return err
		}
		if err := tx.Where("loan_id = ?", record.ID).Delete(&borrowerRecord{}).Error; err != nil {
			return err
		}
		if len(loan.BorrowerIDs) == 0 {
			return nil
		}
		links := make([]borrowerRecord, 0, len(loan.BorrowerIDs))
		for i, customerID := range loan.BorrowerIDs {
			links = append(links, borrowerRecord{LoanID: record.ID, CustomerID: customerID, Position: i})
		}
		return tx.Create(&links).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetLoan(ctx, record.ID)
}

// GetLoan fetches a loan and its borrower ids.
func (r *Repository) GetLoan(ctx context.Context, id int64) (*domain.Loan, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record loanRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrLoanNotFound
		}
		return nil, err
	}
	loans, err := r.withBorrowers(ctx, []loanRecord{record})
	if err != nil {
		return nil, err
	}
	return loans[0], nil
}

// ListLoans returns loans matching filter ordered by id.
func (r *Repository) ListLoans(ctx context.Context, filter ports.LoanFilter) ([]*domain.Loan, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Model(&loanRecord{})
	if filter.OfficeID > 0 {
		query = query.Where("office_id = ?", filter.OfficeID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status = ANY(?)", pq.Array(statusStrings(filter.Statuses)))
	}
	var records []loanRecord
	if err := query.Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return r.withBorrowers(ctx, records)
}

func (r *Repository) withBorrowers(ctx context.Context, records []loanRecord) ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0, len(records))
	if len(records) == 0 {
		return loans, nil
	}
	ids := make([]int64, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].ID)
	}
	type borrowerSet struct {
		LoanID      int64         `gorm:"column:loan_id"`
		CustomerIDs pq.Int64Array `gorm:"column:customer_ids"`
	}
	var sets []borrowerSet
	if err := r.db.WithContext(ctx).
		Model(&borrowerRecord{}).
		Select("loan_id, array_agg(customer_id ORDER BY position) AS customer_ids").
		Where("loan_id = ANY(?)", pq.Array(ids)).
		Group("loan_id").
		Scan(&sets).Error; err != nil {
		return nil, err
	}
	byLoan := make(map[int64][]int64, len(sets))
	for _, set := range sets {
		byLoan[set.LoanID] = []int64(set.CustomerIDs)
	}
	for i := range records {
		loan := records[i].toDomain()
		loan.BorrowerIDs = byLoan[loan.ID]
		loans = append(loans, loan)
	}
	return loans, nil
}

// SaveTransaction appends a transaction.
func (r *Repository) SaveTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	record := transactionRecord{
		LoanID:    tx.LoanID,
		Direction: string(tx.Direction),
		Category:  string(tx.Category),
		Amount:    tx.Amount,
		CreatedAt: tx.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	saved := record.toDomain()
	return &saved, nil
}

// ListTransactions returns a loan's transactions in creation order.
func (r *Repository) ListTransactions(ctx context.Context, loanID int64) ([]domain.Transaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []transactionRecord
	if err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at, id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(records))
	for i := range records {
		txs = append(txs, records[i].toDomain())
	}
	return txs, nil
}

// RepaymentsByLoan loads repayment deposits for the requested loans in one query.
func (r *Repository) RepaymentsByLoan(ctx context.Context, loanIDs []int64) (map[int64][]domain.Transaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	result := make(map[int64][]domain.Transaction, len(loanIDs))
	if len(loanIDs) == 0 {
		return result, nil
	}
	var records []transactionRecord
	if err := r.db.WithContext(ctx).
		Where("loan_id = ANY(?) AND direction = ? AND category = ?",
			pq.Array(loanIDs), string(domain.DirectionDeposit), string(domain.CategoryRepayment)).
		Order("loan_id, created_at, id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		result[records[i].LoanID] = append(result[records[i].LoanID], records[i].toDomain())
	}
	return result, nil
}

// CountDefaulted counts defaulted loans issued on or before asOf.
func (r *Repository) CountDefaulted(ctx context.Context, asOf civil.Date) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&loanRecord{}).
		Where("status = ? AND issue_date IS NOT NULL AND issue_date <= ?", string(domain.StatusDefaulted), dateValue(asOf)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumInterest sums principal × rate/100 in SQL so no loan rows are loaded.
func (r *Repository) SumInterest(ctx context.Context, asOf civil.Date) (decimal.Decimal, error) {
	if err := r.ensureDB(); err != nil {
		return decimal.Zero, err
	}
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&loanRecord{}).
		Select("COALESCE(SUM(principal * interest_rate / 100), 0)").
		Where("status = ANY(?) AND issue_date IS NOT NULL AND issue_date <= ? AND principal IS NOT NULL AND interest_rate IS NOT NULL",
			pq.Array([]string{string(domain.StatusApproved), string(domain.StatusDefaulted)}), dateValue(asOf)).
		Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres loans repository not configured")
	}
	return nil
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func dateValue(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func (r customerRecord) toDomain() domain.Customer {
	return domain.Customer{
		ID:        r.ID,
		OfficeID:  r.OfficeID,
		FullName:  r.FullName,
		Phone:     r.Phone,
		Email:     r.Email,
		Address:   r.Address,
		CreatedAt: r.CreatedAt,
	}
}

func toLoanRecord(loan *domain.Loan) loanRecord {
	rec := loanRecord{
		ID:           loan.ID,
		OfficeID:     loan.OfficeID,
		LoanType:     string(loan.Type),
		Principal:    loan.Principal,
		InterestRate: loan.InterestRate,
		TotalDue:     loan.TotalDue,
		Installments: loan.Installments,
		Cadence:      string(loan.Cadence),
		Status:       string(loan.Status),
		CreatedAt:    loan.CreatedAt,
	}
	if loan.IssueDate != nil {
		t := dateValue(*loan.IssueDate)
		rec.IssueDate = &t
	}
	return rec
}

func (r loanRecord) toDomain() *domain.Loan {
	loan := &domain.Loan{
		ID:           r.ID,
		OfficeID:     r.OfficeID,
		Type:         domain.LoanType(r.LoanType),
		Principal:    r.Principal,
		InterestRate: r.InterestRate,
		TotalDue:     r.TotalDue,
		Installments: r.Installments,
		Cadence:      domain.NormalizeCadence(r.Cadence),
		Status:       domain.Status(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.IssueDate != nil {
		d := civil.DateOf(r.IssueDate.UTC())
		loan.IssueDate = &d
	}
	return loan
}

func (r transactionRecord) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:        r.ID,
		LoanID:    r.LoanID,
		Direction: domain.Direction(r.Direction),
		Category:  domain.Category(r.Category),
		Amount:    r.Amount,
		CreatedAt: r.CreatedAt,
	}
}

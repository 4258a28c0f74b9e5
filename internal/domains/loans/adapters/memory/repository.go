package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/Apurer/mikopo/internal/domains/loans/domain"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory loans persistence adapter.
type Repository struct {
	mu           sync.RWMutex
	customers    map[int64]*domain.Customer
	loans        map[int64]*domain.Loan
	transactions []domain.Transaction
	nextCustomer int64
	nextLoan     int64
	nextTx       int64
	now          func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		customers: map[int64]*domain.Customer{},
		loans:     map[int64]*domain.Loan{},
		now:       time.Now,
	}
}

// WithClock overrides the clock used for persistence timestamps.
func (r *Repository) WithClock(now func() time.Time) {
	if now == nil {
		return
	}
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Reset drops every stored record.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers = map[int64]*domain.Customer{}
	r.loans = map[int64]*domain.Loan{}
	r.transactions = nil
	r.nextCustomer, r.nextLoan, r.nextTx = 0, 0, 0
}

func (r *Repository) SaveCustomer(_ context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if customer == nil {
		return nil, errors.New("customer is nil")
	}
	clone := *customer
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextCustomer++
		clone.ID = r.nextCustomer
	} else if clone.ID > r.nextCustomer {
		r.nextCustomer = clone.ID
	}
	if existing, ok := r.customers[clone.ID]; ok {
		clone.CreatedAt = existing.CreatedAt
	} else if clone.CreatedAt.IsZero() {
		clone.CreatedAt = r.now()
	}
	r.customers[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *Repository) GetCustomer(_ context.Context, id int64) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	customer, ok := r.customers[id]
	if !ok {
		return nil, ports.ErrCustomerNotFound
	}
	clone := *customer
	return &clone, nil
}

func (r *Repository) CustomersByLoan(_ context.Context, loanIDs []int64) (map[int64][]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[int64][]domain.Customer, len(loanIDs))
	for _, loanID := range loanIDs {
		loan, ok := r.loans[loanID]
		if !ok {
			continue
		}
		for _, customerID := range loan.BorrowerIDs {
			if customer, ok := r.customers[customerID]; ok {
				result[loanID] = append(result[loanID], *customer)
			}
		}
	}
	return result, nil
}

func (r *Repository) SaveLoan(_ context.Context, loan *domain.Loan) (*domain.Loan, error) {
	if loan == nil {
		return nil, errors.New("loan is nil")
	}
	clone := loan.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextLoan++
		clone.ID = r.nextLoan
	} else if clone.ID > r.nextLoan {
		r.nextLoan = clone.ID
	}
	now := r.now()
	if existing, ok := r.loans[clone.ID]; ok {
		clone.CreatedAt = existing.CreatedAt
	} else if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	clone.UpdatedAt = now
	r.loans[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) GetLoan(_ context.Context, id int64) (*domain.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loan, ok := r.loans[id]
	if !ok {
		return nil, ports.ErrLoanNotFound
	}
	return loan.Clone(), nil
}

func (r *Repository) ListLoans(_ context.Context, filter ports.LoanFilter) ([]*domain.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Loan, 0, len(r.loans))
	for _, loan := range r.loans {
		if filter.OfficeID != 0 && loan.OfficeID != filter.OfficeID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, loan.Status) {
			continue
		}
		list = append(list, loan.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) SaveTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	clone := *tx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loans[clone.LoanID]; !ok {
		return nil, ports.ErrLoanNotFound
	}
	r.nextTx++
	clone.ID = r.nextTx
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = r.now()
	}
	r.transactions = append(r.transactions, clone)
	return &clone, nil
}

func (r *Repository) ListTransactions(_ context.Context, loanID int64) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []domain.Transaction
	for _, tx := range r.transactions {
		if tx.LoanID == loanID {
			list = append(list, tx)
		}
	}
	return list, nil
}

func (r *Repository) RepaymentsByLoan(_ context.Context, loanIDs []int64) (map[int64][]domain.Transaction, error) {
	wanted := make(map[int64]struct{}, len(loanIDs))
	for _, id := range loanIDs {
		wanted[id] = struct{}{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[int64][]domain.Transaction, len(loanIDs))
	for _, tx := range r.transactions {
		if _, ok := wanted[tx.LoanID]; ok && tx.IsRepayment() {
			result[tx.LoanID] = append(result[tx.LoanID], tx)
		}
	}
	return result, nil
}

func (r *Repository) CountDefaulted(_ context.Context, asOf civil.Date) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, loan := range r.loans {
		if loan.Status == domain.StatusDefaulted && loan.IssuedOnOrBefore(asOf) {
			count++
		}
	}
	return count, nil
}

func (r *Repository) SumInterest(_ context.Context, asOf civil.Date) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, loan := range r.loans {
		if !loan.Status.Projectable() || !loan.IssuedOnOrBefore(asOf) {
			continue
		}
		if !loan.Principal.Valid || !loan.InterestRate.Valid {
			continue
		}
		sum = sum.Add(domain.InterestOn(loan.Principal.Decimal, loan.InterestRate.Decimal))
	}
	return sum, nil
}

func containsStatus(statuses []domain.Status, status domain.Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

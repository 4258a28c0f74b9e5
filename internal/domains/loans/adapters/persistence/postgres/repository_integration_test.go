//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	loanspostgres "github.com/Apurer/mikopo/internal/domains/loans/adapters/persistence/postgres"
	"github.com/Apurer/mikopo/internal/domains/loans/application"
	"github.com/Apurer/mikopo/internal/domains/loans/domain"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
	"github.com/Apurer/mikopo/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("mikopo_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}
	return db, cleanup
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func seedLoan(t *testing.T, repo *loanspostgres.Repository, office int64, borrowers []int64, principal, rate string, issued civil.Date) *domain.Loan {
	t.Helper()
	loanType := domain.LoanTypeIndividual
	if len(borrowers) > 1 {
		loanType = domain.LoanTypeGroup
	}
	loan, err := domain.NewLoan(office, loanType, decimal.RequireFromString(principal), decimal.RequireFromString(rate),
		3, domain.CadenceMonth, borrowers)
	require.NoError(t, err)
	require.NoError(t, loan.Approve(issued))
	saved, err := repo.SaveLoan(context.Background(), loan)
	require.NoError(t, err)
	return saved
}

func TestPostgresRepository_LoanRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := loanspostgres.NewRepository(db)
	ctx := context.Background()

	a, err := repo.SaveCustomer(ctx, &domain.Customer{OfficeID: 1, FullName: "Amina", Phone: "0712000001"})
	require.NoError(t, err)
	b, err := repo.SaveCustomer(ctx, &domain.Customer{OfficeID: 1, FullName: "Baraka", Phone: "0712000002"})
	require.NoError(t, err)

	saved := seedLoan(t, repo, 1, []int64{b.ID, a.ID}, "250000", "20", date(2025, 1, 1))
	assert.NotZero(t, saved.ID)
	assert.Equal(t, []int64{b.ID, a.ID}, saved.BorrowerIDs)
	require.NotNil(t, saved.IssueDate)
	assert.Equal(t, date(2025, 1, 1), *saved.IssueDate)
	assert.True(t, decimal.RequireFromString("300000").Equal(saved.TotalDue.Decimal))

	require.NoError(t, saved.Transition(domain.StatusDefaulted))
	updated, err := repo.SaveLoan(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDefaulted, updated.Status)

	borrowers, err := repo.CustomersByLoan(ctx, []int64{saved.ID})
	require.NoError(t, err)
	require.Len(t, borrowers[saved.ID], 2)
	assert.Equal(t, "Baraka", borrowers[saved.ID][0].FullName)

	_, err = repo.GetLoan(ctx, 9999)
	assert.ErrorIs(t, err, ports.ErrLoanNotFound)
	_, err = repo.GetCustomer(ctx, 9999)
	assert.ErrorIs(t, err, ports.ErrCustomerNotFound)
}

func TestPostgresRepository_NormalizesStoredCadence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := loanspostgres.NewRepository(db)
	ctx := context.Background()
	c, err := repo.SaveCustomer(ctx, &domain.Customer{OfficeID: 1, FullName: "Amina", Phone: "0712000001"})
	require.NoError(t, err)
	loan := seedLoan(t, repo, 1, []int64{c.ID}, "1000", "10", date(2025, 1, 1))

	require.NoError(t, db.Exec("UPDATE loans SET cadence = ' Month ' WHERE id = ?", loan.ID).Error)
	got, err := repo.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CadenceMonth, got.Cadence)
}

func TestPostgresRepository_Aggregates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := loanspostgres.NewRepository(db)
	ctx := context.Background()
	c, err := repo.SaveCustomer(ctx, &domain.Customer{OfficeID: 1, FullName: "Amina", Phone: "0712000001"})
	require.NoError(t, err)

	seedLoan(t, repo, 1, []int64{c.ID}, "1000", "12.5", date(2025, 1, 1))
	defaulted := seedLoan(t, repo, 1, []int64{c.ID}, "333.33", "10", date(2025, 2, 1))
	require.NoError(t, defaulted.Transition(domain.StatusDefaulted))
	_, err = repo.SaveLoan(ctx, defaulted)
	require.NoError(t, err)
	seedLoan(t, repo, 1, []int64{c.ID}, "5000", "10", date(2025, 6, 1))

	count, err := repo.CountDefaulted(ctx, date(2025, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	sum, err := repo.SumInterest(ctx, date(2025, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, "158.33", domain.RoundMoney(sum).StringFixed(2))

	empty, err := repo.SumInterest(ctx, date(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestPostgresRepository_ArrearsThroughService(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := loanspostgres.NewRepository(db)
	svc := application.NewService(repo, nil, time.UTC)
	ctx := context.Background()

	c, err := svc.RegisterCustomer(ctx, ports.RegisterCustomerInput{OfficeID: 1, FullName: "Amina", Phone: "0712000001"})
	require.NoError(t, err)
	loan := seedLoan(t, repo, 1, []int64{c.ID}, "250000", "20", date(2025, 1, 1))
	_, err = svc.RecordTransaction(ctx, ports.RecordTransactionInput{
		LoanID:    loan.ID,
		Direction: domain.DirectionDeposit,
		Category:  domain.CategoryRepayment,
		Amount:    decimal.RequireFromString("50000"),
		At:        time.Date(2025, 2, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	report, err := svc.ListLoansInArrears(ctx, ports.ArrearsQuery{AsOf: date(2025, 3, 15)})
	require.NoError(t, err)
	require.Len(t, report.Records, 1)
	assert.Equal(t, "150000.00", report.Records[0].Balance.StringFixed(2))
	require.Len(t, report.Records[0].Borrowers, 1)
	assert.Equal(t, "Amina", report.Records[0].Borrowers[0].FullName)
}

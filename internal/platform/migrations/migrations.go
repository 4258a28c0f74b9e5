package migrations

import (
	"gorm.io/gorm"

	loanspostgres "github.com/Apurer/mikopo/internal/domains/loans/adapters/persistence/postgres"
)

// statements run after AutoMigrate; each must be idempotent.
var statements = []string{
	`CREATE INDEX IF NOT EXISTS idx_transactions_repayments
		ON transactions (loan_id, created_at)
		WHERE direction = 'kuweka' AND category = 'rejesho'`,
	`CREATE INDEX IF NOT EXISTS idx_loans_projectable
		ON loans (id)
		WHERE status IN ('approved', 'defaulted')`,
}

// Run applies the loans schema.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(loanspostgres.Models()...); err != nil {
		return err
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

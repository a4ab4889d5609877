package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/influencelytic/marketplace/internal/repository"
	"gorm.io/gorm"
)

func createTransactionsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_transactions",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.TransactionModel{}); err != nil {
				return err
			}
			indexes := []string{
				// at most one transaction per application; makes the
				// payment double-submit race safe at the schema level
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_application ON transactions (application_id)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_payment_intent ON transactions (payment_intent_id)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_status_created ON transactions (status, created_at)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.TransactionModel{})
		},
	}
}

package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/influencelytic/marketplace/internal/repository"
	"gorm.io/gorm"
)

func createProfilesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_profiles",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ProfileModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_stripe_account ON profiles (stripe_account_id) WHERE stripe_account_id IS NOT NULL`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ProfileModel{})
		},
	}
}

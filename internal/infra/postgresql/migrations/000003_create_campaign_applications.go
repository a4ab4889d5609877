package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/influencelytic/marketplace/internal/repository"
	"gorm.io/gorm"
)

func createCampaignApplicationsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_campaign_applications",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ApplicationModel{}); err != nil {
				return err
			}
			indexes := []string{
				// one application per influencer per campaign
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_campaign_influencer ON campaign_applications (campaign_id, influencer_id)`,
				`CREATE INDEX IF NOT EXISTS idx_applications_influencer ON campaign_applications (influencer_id)`,
				`CREATE INDEX IF NOT EXISTS idx_applications_status ON campaign_applications (status)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ApplicationModel{})
		},
	}
}

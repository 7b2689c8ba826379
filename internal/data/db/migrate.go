package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/domain/jobs"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// =========================
		// Campaigns + canvas
		// =========================
		&campaign.Campaign{},
		&campaign.Asset{},
		&campaign.AssetVersion{},
		&campaign.CanvasModification{},
		&campaign.ChatMessage{},

		// =========================
		// Jobs / worker
		// =========================
		&jobs.JobRun{},
	)
}

// EnsureCanvasIndexes adds the partial unique index that keeps one live
// copy/image asset per campaign day and one live plan per campaign.
func EnsureCanvasIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_campaign_asset_day_unique
		ON campaign_asset(campaign_id, asset_type, day_number)
		WHERE deleted_at IS NULL AND asset_type IN ('copy', 'image');
	`).Error; err != nil {
		return fmt.Errorf("create idx_campaign_asset_day_unique: %w", err)
	}
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_campaign_asset_plan_unique
		ON campaign_asset(campaign_id)
		WHERE deleted_at IS NULL AND asset_type = 'plan';
	`).Error; err != nil {
		return fmt.Errorf("create idx_campaign_asset_plan_unique: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_chat_message_campaign_created ON chat_message(campaign_id, created_at);`).Error; err != nil {
		return fmt.Errorf("create idx_chat_message_campaign_created: %w", err)
	}
	return nil
}

// Migrate runs AutoMigrateAll followed by the raw index statements.
func (s *Service) Migrate() error {
	if err := AutoMigrateAll(s.db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureCanvasIndexes(s.db)
}

package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/data/repos/jobs"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

type CampaignRepo = campaign.CampaignRepo
type AssetRepo = campaign.AssetRepo
type AssetVersionRepo = campaign.AssetVersionRepo
type ModificationRepo = campaign.ModificationRepo
type ChatMessageRepo = campaign.ChatMessageRepo

type JobRunRepo = jobs.JobRunRepo

func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	return campaign.NewCampaignRepo(db, baseLog)
}
func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return campaign.NewAssetRepo(db, baseLog)
}
func NewAssetVersionRepo(db *gorm.DB, baseLog *logger.Logger) AssetVersionRepo {
	return campaign.NewAssetVersionRepo(db, baseLog)
}
func NewModificationRepo(db *gorm.DB, baseLog *logger.Logger) ModificationRepo {
	return campaign.NewModificationRepo(db, baseLog)
}
func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return campaign.NewChatMessageRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}

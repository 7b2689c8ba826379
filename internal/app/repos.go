package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

type Repos struct {
	Campaign     repos.CampaignRepo
	Asset        repos.AssetRepo
	AssetVersion repos.AssetVersionRepo
	Modification repos.ModificationRepo
	ChatMessage  repos.ChatMessageRepo
	JobRun       repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Campaign:     repos.NewCampaignRepo(db, log),
		Asset:        repos.NewAssetRepo(db, log),
		AssetVersion: repos.NewAssetVersionRepo(db, log),
		Modification: repos.NewModificationRepo(db, log),
		ChatMessage:  repos.NewChatMessageRepo(db, log),
		JobRun:       repos.NewJobRunRepo(db, log),
	}
}

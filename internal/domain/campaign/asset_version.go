package campaign

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssetVersion is the content of an asset as it was before a modification.
type AssetVersion struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_asset_version_number,priority:1" json:"asset_id"`
	CampaignID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"campaign_id"`
	VersionNumber int            `gorm:"column:version_number;not null;uniqueIndex:idx_asset_version_number,priority:2" json:"version_number"`
	Content       datatypes.JSON `gorm:"column:content;type:jsonb" json:"content"`
	Metadata      datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AssetVersion) TableName() string { return "campaign_asset_version" }

func (v *AssetVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VersionScopeInfluencerSet marks a snapshot of a whole influencer list.
const VersionScopeInfluencerSet = "influencer_set"

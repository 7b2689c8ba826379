package campaign

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Kind string

const (
	KindCopy       Kind = "copy"
	KindImage      Kind = "image"
	KindInfluencer Kind = "influencer"
	KindPlan       Kind = "plan"
	KindUnknown    Kind = "unknown"
)

var Kinds = []Kind{KindCopy, KindImage, KindInfluencer, KindPlan}

// DayScoped kinds have exactly one asset per (campaign, kind, day).
func (k Kind) DayScoped() bool { return k == KindCopy || k == KindImage }

func (k Kind) Valid() bool {
	switch k {
	case KindCopy, KindImage, KindInfluencer, KindPlan:
		return true
	default:
		return false
	}
}

// ParseKind accepts both asset kinds and the agent names used by planners.
func ParseKind(raw string) Kind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "copy", "content", "content_agent", "caption", "post":
		return KindCopy
	case "image", "image_agent", "photo", "visual":
		return KindImage
	case "influencer", "influencers", "influencer_agent":
		return KindInfluencer
	case "plan", "plan_agent", "execution_plan":
		return KindPlan
	default:
		return KindUnknown
	}
}

type AssetStatus string

const (
	AssetPending    AssetStatus = "pending"
	AssetGenerating AssetStatus = "generating"
	AssetCompleted  AssetStatus = "completed"
	AssetFailed     AssetStatus = "failed"
)

type Asset struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID uuid.UUID      `gorm:"type:uuid;not null;index:idx_campaign_asset_lookup,priority:1" json:"campaign_id"`
	AssetType  Kind           `gorm:"column:asset_type;type:text;not null;index:idx_campaign_asset_lookup,priority:2" json:"asset_type"`
	DayNumber  *int           `gorm:"column:day_number;index:idx_campaign_asset_lookup,priority:3" json:"day_number"`
	Content    datatypes.JSON `gorm:"column:content;type:jsonb" json:"content"`
	Status     AssetStatus    `gorm:"column:status;type:text;not null;index" json:"status"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;index" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Asset) TableName() string { return "campaign_asset" }

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AssetPending
	}
	return nil
}

// Check enforces the per-kind day rules.
func (a *Asset) Check() error {
	if !a.AssetType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAssetKind, a.AssetType)
	}
	if a.AssetType.DayScoped() && (a.DayNumber == nil || *a.DayNumber < 1) {
		return fmt.Errorf("%s asset requires a day number", a.AssetType)
	}
	if !a.AssetType.DayScoped() && a.DayNumber != nil {
		return fmt.Errorf("%s asset must not carry a day number", a.AssetType)
	}
	return nil
}

func (a *Asset) Day() int {
	if a == nil || a.DayNumber == nil {
		return 0
	}
	return *a.DayNumber
}

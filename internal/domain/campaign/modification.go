package campaign

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CanvasModification tracks one user edit request. NewContent stays NULL until
// the batch finishes and is written once.
type CanvasModification struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"campaign_id"`
	UserMessage      string         `gorm:"column:user_message;type:text;not null" json:"user_message"`
	ModificationType Operation      `gorm:"column:modification_type;type:text;not null" json:"modification_type"`
	Mode             Mode           `gorm:"column:mode;type:text;not null" json:"mode"`
	Actions          datatypes.JSON `gorm:"column:actions;type:jsonb" json:"actions,omitempty"`
	AffectedAssetID  *uuid.UUID     `gorm:"type:uuid;column:affected_asset_id" json:"affected_asset_id,omitempty"`
	PreviousContent  datatypes.JSON `gorm:"column:previous_content;type:jsonb" json:"previous_content,omitempty"`
	NewContent       datatypes.JSON `gorm:"column:new_content;type:jsonb" json:"new_content,omitempty"`
	SuccessCount     int            `gorm:"column:success_count;not null;default:0" json:"success_count"`
	TotalCount       int            `gorm:"column:total_count;not null;default:0" json:"total_count"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
	CompletedAt      *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (CanvasModification) TableName() string { return "canvas_modification" }

func (m *CanvasModification) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Done is the polling completion signal.
func (m *CanvasModification) Done() bool {
	s := strings.TrimSpace(string(m.NewContent))
	return s != "" && s != "null"
}

type PollStatus string

const (
	PollProcessing PollStatus = "processing"
	PollCompleted  PollStatus = "completed"
)

func (m *CanvasModification) PollStatus() PollStatus {
	if m.Done() {
		return PollCompleted
	}
	return PollProcessing
}

// ModificationTypeFor takes the first action's operation.
func ModificationTypeFor(actions []Action) Operation {
	if len(actions) == 0 || actions[0].Operation == "" {
		return OpModifyContent
	}
	return actions[0].Operation
}

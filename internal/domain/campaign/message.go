package campaign

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Event values stored under metadata.event for system messages.
const (
	EventExecutionStarted  = "execution_started"
	EventExecutionProgress = "execution_progress"
	EventModification      = "modification"
)

// ChatMessage is one entry of a campaign's conversation and progress timeline.
type ChatMessage struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID uuid.UUID      `gorm:"type:uuid;not null;index" json:"campaign_id"`
	Role       Role           `gorm:"column:role;type:text;not null" json:"role"`
	Content    string         `gorm:"column:content;type:text;not null" json:"content"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

package campaign

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusDrafting   Status = "drafting"
	StatusDraftReady Status = "draft_ready"
	StatusExecuting  Status = "executing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var transitions = map[Status][]Status{
	StatusDrafting:   {StatusDraftReady},
	StatusDraftReady: {StatusDraftReady, StatusExecuting},
	StatusExecuting:  {StatusCompleted, StatusFailed},
}

// CanTransition reports whether a campaign may move from one status to another.
// Terminal statuses have no outgoing edges.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

type Campaign struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Title                string         `gorm:"column:title;type:text" json:"title"`
	Status               Status         `gorm:"column:status;type:text;not null;index" json:"status"`
	DraftJSON            datatypes.JSON `gorm:"column:draft_json;type:jsonb" json:"draft_json,omitempty"`
	FinalDraftJSON       datatypes.JSON `gorm:"column:final_draft_json;type:jsonb" json:"final_draft_json,omitempty"`
	ExecutionStartedAt   *time.Time     `gorm:"column:execution_started_at" json:"execution_started_at,omitempty"`
	ExecutionCompletedAt *time.Time     `gorm:"column:execution_completed_at" json:"execution_completed_at,omitempty"`
	CreatedAt            time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;index" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Campaign) TableName() string { return "campaign" }

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusDrafting
	}
	return nil
}

// Draft decodes the mutable strategy draft. ok is false when none is stored.
func (c *Campaign) Draft() (s Strategy, ok bool, err error) {
	return decodeStrategy(c.DraftJSON)
}

// FinalDraft decodes the confirmed strategy snapshot.
func (c *Campaign) FinalDraft() (s Strategy, ok bool, err error) {
	return decodeStrategy(c.FinalDraftJSON)
}

// EffectiveDraft prefers the final draft and falls back to the working draft.
func (c *Campaign) EffectiveDraft() (Strategy, error) {
	if s, ok, err := c.FinalDraft(); err != nil {
		return Strategy{}, err
	} else if ok {
		return s, nil
	}
	if s, ok, err := c.Draft(); err != nil {
		return Strategy{}, err
	} else if ok {
		return s, nil
	}
	return Strategy{}, ErrNoDraft
}

// ExecutionSeconds is zero until both execution timestamps are known.
func (c *Campaign) ExecutionSeconds() float64 {
	if c.ExecutionStartedAt == nil || c.ExecutionCompletedAt == nil {
		return 0
	}
	return c.ExecutionCompletedAt.Sub(*c.ExecutionStartedAt).Seconds()
}

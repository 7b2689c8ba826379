package realtime

import (
	"strings"

	"github.com/google/uuid"
)

type SSEEvent string

const (
	EventCampaignProgress     SSEEvent = "CampaignProgress"
	EventCampaignStatus       SSEEvent = "CampaignStatus"
	EventChatMessage          SSEEvent = "ChatMessage"
	EventModificationComplete SSEEvent = "ModificationComplete"
	EventJobCreated           SSEEvent = "JobCreated"
	EventJobProgress          SSEEvent = "JobProgress"
	EventJobDone              SSEEvent = "JobDone"
	EventJobFailed            SSEEvent = "JobFailed"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

const campaignPrefix = "campaign:"

// CampaignChannel is the channel carrying one campaign's timeline.
func CampaignChannel(id uuid.UUID) string { return campaignPrefix + id.String() }

// UserChannel carries events addressed to a user, such as job updates.
func UserChannel(id uuid.UUID) string { return id.String() }

// ParseCampaignChannel returns the campaign id of a campaign channel.
func ParseCampaignChannel(channel string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(channel), campaignPrefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

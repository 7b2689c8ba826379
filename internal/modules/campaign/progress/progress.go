// Package progress records pipeline milestones on a campaign's chat
// timeline and pushes them to live subscribers.
package progress

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos"
	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime/bus"
)

type Reporter interface {
	Report(ctx context.Context, campaignID uuid.UUID, event, content string, data map[string]any)
}

// Recorder stores each milestone as a system chat message and publishes it.
// Failures are logged; progress never fails the pipeline.
type Recorder struct {
	messages repos.ChatMessageRepo
	bus      bus.Bus
	log      *logger.Logger
}

func NewRecorder(messages repos.ChatMessageRepo, b bus.Bus, baseLog *logger.Logger) *Recorder {
	return &Recorder{messages: messages, bus: b, log: baseLog.With("component", "ProgressRecorder")}
}

func (r *Recorder) Report(ctx context.Context, campaignID uuid.UUID, event, content string, data map[string]any) {
	ctx = context.WithoutCancel(ctx)
	meta := map[string]any{"event": event}
	for k, v := range data {
		meta[k] = v
	}
	msg := &domain.ChatMessage{
		CampaignID: campaignID,
		Role:       domain.RoleSystem,
		Content:    content,
		Metadata:   encode(meta),
	}
	if r.messages != nil {
		saved, err := r.messages.Create(dbctx.New(ctx), msg)
		if err != nil {
			r.log.Warn("progress message not stored", "campaign_id", campaignID, "event", event, "error", err)
		} else if saved != nil {
			msg = saved
		}
	}
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(ctx, realtime.SSEMessage{
		Channel: realtime.CampaignChannel(campaignID),
		Event:   realtime.EventCampaignProgress,
		Data:    msg,
	}); err != nil {
		r.log.Warn("progress publish failed", "campaign_id", campaignID, "event", event, "error", err)
	}
}

func encode(meta map[string]any) datatypes.JSON {
	raw, err := json.Marshal(meta)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}

// Entry is one reported milestone.
type Entry struct {
	CampaignID uuid.UUID
	Event      string
	Content    string
	Data       map[string]any
}

// Memory keeps reported milestones in order.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *Memory) Report(ctx context.Context, campaignID uuid.UUID, event, content string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{CampaignID: campaignID, Event: event, Content: content, Data: data})
}

func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Contents lists the reported texts in order.
func (m *Memory) Contents() []string {
	entries := m.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Content
	}
	return out
}

type Nop struct{}

func (Nop) Report(context.Context, uuid.UUID, string, string, map[string]any) {}

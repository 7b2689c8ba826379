package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos"
	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	jobtypes "github.com/yungbote/campaign-canvas-backend/internal/domain/jobs"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/generators"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/apierr"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime/bus"
)

const (
	MsgExecutionStarted = "Campaign execution started. Generating assets..."
	msgNoDraft          = "No draft found. Please create a strategy first."
)

// StrategyWriter drafts and refines campaign strategies.
// *generators.StrategyGenerator satisfies it.
type StrategyWriter interface {
	Draft(ctx context.Context, brief string) (domain.Strategy, error)
	Refine(ctx context.Context, current domain.Strategy, message string, history []*domain.ChatMessage) (domain.Strategy, error)
	Reply(ctx context.Context, s *domain.Strategy, message string) string
}

type ChatReply struct {
	UserMessage      *domain.ChatMessage `json:"user_message"`
	AssistantMessage *domain.ChatMessage `json:"assistant_message"`
	DraftUpdated     bool                `json:"draft_updated"`
	CampaignStatus   domain.Status       `json:"campaign_status"`
}

type ExecutionStart struct {
	CampaignID         uuid.UUID     `json:"campaign_id"`
	Status             domain.Status `json:"status"`
	Message            string        `json:"message"`
	ExecutionStartedAt time.Time     `json:"execution_started_at"`
	JobID              uuid.UUID     `json:"job_id"`
}

type ChatService interface {
	// SendMessage stores the user message, drafts the strategy on the first
	// message and refines it afterwards, then stores the assistant reply with
	// a snapshot of the draft.
	SendMessage(dbc dbctx.Context, campaignID uuid.UUID, content string) (*ChatReply, error)
	// ConfirmExecute freezes the draft as the final draft and queues asset
	// generation.
	ConfirmExecute(dbc dbctx.Context, campaignID uuid.UUID) (*ExecutionStart, error)
}

type chatService struct {
	db        *gorm.DB
	log       *logger.Logger
	campaigns repos.CampaignRepo
	messages  repos.ChatMessageRepo
	jobs      JobService
	writer    StrategyWriter
	bus       bus.Bus
}

func NewChatService(
	db *gorm.DB,
	baseLog *logger.Logger,
	campaigns repos.CampaignRepo,
	messages repos.ChatMessageRepo,
	jobs JobService,
	writer StrategyWriter,
	b bus.Bus,
) ChatService {
	return &chatService{
		db:        db,
		log:       baseLog.With("service", "ChatService"),
		campaigns: campaigns,
		messages:  messages,
		jobs:      jobs,
		writer:    writer,
		bus:       b,
	}
}

func (s *chatService) SendMessage(dbc dbctx.Context, campaignID uuid.UUID, content string) (*ChatReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apierr.BadRequest("invalid_request", "Message content is required")
	}
	c, err := ownedCampaign(dbc, s.campaigns, campaignID)
	if err != nil {
		return nil, err
	}
	current, hasDraft, err := c.Draft()
	if err != nil {
		return nil, apierr.Internal("decode_draft_failed", err)
	}
	history, err := s.messages.Recent(dbc, campaignID, generators.HistoryWindow)
	if err != nil {
		return nil, apierr.Internal("load_history_failed", err)
	}

	userMsg, err := s.messages.Create(dbc, &domain.ChatMessage{
		CampaignID: campaignID,
		Role:       domain.RoleUser,
		Content:    content,
	})
	if err != nil {
		return nil, apierr.Internal("save_message_failed", err)
	}
	s.publish(dbc.Ctx, userMsg)

	var draft domain.Strategy
	if hasDraft {
		draft, err = s.writer.Refine(dbc.Ctx, current, content, history)
	} else {
		draft, err = s.writer.Draft(dbc.Ctx, content)
	}
	if err != nil {
		s.log.Error("strategy generation failed", "campaign_id", campaignID, "first_message", !hasDraft, "error", err)
		return nil, apierr.Internal("process_message_failed", fmt.Errorf("Failed to process message: %w", err))
	}
	reply := s.writer.Reply(dbc.Ctx, &draft, content)

	raw, err := domain.EncodeStrategy(draft)
	if err != nil {
		return nil, apierr.Internal("encode_draft_failed", err)
	}
	status := c.Status
	var next *domain.Status
	if domain.CanTransition(c.Status, domain.StatusDraftReady) {
		ready := domain.StatusDraftReady
		next = &ready
		status = ready
	}
	title := draft.Title
	if title == "" {
		title = c.Title
	}
	meta, err := json.Marshal(map[string]any{"draft_snapshot": draft})
	if err != nil {
		return nil, apierr.Internal("encode_draft_failed", err)
	}
	assistant := &domain.ChatMessage{
		CampaignID: campaignID,
		Role:       domain.RoleAssistant,
		Content:    reply,
		Metadata:   datatypes.JSON(meta),
	}
	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := s.campaigns.UpdateDraft(inner, campaignID, raw, title, next); err != nil {
			return err
		}
		_, err := s.messages.Create(inner, assistant)
		return err
	})
	if err != nil {
		return nil, apierr.Internal("save_draft_failed", err)
	}
	s.publish(dbc.Ctx, assistant)
	s.publishStatus(dbc.Ctx, campaignID, status)

	s.log.Info("Draft updated", "campaign_id", campaignID, "status", status, "refined", hasDraft)
	return &ChatReply{
		UserMessage:      userMsg,
		AssistantMessage: assistant,
		DraftUpdated:     true,
		CampaignStatus:   status,
	}, nil
}

func (s *chatService) ConfirmExecute(dbc dbctx.Context, campaignID uuid.UUID) (*ExecutionStart, error) {
	c, err := ownedCampaign(dbc, s.campaigns, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.StatusDraftReady {
		return nil, apierr.BadRequest("not_ready", fmt.Sprintf("Campaign is not ready to execute. Current status: %s", c.Status))
	}
	draft, ok, err := c.Draft()
	if err != nil {
		return nil, apierr.BadRequest("invalid_draft", err.Error())
	}
	if !ok {
		return nil, apierr.BadRequest("no_draft", msgNoDraft)
	}
	if err := draft.Validate(); err != nil {
		return nil, apierr.From(err, "invalid_draft")
	}
	raw, err := domain.EncodeStrategy(draft)
	if err != nil {
		return nil, apierr.Internal("encode_draft_failed", err)
	}

	startedAt := time.Now().UTC()
	var (
		job    *jobtypes.JobRun
		system *domain.ChatMessage
	)
	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		confirmed, err := s.campaigns.ConfirmExecution(inner, campaignID, raw, startedAt)
		if err != nil {
			return err
		}
		if !confirmed {
			return apierr.New(http.StatusConflict, "not_ready", fmt.Errorf("Campaign is not ready to execute"))
		}
		system, err = s.messages.Create(inner, &domain.ChatMessage{
			CampaignID: campaignID,
			Role:       domain.RoleSystem,
			Content:    MsgExecutionStarted,
			Metadata:   datatypes.JSON([]byte(`{"event":"` + domain.EventExecutionStarted + `"}`)),
		})
		if err != nil {
			return err
		}
		id := campaignID
		job, err = s.jobs.Enqueue(inner, c.OwnerUserID, jobtypes.JobTypeCampaignExecute, jobtypes.EntityCampaign, &id, map[string]any{
			"campaign_id": campaignID.String(),
		})
		return err
	})
	if err != nil {
		return nil, apierr.From(err, "confirm_execute_failed")
	}
	s.publish(dbc.Ctx, system)
	s.publishStatus(dbc.Ctx, campaignID, domain.StatusExecuting)

	s.log.Info("Campaign execution queued", "campaign_id", campaignID, "job_id", job.ID)
	return &ExecutionStart{
		CampaignID:         campaignID,
		Status:             domain.StatusExecuting,
		Message:            "Campaign execution started successfully",
		ExecutionStartedAt: startedAt,
		JobID:              job.ID,
	}, nil
}

func (s *chatService) publish(ctx context.Context, m *domain.ChatMessage) {
	if s.bus == nil || m == nil {
		return
	}
	if err := s.bus.Publish(context.WithoutCancel(ctx), realtime.SSEMessage{
		Channel: realtime.CampaignChannel(m.CampaignID),
		Event:   realtime.EventChatMessage,
		Data:    m,
	}); err != nil {
		s.log.Warn("chat message publish failed", "campaign_id", m.CampaignID, "error", err)
	}
}

func (s *chatService) publishStatus(ctx context.Context, campaignID uuid.UUID, status domain.Status) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.WithoutCancel(ctx), realtime.SSEMessage{
		Channel: realtime.CampaignChannel(campaignID),
		Event:   realtime.EventCampaignStatus,
		Data:    map[string]any{"campaign_id": campaignID, "status": status},
	}); err != nil {
		s.log.Warn("status publish failed", "campaign_id", campaignID, "error", err)
	}
}

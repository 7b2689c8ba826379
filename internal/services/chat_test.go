package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	jobtypes "github.com/yungbote/campaign-canvas-backend/internal/domain/jobs"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime"
)

type fakeWriter struct {
	drafts  []string
	refines []string
	history []*domain.ChatMessage
	current domain.Strategy
	err     error
}

func (w *fakeWriter) Draft(ctx context.Context, brief string) (domain.Strategy, error) {
	w.drafts = append(w.drafts, brief)
	if w.err != nil {
		return domain.Strategy{}, w.err
	}
	s := testutil.TwoDayStrategy()
	s.Title = "Festive Glow"
	return s, nil
}

func (w *fakeWriter) Refine(ctx context.Context, current domain.Strategy, message string, history []*domain.ChatMessage) (domain.Strategy, error) {
	w.refines = append(w.refines, message)
	w.history = history
	w.current = current
	if w.err != nil {
		return domain.Strategy{}, w.err
	}
	current.TargetAudience = "Students"
	return current, nil
}

func (w *fakeWriter) Reply(ctx context.Context, s *domain.Strategy, message string) string {
	return "Here is your plan for " + s.Title
}

func newChat(t *testing.T, f *fixture, w StrategyWriter) ChatService {
	return NewChatService(f.db, testutil.Logger(t), f.campaigns, f.messages, f.jobs, w, f.bus)
}

func TestSendMessageDraftsOnFirstMessage(t *testing.T) {
	f := newFixture(t)
	w := &fakeWriter{}
	svc := newChat(t, f, w)
	c := testutil.SeedCampaign(t, context.Background(), f.db, f.user, domain.StatusDrafting, nil)

	reply, err := svc.SendMessage(f.dbc(), c.ID, "Plan a Diwali campaign")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(w.drafts) != 1 || len(w.refines) != 0 {
		t.Fatalf("want one draft call, got drafts=%v refines=%v", w.drafts, w.refines)
	}
	if reply.CampaignStatus != domain.StatusDraftReady || !reply.DraftUpdated {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.AssistantMessage.Content != "Here is your plan for Festive Glow" {
		t.Fatalf("assistant content: %q", reply.AssistantMessage.Content)
	}
	var meta struct {
		DraftSnapshot domain.Strategy `json:"draft_snapshot"`
	}
	if err := json.Unmarshal(reply.AssistantMessage.Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.DraftSnapshot.Title != "Festive Glow" {
		t.Fatalf("draft snapshot: %+v", meta.DraftSnapshot)
	}

	stored, err := f.campaigns.GetByID(f.dbc(), c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.StatusDraftReady || stored.Title != "Festive Glow" {
		t.Fatalf("campaign not updated: status=%s title=%q", stored.Status, stored.Title)
	}
	if _, ok, _ := stored.Draft(); !ok {
		t.Fatalf("draft not stored")
	}
	if len(stored.FinalDraftJSON) != 0 {
		t.Fatalf("final draft must stay empty")
	}
	msgs, _ := f.messages.ListByCampaign(f.dbc(), c.ID)
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
	if got := len(f.eventsOf(realtime.EventChatMessage)); got != 2 {
		t.Fatalf("chat events: want 2 got %d", got)
	}
}

func TestSendMessageRefinesExistingDraft(t *testing.T) {
	f := newFixture(t)
	w := &fakeWriter{}
	svc := newChat(t, f, w)
	s := testutil.TwoDayStrategy()
	c := testutil.SeedCampaign(t, context.Background(), f.db, f.user, domain.StatusDraftReady, &s)
	if _, err := f.messages.Create(f.dbc(), &domain.ChatMessage{CampaignID: c.ID, Role: domain.RoleUser, Content: "first"}); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	reply, err := svc.SendMessage(f.dbc(), c.ID, "Target students instead")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(w.refines) != 1 || len(w.drafts) != 0 {
		t.Fatalf("want one refine call, got drafts=%v refines=%v", w.drafts, w.refines)
	}
	if w.current.Title != "Monsoon Sale" {
		t.Fatalf("refine saw wrong draft: %+v", w.current)
	}
	if len(w.history) != 1 || w.history[0].Content != "first" {
		t.Fatalf("history should hold prior messages only: %+v", w.history)
	}
	if reply.CampaignStatus != domain.StatusDraftReady {
		t.Fatalf("status: %s", reply.CampaignStatus)
	}
	stored, _ := f.campaigns.GetByID(f.dbc(), c.ID)
	draft, _, _ := stored.Draft()
	if draft.TargetAudience != "Students" {
		t.Fatalf("refined draft not stored: %+v", draft)
	}
}

func TestSendMessageKeepsStatusAfterExecution(t *testing.T) {
	f := newFixture(t)
	svc := newChat(t, f, &fakeWriter{})
	s := testutil.TwoDayStrategy()
	c := testutil.SeedCampaign(t, context.Background(), f.db, f.user, domain.StatusCompleted, &s)

	reply, err := svc.SendMessage(f.dbc(), c.ID, "tweak the audience")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply.CampaignStatus != domain.StatusCompleted {
		t.Fatalf("completed campaign moved to %s", reply.CampaignStatus)
	}
}

func TestSendMessageErrors(t *testing.T) {
	f := newFixture(t)
	c := testutil.SeedCampaign(t, context.Background(), f.db, f.user, domain.StatusDrafting, nil)

	_, err := newChat(t, f, &fakeWriter{}).SendMessage(f.dbc(), c.ID, "  ")
	requireAPIError(t, err, http.StatusBadRequest, "Message content is required")

	_, err = newChat(t, f, &fakeWriter{}).SendMessage(f.as(uuid.New()), c.ID, "hello")
	requireAPIError(t, err, http.StatusNotFound, "Campaign not found")

	_, err = newChat(t, f, &fakeWriter{err: errors.New("model down")}).SendMessage(f.dbc(), c.ID, "hello")
	requireAPIError(t, err, http.StatusInternalServerError, "")
	stored, _ := f.campaigns.GetByID(f.dbc(), c.ID)
	if stored.Status != domain.StatusDrafting {
		t.Fatalf("failed generation changed status to %s", stored.Status)
	}
}

func TestConfirmExecuteQueuesExecution(t *testing.T) {
	f := newFixture(t)
	svc := newChat(t, f, &fakeWriter{})
	s := testutil.TwoDayStrategy()
	c := testutil.SeedCampaign(t, context.Background(), f.db, f.user, domain.StatusDraftReady, &s)

	start, err := svc.ConfirmExecute(f.dbc(), c.ID)
	if err != nil {
		t.Fatalf("ConfirmExecute: %v", err)
	}
	if start.Status != domain.StatusExecuting || start.JobID == uuid.Nil {
		t.Fatalf("unexpected start: %+v", start)
	}

	stored, _ := f.campaigns.GetByID(f.dbc(), c.ID)
	if stored.Status != domain.StatusExecuting || stored.ExecutionStartedAt == nil {
		t.Fatalf("campaign not executing: %+v", stored)
	}
	final, ok, err := stored.FinalDraft()
	if err != nil || !ok || final.Title != "Monsoon Sale" {
		t.Fatalf("final draft: ok=%v err=%v %+v", ok, err, final)
	}

	msgs, _ := f.messages.ListByCampaign(f.dbc(), c.ID)
	if len(msgs) != 1 || msgs[0].Role != domain.RoleSystem || msgs[0].Content != MsgExecutionStarted {
		t.Fatalf("system message: %+v", msgs)
	}
	var meta map[string]any
	_ = json.Unmarshal(msgs[0].Metadata, &meta)
	if meta["event"] != domain.EventExecutionStarted {
		t.Fatalf("metadata: %v", meta)
	}

	jobs, err := f.jobRuns.GetByIDs(f.dbc(), []uuid.UUID{start.JobID})
	if err != nil || len(jobs) != 1 {
		t.Fatalf("job lookup: %v %d", err, len(jobs))
	}
	job := jobs[0]
	if job.JobType != jobtypes.JobTypeCampaignExecute || job.Status != jobtypes.StatusQueued || job.OwnerUserID != f.user {
		t.Fatalf("unexpected job: %+v", job)
	}
	var payload map[string]any
	_ = json.Unmarshal(job.Payload, &payload)
	if payload["campaign_id"] != c.ID.String() {
		t.Fatalf("payload: %v", payload)
	}
	if len(f.eventsOf(realtime.EventJobCreated)) != 1 {
		t.Fatalf("job created event not published")
	}

	_, err = svc.ConfirmExecute(f.dbc(), c.ID)
	requireAPIError(t, err, http.StatusBadRequest, "Campaign is not ready to execute. Current status: executing")
}

func TestConfirmExecuteRejects(t *testing.T) {
	f := newFixture(t)
	svc := newChat(t, f, &fakeWriter{})
	ctx := context.Background()

	drafting := testutil.SeedCampaign(t, ctx, f.db, f.user, domain.StatusDrafting, nil)
	_, err := svc.ConfirmExecute(f.dbc(), drafting.ID)
	requireAPIError(t, err, http.StatusBadRequest, "Campaign is not ready to execute. Current status: drafting")

	noDraft := testutil.SeedCampaign(t, ctx, f.db, f.user, domain.StatusDraftReady, nil)
	_, err = svc.ConfirmExecute(f.dbc(), noDraft.ID)
	requireAPIError(t, err, http.StatusBadRequest, "No draft found. Please create a strategy first.")

	bad := testutil.TwoDayStrategy()
	bad.ColorScheme = []string{"#000"}
	invalid := testutil.SeedCampaign(t, ctx, f.db, f.user, domain.StatusDraftReady, &bad)
	_, err = svc.ConfirmExecute(f.dbc(), invalid.ID)
	requireAPIError(t, err, http.StatusBadRequest, "")

	stored, _ := f.campaigns.GetByID(f.dbc(), invalid.ID)
	if stored.Status != domain.StatusDraftReady || len(stored.FinalDraftJSON) != 0 {
		t.Fatalf("rejected confirmation mutated campaign: %+v", stored)
	}
}

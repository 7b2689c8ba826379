package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos"
	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	jobtypes "github.com/yungbote/campaign-canvas-backend/internal/domain/jobs"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/assets"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/modify"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/planner"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/apierr"
)

const (
	msgMessageRequired      = "Message is required"
	msgNoCampaignDraft      = "No campaign draft available"
	msgModificationNotFound = "Modification not found"
	msgClarifyDefault       = "Please provide more details about what you'd like to change."
	ModifyStatusCompleted   = "completed"
	ModifyStatusAccepted    = "accepted"
)

// Modifier executes planned action batches. *modify.Orchestrator satisfies it.
type Modifier interface {
	Route(actions []domain.Action) domain.Mode
	Execute(ctx context.Context, b modify.Batch) (modify.Report, error)
}

type DayPost struct {
	DayNumber int           `json:"day_number"`
	Copy      *domain.Asset `json:"copy"`
	Image     *domain.Asset `json:"image"`
}

type CanvasStats struct {
	TotalPosts       int           `json:"total_posts"`
	TotalInfluencers int           `json:"total_influencers"`
	Status           domain.Status `json:"status"`
	ExecutionTime    float64       `json:"execution_time"`
}

type CanvasView struct {
	Campaign    *domain.Campaign `json:"campaign"`
	Posts       []DayPost        `json:"posts"`
	Influencers []*domain.Asset  `json:"influencers"`
	Plan        *domain.Asset    `json:"plan"`
	Stats       CanvasStats      `json:"stats"`
}

type ModifyResult struct {
	ModificationID uuid.UUID      `json:"modification_id"`
	Status         string         `json:"status"`
	Result         *modify.Report `json:"result,omitempty"`
	JobID          *uuid.UUID     `json:"job_id,omitempty"`
	Mode           domain.Mode    `json:"-"`
}

// ModificationStatus is the poll view. Contents stay null until the batch
// has completed.
type ModificationStatus struct {
	Status          domain.PollStatus `json:"status"`
	AffectedAssetID *uuid.UUID        `json:"affected_asset_id"`
	PreviousContent json.RawMessage   `json:"previous_content"`
	NewContent      json.RawMessage   `json:"new_content"`
}

type CanvasService interface {
	Get(dbc dbctx.Context, campaignID uuid.UUID) (*CanvasView, error)
	// Modify plans the request and runs it inline when every action is copy,
	// otherwise queues it.
	Modify(dbc dbctx.Context, campaignID uuid.UUID, message string) (*ModifyResult, error)
	Poll(dbc dbctx.Context, campaignID uuid.UUID, modificationID uuid.UUID) (*ModificationStatus, error)
	Versions(dbc dbctx.Context, campaignID uuid.UUID, assetID uuid.UUID) ([]*domain.AssetVersion, error)
}

type canvasService struct {
	db            *gorm.DB
	log           *logger.Logger
	campaigns     repos.CampaignRepo
	modifications repos.ModificationRepo
	store         assets.Store
	planner       planner.Planner
	modifier      Modifier
	jobs          JobService
}

func NewCanvasService(
	db *gorm.DB,
	baseLog *logger.Logger,
	campaigns repos.CampaignRepo,
	modifications repos.ModificationRepo,
	store assets.Store,
	p planner.Planner,
	modifier Modifier,
	jobs JobService,
) CanvasService {
	return &canvasService{
		db:            db,
		log:           baseLog.With("service", "CanvasService"),
		campaigns:     campaigns,
		modifications: modifications,
		store:         store,
		planner:       p,
		modifier:      modifier,
		jobs:          jobs,
	}
}

// GroupCanvas arranges live assets into day posts ordered by day, the
// influencer list and the plan.
func GroupCanvas(list []*domain.Asset) ([]DayPost, []*domain.Asset, *domain.Asset) {
	days := map[int]*DayPost{}
	influencers := []*domain.Asset{}
	var plan *domain.Asset
	for _, a := range list {
		if a == nil {
			continue
		}
		switch a.AssetType {
		case domain.KindCopy, domain.KindImage:
			if a.DayNumber == nil {
				continue
			}
			d := *a.DayNumber
			p, ok := days[d]
			if !ok {
				p = &DayPost{DayNumber: d}
				days[d] = p
			}
			if a.AssetType == domain.KindCopy {
				p.Copy = a
			} else {
				p.Image = a
			}
		case domain.KindInfluencer:
			influencers = append(influencers, a)
		case domain.KindPlan:
			plan = a
		}
	}
	posts := make([]DayPost, 0, len(days))
	for _, p := range days {
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].DayNumber < posts[j].DayNumber })
	return posts, influencers, plan
}

func (s *canvasService) Get(dbc dbctx.Context, campaignID uuid.UUID) (*CanvasView, error) {
	c, err := ownedCampaign(dbc, s.campaigns, campaignID)
	if err != nil {
		return nil, err
	}
	list, err := s.store.List(dbc.Ctx, campaignID, nil)
	if err != nil {
		return nil, apierr.Internal("load_canvas_failed", err)
	}
	posts, influencers, plan := GroupCanvas(list)
	return &CanvasView{
		Campaign:    c,
		Posts:       posts,
		Influencers: influencers,
		Plan:        plan,
		Stats: CanvasStats{
			TotalPosts:       len(posts),
			TotalInfluencers: len(influencers),
			Status:           c.Status,
			ExecutionTime:    c.ExecutionSeconds(),
		},
	}, nil
}

func (s *canvasService) Modify(dbc dbctx.Context, campaignID uuid.UUID, message string) (*ModifyResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apierr.BadRequest("message_required", msgMessageRequired)
	}
	c, err := ownedCampaign(dbc, s.campaigns, campaignID)
	if err != nil {
		return nil, err
	}
	draft, err := c.EffectiveDraft()
	if errors.Is(err, domain.ErrNoDraft) {
		return nil, apierr.BadRequest("no_draft", msgNoCampaignDraft)
	}
	if err != nil {
		return nil, apierr.Internal("decode_draft_failed", err)
	}
	list, err := s.store.List(dbc.Ctx, campaignID, nil)
	if err != nil {
		return nil, apierr.Internal("load_canvas_failed", err)
	}

	plan, err := s.planner.Plan(dbc.Ctx, planner.Request{
		Message:    message,
		FinalDraft: draft,
		Canvas:     planner.BuildSnapshot(list),
	})
	if err != nil {
		return nil, apierr.Internal("plan_modification_failed", err)
	}
	if plan.NeedsClarification || len(plan.Actions) == 0 {
		msg := strings.TrimSpace(plan.ClarifyMessage)
		if msg == "" {
			msg = msgClarifyDefault
		}
		return nil, apierr.BadRequest("needs_clarification", msg)
	}

	actionsRaw, err := json.Marshal(plan.Actions)
	if err != nil {
		return nil, apierr.Internal("encode_actions_failed", err)
	}
	mode := s.modifier.Route(plan.Actions)
	rec := &domain.CanvasModification{
		ID:               uuid.New(),
		CampaignID:       campaignID,
		UserMessage:      message,
		ModificationType: domain.ModificationTypeFor(plan.Actions),
		Mode:             mode,
		Actions:          actionsRaw,
		TotalCount:       len(plan.Actions),
	}
	log := s.log.With("campaign_id", campaignID, "modification_id", rec.ID, "mode", mode, "source", plan.Source)

	if mode == domain.ModeSync {
		if _, err := s.modifications.Create(dbc, rec); err != nil {
			return nil, apierr.Internal("create_modification_failed", err)
		}
		rep, err := s.modifier.Execute(dbc.Ctx, modify.Batch{
			CampaignID:     campaignID,
			ModificationID: rec.ID,
			Strategy:       draft,
			Actions:        plan.Actions,
		})
		if err != nil {
			log.Error("sync modification failed", "error", err)
			return nil, apierr.Internal("modification_failed", err)
		}
		log.Info("Modification applied", "succeeded", rep.SuccessCount, "total", rep.TotalCount)
		return &ModifyResult{ModificationID: rec.ID, Status: ModifyStatusCompleted, Result: &rep, Mode: mode}, nil
	}

	var job *jobtypes.JobRun
	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if _, err := s.modifications.Create(inner, rec); err != nil {
			return err
		}
		id := rec.ID
		var err error
		job, err = s.jobs.Enqueue(inner, c.OwnerUserID, jobtypes.JobTypeCanvasModify, jobtypes.EntityModification, &id, map[string]any{
			"modification_id": rec.ID.String(),
			"campaign_id":     campaignID.String(),
		})
		return err
	})
	if err != nil {
		return nil, apierr.Internal("queue_modification_failed", err)
	}
	log.Info("Modification queued", "job_id", job.ID, "actions", len(plan.Actions))
	jobID := job.ID
	return &ModifyResult{ModificationID: rec.ID, Status: ModifyStatusAccepted, JobID: &jobID, Mode: mode}, nil
}

func (s *canvasService) Poll(dbc dbctx.Context, campaignID uuid.UUID, modificationID uuid.UUID) (*ModificationStatus, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	rec, err := s.modifications.GetByID(dbc, modificationID)
	if err != nil {
		return nil, apierr.Internal("load_modification_failed", err)
	}
	if rec == nil || (campaignID != uuid.Nil && rec.CampaignID != campaignID) {
		return nil, apierr.NotFound("modification_not_found", msgModificationNotFound)
	}
	c, err := s.campaigns.GetByID(dbc, rec.CampaignID)
	if err != nil {
		return nil, apierr.Internal("load_campaign_failed", err)
	}
	if c == nil || c.OwnerUserID != userID {
		return nil, apierr.New(http.StatusForbidden, "forbidden", errors.New("Forbidden"))
	}
	out := &ModificationStatus{Status: rec.PollStatus(), AffectedAssetID: rec.AffectedAssetID}
	if rec.Done() {
		out.PreviousContent = nullable(rec.PreviousContent)
		out.NewContent = nullable(rec.NewContent)
	}
	return out, nil
}

func nullable(raw []byte) json.RawMessage {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	return json.RawMessage(raw)
}

func (s *canvasService) Versions(dbc dbctx.Context, campaignID uuid.UUID, assetID uuid.UUID) ([]*domain.AssetVersion, error) {
	if _, err := ownedCampaign(dbc, s.campaigns, campaignID); err != nil {
		return nil, err
	}
	a, err := s.store.GetByID(dbc.Ctx, assetID)
	if errors.Is(err, domain.ErrAssetNotFound) || (err == nil && a.CampaignID != campaignID) {
		return nil, apierr.NotFound("asset_not_found", "Asset not found")
	}
	if err != nil {
		return nil, apierr.Internal("load_asset_failed", err)
	}
	out, err := s.store.ListVersions(dbc.Ctx, assetID)
	if err != nil {
		return nil, apierr.Internal("list_versions_failed", err)
	}
	return out, nil
}

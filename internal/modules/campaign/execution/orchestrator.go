// Package execution runs the initial asset generation for a confirmed
// campaign: copy for every scheduled day first, then images, influencers and
// the execution plan side by side.
package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos"
	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/assets"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/generators"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/progress"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/batch"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

var tracer = otel.Tracer("campaign-canvas/execution")

const (
	DefaultDayConcurrency  = 4
	DefaultInfluencerCount = generators.DefaultInfluencerCount
	// Components counts copy, images, influencers and plan.
	Components = 4
)

const (
	MsgStarting      = "🎬 Starting asset generation pipeline..."
	MsgPhaseTwo      = "🎨 Generating images, finding influencers, and creating plan..."
	MsgNoCopy        = "Failed to generate any copy content"
	msgFailedFormat  = "❌ Campaign generation failed: %s"
	msgPartialFormat = "⚠️ %s generation failed, but continuing..."
	msgDoneFormat    = "✅ Campaign generation complete! (%d/%d components succeeded in %.1fs)"
)

// ErrNotExecuting is returned when the campaign is not in the executing state.
var ErrNotExecuting = errors.New("campaign is not executing")

type CopyWriter interface {
	Generate(ctx context.Context, s domain.Strategy, day int) (domain.CopyContent, error)
}

type ImageMaker interface {
	Generate(ctx context.Context, s domain.Strategy, day int, post domain.CopyContent) (domain.ImageContent, error)
}

type InfluencerFinder interface {
	Generate(ctx context.Context, s domain.Strategy, count int) ([]domain.InfluencerContent, error)
}

type PlanWriter interface {
	Generate(ctx context.Context, s domain.Strategy, in generators.PlanInputs) (domain.PlanContent, error)
}

type Generators struct {
	Copy       CopyWriter
	Image      ImageMaker
	Influencer InfluencerFinder
	Plan       PlanWriter
}

type Config struct {
	DayConcurrency  int
	InfluencerCount int
}

type Report struct {
	CampaignID  uuid.UUID     `json:"campaign_id"`
	Status      domain.Status `json:"status"`
	Posts       int           `json:"posts"`
	Images      int           `json:"images"`
	Influencers int           `json:"influencers"`
	Plan        bool          `json:"plan"`
	Succeeded   int           `json:"succeeded"`
	Total       int           `json:"total"`
	Elapsed     time.Duration `json:"elapsed"`
	Error       string        `json:"error,omitempty"`
}

type Orchestrator struct {
	campaigns repos.CampaignRepo
	store     assets.Store
	gens      Generators
	progress  progress.Reporter
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

func NewOrchestrator(campaigns repos.CampaignRepo, store assets.Store, gens Generators, reporter progress.Reporter, cfg Config, baseLog *logger.Logger) *Orchestrator {
	if cfg.DayConcurrency <= 0 {
		cfg.DayConcurrency = DefaultDayConcurrency
	}
	if cfg.InfluencerCount <= 0 {
		cfg.InfluencerCount = DefaultInfluencerCount
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Orchestrator{
		campaigns: campaigns,
		store:     store,
		gens:      gens,
		progress:  reporter,
		cfg:       cfg,
		log:       baseLog.With("component", "ExecutionOrchestrator"),
		now:       time.Now,
	}
}

type post struct {
	day     int
	content domain.CopyContent
}

// Execute generates every asset of a confirmed campaign. Pipeline failures
// mark the campaign failed and are reported, not returned; the error is
// reserved for a campaign that cannot be loaded or is not executing.
func (o *Orchestrator) Execute(ctx context.Context, campaignID uuid.UUID) (rep Report, err error) {
	ctx, span := tracer.Start(ctx, "campaign.execute")
	defer span.End()
	span.SetAttributes(attribute.String("campaign.id", campaignID.String()))

	start := o.now()
	rep = Report{CampaignID: campaignID, Total: Components}
	log := o.log.With("campaign_id", campaignID)

	c, err := o.campaigns.GetByID(dbctx.New(ctx), campaignID)
	if err != nil {
		return rep, fmt.Errorf("load campaign: %w", err)
	}
	if c == nil {
		return rep, fmt.Errorf("campaign %s not found", campaignID)
	}
	if c.Status != domain.StatusExecuting {
		return rep, fmt.Errorf("%w: %s is %s", ErrNotExecuting, campaignID, c.Status)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("execution panic", "panic", r)
			rep = o.fail(ctx, rep, start, fmt.Sprintf("%v", r))
			err = nil
		}
	}()

	o.progress.Report(ctx, campaignID, domain.EventExecutionStarted, MsgStarting, nil)

	s, ok, derr := c.FinalDraft()
	if derr != nil || !ok {
		reason := "final draft is missing"
		if derr != nil {
			reason = derr.Error()
		}
		return o.fail(ctx, rep, start, reason), nil
	}
	s.Normalize()

	// Phase 1: copy is the hard gate.
	posts := o.generateCopy(ctx, campaignID, s)
	rep.Posts = len(posts)
	span.SetAttributes(attribute.Int("execution.posts", len(posts)))
	if len(posts) == 0 {
		return o.fail(ctx, rep, start, MsgNoCopy), nil
	}
	rep.Succeeded = 1

	// Phase 2: best effort, each branch on its own.
	o.progress.Report(ctx, campaignID, domain.EventExecutionProgress, MsgPhaseTwo, map[string]any{"phase": 2})
	branches := []struct {
		name string
		run  batch.Task[int]
	}{
		{"Images", func(ctx context.Context) (int, error) { return o.generateImages(ctx, campaignID, s, posts) }},
		{"Influencers", func(ctx context.Context) (int, error) { return o.generateInfluencers(ctx, campaignID, s) }},
		{"Plan", func(ctx context.Context) (int, error) { return o.generatePlan(ctx, campaignID, s, posts) }},
	}
	tasks := make([]batch.Task[int], len(branches))
	for i, b := range branches {
		tasks[i] = b.run
	}
	results := batch.Run(ctx, len(tasks), tasks)
	for i, r := range results {
		name := branches[i].name
		if r.Err != nil || r.Value == 0 {
			log.Warn("component generation failed", "component", name, "error", r.Err)
			o.progress.Report(ctx, campaignID, domain.EventExecutionProgress, fmt.Sprintf(msgPartialFormat, name), map[string]any{"component": name})
			continue
		}
		rep.Succeeded++
		switch i {
		case 0:
			rep.Images = r.Value
		case 1:
			rep.Influencers = r.Value
		case 2:
			rep.Plan = true
		}
	}

	end := o.now()
	rep.Elapsed = end.Sub(start)
	if _, err := o.campaigns.TransitionStatus(dbctx.New(context.WithoutCancel(ctx)), campaignID,
		[]domain.Status{domain.StatusExecuting}, domain.StatusCompleted,
		map[string]interface{}{"execution_completed_at": end}); err != nil {
		log.Error("completed status not saved", "error", err)
		return o.fail(ctx, rep, start, err.Error()), nil
	}
	rep.Status = domain.StatusCompleted
	o.progress.Report(ctx, campaignID, domain.EventExecutionProgress,
		fmt.Sprintf(msgDoneFormat, rep.Succeeded, Components, rep.Elapsed.Seconds()),
		map[string]any{"status": string(domain.StatusCompleted), "succeeded": rep.Succeeded})
	log.Info("campaign generation complete",
		"posts", rep.Posts, "images", rep.Images, "influencers", rep.Influencers, "plan", rep.Plan,
		"elapsed_ms", rep.Elapsed.Milliseconds())
	return rep, nil
}

func (o *Orchestrator) fail(ctx context.Context, rep Report, start time.Time, reason string) Report {
	ctx = context.WithoutCancel(ctx)
	end := o.now()
	rep.Status = domain.StatusFailed
	rep.Error = reason
	rep.Elapsed = end.Sub(start)
	if _, err := o.campaigns.TransitionStatus(dbctx.New(ctx), rep.CampaignID,
		[]domain.Status{domain.StatusExecuting}, domain.StatusFailed,
		map[string]interface{}{"execution_completed_at": end}); err != nil {
		o.log.Error("failed status not saved", "campaign_id", rep.CampaignID, "error", err)
	}
	o.progress.Report(ctx, rep.CampaignID, domain.EventExecutionProgress, fmt.Sprintf(msgFailedFormat, reason),
		map[string]any{"status": string(domain.StatusFailed)})
	return rep
}

func (o *Orchestrator) generateCopy(ctx context.Context, campaignID uuid.UUID, s domain.Strategy) []post {
	if o.gens.Copy == nil {
		return nil
	}
	results := batch.Map(ctx, o.cfg.DayConcurrency, s.Days(), func(ctx context.Context, day int) (post, error) {
		// A retried job reuses copy that was already saved.
		if existing, err := o.store.Get(ctx, campaignID, domain.KindCopy, &day); err == nil && existing.Status == domain.AssetCompleted {
			c, err := domain.DecodeContent[domain.CopyContent](existing.Content)
			if err == nil {
				return post{day: day, content: c}, nil
			}
		}
		c, err := o.gens.Copy.Generate(ctx, s, day)
		if err != nil {
			return post{}, err
		}
		if err := o.saveDay(ctx, campaignID, domain.KindCopy, day, c); err != nil {
			return post{}, err
		}
		return post{day: day, content: c}, nil
	})
	for i, r := range results {
		if r.Err != nil {
			o.log.Warn("copy generation failed", "campaign_id", campaignID, "day", s.Days()[i], "error", r.Err)
		}
	}
	return batch.Values(results)
}

func (o *Orchestrator) generateImages(ctx context.Context, campaignID uuid.UUID, s domain.Strategy, posts []post) (int, error) {
	if o.gens.Image == nil {
		return 0, errors.New("image generator not configured")
	}
	results := batch.Map(ctx, o.cfg.DayConcurrency, posts, func(ctx context.Context, p post) (int, error) {
		img, err := o.gens.Image.Generate(ctx, s, p.day, p.content)
		if err != nil {
			return 0, err
		}
		return p.day, o.saveDay(ctx, campaignID, domain.KindImage, p.day, img)
	})
	n := batch.Succeeded(results)
	if n == 0 {
		return 0, firstErr(results, "no images generated")
	}
	return n, nil
}

func (o *Orchestrator) generateInfluencers(ctx context.Context, campaignID uuid.UUID, s domain.Strategy) (int, error) {
	if o.gens.Influencer == nil {
		return 0, errors.New("influencer generator not configured")
	}
	found, err := o.gens.Influencer.Generate(ctx, s, o.cfg.InfluencerCount)
	if err != nil {
		return 0, err
	}
	if len(found) == 0 {
		return 0, errors.New("no influencers found")
	}
	rows := make([]*domain.Asset, 0, len(found))
	for _, inf := range found {
		raw, err := domain.EncodeContent(inf)
		if err != nil {
			return 0, err
		}
		rows = append(rows, &domain.Asset{CampaignID: campaignID, AssetType: domain.KindInfluencer, Content: raw, Status: domain.AssetCompleted})
	}
	saved, err := o.store.ReplaceInfluencers(ctx, campaignID, rows)
	if err != nil {
		return 0, err
	}
	return len(saved), nil
}

func (o *Orchestrator) generatePlan(ctx context.Context, campaignID uuid.UUID, s domain.Strategy, posts []post) (int, error) {
	if o.gens.Plan == nil {
		return 0, errors.New("plan generator not configured")
	}
	plan, err := o.gens.Plan.Generate(ctx, s, generators.PlanInputs{Posts: len(posts), Images: len(posts)})
	if err != nil {
		return 0, err
	}
	raw, err := domain.EncodeContent(plan)
	if err != nil {
		return 0, err
	}
	if existing, err := o.store.Get(ctx, campaignID, domain.KindPlan, nil); err == nil {
		return 1, o.store.UpdateContent(ctx, existing.ID, raw, domain.AssetCompleted, nil)
	}
	if _, err := o.store.Save(ctx, &domain.Asset{CampaignID: campaignID, AssetType: domain.KindPlan, Content: raw, Status: domain.AssetCompleted}); err != nil {
		return 0, err
	}
	return 1, nil
}

func (o *Orchestrator) saveDay(ctx context.Context, campaignID uuid.UUID, kind domain.Kind, day int, content any) error {
	raw, err := domain.EncodeContent(content)
	if err != nil {
		return err
	}
	d := day
	_, err = o.store.Save(ctx, &domain.Asset{CampaignID: campaignID, AssetType: kind, DayNumber: &d, Content: raw, Status: domain.AssetCompleted})
	if errors.Is(err, domain.ErrDuplicateAsset) {
		existing, gerr := o.store.Get(ctx, campaignID, kind, &d)
		if gerr != nil {
			return gerr
		}
		return o.store.UpdateContent(ctx, existing.ID, raw, domain.AssetCompleted, nil)
	}
	return err
}

func firstErr[T any](results []batch.Result[T], fallback string) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return errors.New(fallback)
}

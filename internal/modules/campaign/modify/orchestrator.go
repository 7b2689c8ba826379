// Package modify applies planned canvas actions to live assets. Every action
// is isolated: a failing action is reported and its siblings still run.
package modify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	repocampaign "github.com/yungbote/campaign-canvas-backend/internal/data/repos/campaign"
	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/assets"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/generators"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/progress"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/batch"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/keylock"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

var tracer = otel.Tracer("campaign-canvas/modify")

const (
	DefaultConcurrency     = 4
	DefaultInfluencerCount = generators.DefaultInfluencerCount
)

type CopyReviser interface {
	Regenerate(ctx context.Context, req generators.RegenerateRequest[domain.CopyContent]) (domain.CopyContent, error)
}

type ImageReviser interface {
	Regenerate(ctx context.Context, req generators.RegenerateRequest[domain.ImageContent]) (domain.ImageContent, error)
}

type InfluencerReviser interface {
	Regenerate(ctx context.Context, req generators.RegenerateRequest[[]domain.InfluencerContent], count int) ([]domain.InfluencerContent, error)
}

type PlanReviser interface {
	Regenerate(ctx context.Context, req generators.RegenerateRequest[domain.PlanContent]) (domain.PlanContent, error)
}

type Generators struct {
	Copy       CopyReviser
	Image      ImageReviser
	Influencer InfluencerReviser
	Plan       PlanReviser
}

// Records finishes modification rows. repos.ModificationRepo satisfies it.
type Records interface {
	Complete(dbc dbctx.Context, id uuid.UUID, c repocampaign.Completion) (bool, error)
}

type Config struct {
	Concurrency     int
	InfluencerCount int
}

// Batch is one user request's planned actions. ModificationID may be nil, in
// which case no record is completed.
type Batch struct {
	CampaignID     uuid.UUID
	ModificationID uuid.UUID
	Strategy       domain.Strategy
	Actions        []domain.Action
}

// Outcome reports one unit of work: a single day asset, the plan, or the
// influencer set.
type Outcome struct {
	Index     int              `json:"index"`
	Agent     domain.Kind      `json:"agent"`
	Operation domain.Operation `json:"operation"`
	AssetID   *uuid.UUID       `json:"asset_id,omitempty"`
	DayNumber *int             `json:"day_number,omitempty"`
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	Version   int              `json:"version,omitempty"`
	Previous  json.RawMessage  `json:"previous,omitempty"`
	New       json.RawMessage  `json:"new,omitempty"`
}

func (o Outcome) fail(err error) Outcome {
	o.Success = false
	o.Error = err.Error()
	return o
}

type Report struct {
	ModificationID uuid.UUID   `json:"modification_id"`
	Mode           domain.Mode `json:"mode"`
	Outcomes       []Outcome   `json:"outcomes"`
	SuccessCount   int         `json:"success_count"`
	TotalCount     int         `json:"total_count"`
}

type Orchestrator struct {
	store    assets.Store
	gens     Generators
	records  Records
	progress progress.Reporter
	locks    *keylock.Map
	cfg      Config
	log      *logger.Logger
}

func NewOrchestrator(store assets.Store, gens Generators, records Records, reporter progress.Reporter, cfg Config, baseLog *logger.Logger) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.InfluencerCount <= 0 {
		cfg.InfluencerCount = DefaultInfluencerCount
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Orchestrator{
		store:    store,
		gens:     gens,
		records:  records,
		progress: reporter,
		locks:    keylock.New(),
		cfg:      cfg,
		log:      baseLog.With("component", "ModifyOrchestrator"),
	}
}

// Route is sync only when every action targets copy.
func (o *Orchestrator) Route(actions []domain.Action) domain.Mode {
	return domain.RouteMode(actions)
}

// Execute runs every action of the batch and completes the modification
// record. Action failures are reported in the outcomes; the error is only
// set when the record itself could not be completed.
func (o *Orchestrator) Execute(ctx context.Context, b Batch) (Report, error) {
	ctx, span := tracer.Start(ctx, "campaign.modify.batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("campaign.id", b.CampaignID.String()),
		attribute.Int("modify.actions", len(b.Actions)),
	)

	log := o.log.With("campaign_id", b.CampaignID, "modification_id", b.ModificationID)
	rep := Report{ModificationID: b.ModificationID, Mode: o.Route(b.Actions)}
	units := o.expand(ctx, b)
	if len(units) > 0 {
		o.progress.Report(ctx, b.CampaignID, domain.EventModification,
			fmt.Sprintf("🛠️ Applying %d change(s) to your canvas...", len(units)),
			map[string]any{"modification_id": b.ModificationID.String(), "stage": "started"})
	}

	results := batch.Map(ctx, o.cfg.Concurrency, units, func(ctx context.Context, u unit) (Outcome, error) {
		return o.run(ctx, b, u), nil
	})
	rep.Outcomes = make([]Outcome, len(results))
	for i, r := range results {
		out := r.Value
		if r.Err != nil {
			// Only a panic reaches here; run never returns an error.
			out = Outcome{Index: units[i].index, Agent: units[i].action.Agent, Operation: units[i].action.Operation}.fail(r.Err)
		}
		if out.Success {
			rep.SuccessCount++
		} else {
			log.Warn("modification action failed", "index", out.Index, "agent", out.Agent, "day", out.DayNumber, "error", out.Error)
		}
		rep.Outcomes[i] = out
	}
	rep.TotalCount = len(rep.Outcomes)
	span.SetAttributes(attribute.Int("modify.succeeded", rep.SuccessCount))

	if rep.TotalCount > 0 {
		o.progress.Report(ctx, b.CampaignID, domain.EventModification, summaryText(rep),
			map[string]any{"modification_id": b.ModificationID.String(), "stage": "completed",
				"success_count": rep.SuccessCount, "total_count": rep.TotalCount})
	}
	if err := o.Complete(ctx, b, rep); err != nil {
		return rep, err
	}
	log.Info("modification batch finished", "succeeded", rep.SuccessCount, "total", rep.TotalCount)
	return rep, nil
}

func summaryText(rep Report) string {
	if rep.SuccessCount == rep.TotalCount {
		return fmt.Sprintf("✅ Applied %d/%d change(s).", rep.SuccessCount, rep.TotalCount)
	}
	for _, out := range rep.Outcomes {
		if !out.Success {
			return fmt.Sprintf("⚠️ Applied %d/%d change(s). A %s change failed: %s", rep.SuccessCount, rep.TotalCount, out.Agent, out.Error)
		}
	}
	return fmt.Sprintf("⚠️ Applied %d/%d change(s).", rep.SuccessCount, rep.TotalCount)
}

// Complete writes the record's terminal state from rep. A lone successful
// unit stores its own previous/new content; anything else stores the outcome
// envelope so pollers always see a non-null new_content. Completing an
// already completed record is a no-op.
func (o *Orchestrator) Complete(ctx context.Context, b Batch, rep Report) error {
	if b.ModificationID == uuid.Nil || o.records == nil {
		return nil
	}
	c := repocampaign.Completion{
		SuccessCount: rep.SuccessCount,
		TotalCount:   rep.TotalCount,
		CompletedAt:  time.Now().UTC(),
	}
	for _, out := range rep.Outcomes {
		if out.Success && out.AssetID != nil {
			id := *out.AssetID
			c.AffectedAssetID = &id
			break
		}
	}
	if len(rep.Outcomes) == 1 && rep.Outcomes[0].Success {
		c.PreviousContent = datatypes.JSON(rep.Outcomes[0].Previous)
		c.NewContent = datatypes.JSON(rep.Outcomes[0].New)
	}
	if len(c.NewContent) == 0 {
		type prevEntry struct {
			Index    int             `json:"index"`
			AssetID  *uuid.UUID      `json:"asset_id,omitempty"`
			Previous json.RawMessage `json:"previous,omitempty"`
		}
		prev := make([]prevEntry, 0, len(rep.Outcomes))
		for _, out := range rep.Outcomes {
			prev = append(prev, prevEntry{Index: out.Index, AssetID: out.AssetID, Previous: out.Previous})
		}
		prevRaw, err := json.Marshal(map[string]any{"outcomes": prev})
		if err != nil {
			return err
		}
		newRaw, err := json.Marshal(map[string]any{
			"outcomes":      rep.Outcomes,
			"success_count": rep.SuccessCount,
			"total_count":   rep.TotalCount,
		})
		if err != nil {
			return err
		}
		c.PreviousContent = datatypes.JSON(prevRaw)
		c.NewContent = datatypes.JSON(newRaw)
	}
	ok, err := o.records.Complete(dbctx.New(context.WithoutCancel(ctx)), b.ModificationID, c)
	if err != nil {
		return fmt.Errorf("complete modification %s: %w", b.ModificationID, err)
	}
	if !ok {
		o.log.Warn("modification already completed", "modification_id", b.ModificationID)
	}
	return nil
}

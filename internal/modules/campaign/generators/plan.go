package generators

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/prompts"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/gemini"
)

// PlanInputs counts the assets already generated for the campaign.
type PlanInputs struct {
	Posts  int
	Images int
}

type PlanGenerator struct {
	base
}

func NewPlanGenerator(llm gemini.Client, lib *prompts.Library, baseLog *logger.Logger) *PlanGenerator {
	return &PlanGenerator{base: newBase(llm, lib, baseLog.With("generator", "PlanGenerator"))}
}

// Generate writes the execution plan. Sections the model leaves empty take
// the default plan's.
func (g *PlanGenerator) Generate(ctx context.Context, s domain.Strategy, assets PlanInputs) (out domain.PlanContent, err error) {
	ctx, span := startSpan(ctx, "plan",
		attribute.Int("campaign.posts", assets.Posts),
		attribute.Int("campaign.images", assets.Images),
	)
	defer func() { endSpan(span, err) }()

	s.Normalize()
	in := strategyInput(s)
	in.PostCount = assets.Posts
	in.ImageCount = assets.Images
	schedule, err := json.MarshalIndent(s.PostingSchedule, "", "  ")
	if err != nil {
		return domain.PlanContent{}, err
	}
	in.ScheduleJSON = string(schedule)

	if err := g.completeJSON(ctx, prompts.PlanGenerate, in, &out); err != nil {
		return domain.PlanContent{}, fmt.Errorf("generate plan: %w", err)
	}
	out.Normalize()
	return out, nil
}

// Regenerate revises the plan. Sections the model leaves empty keep their
// previous content.
func (g *PlanGenerator) Regenerate(ctx context.Context, req RegenerateRequest[domain.PlanContent]) (out domain.PlanContent, err error) {
	ctx, span := startSpan(ctx, "plan.regenerate", attribute.String("campaign.operation", string(req.Operation)))
	defer func() { endSpan(span, err) }()

	s := req.Strategy
	s.Normalize()
	prev, err := json.MarshalIndent(req.Previous, "", "  ")
	if err != nil {
		return domain.PlanContent{}, err
	}
	in := strategyInput(s)
	in.PreviousJSON = string(prev)
	in.Instruction = strings.TrimSpace(req.Instruction)

	if err := g.completeJSON(ctx, prompts.PlanRegenerate, in, &out); err != nil {
		return domain.PlanContent{}, fmt.Errorf("regenerate plan: %w", err)
	}
	fillPlanFrom(&out, req.Previous)
	out.Normalize()
	return out, nil
}

func fillPlanFrom(next *domain.PlanContent, prev domain.PlanContent) {
	if len(next.Phases) == 0 {
		next.Phases = prev.Phases
	}
	if strings.TrimSpace(next.Timeline) == "" {
		next.Timeline = prev.Timeline
	}
	if len(next.Checklist) == 0 {
		next.Checklist = prev.Checklist
	}
	if len(next.KeyMilestones) == 0 {
		next.KeyMilestones = prev.KeyMilestones
	}
	if len(next.SuccessMetrics) == 0 {
		next.SuccessMetrics = prev.SuccessMetrics
	}
	if strings.TrimSpace(next.Recommendations) == "" {
		next.Recommendations = prev.Recommendations
	}
	if next.Extras == nil {
		next.Extras = prev.Extras
	}
}

package planner

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/prompts"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/llmjson"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/gemini"
)

var tracer = otel.Tracer("campaign-canvas/planner")

// LLMPlanner asks the completion service to classify the request.
type LLMPlanner struct {
	llm     gemini.Client
	prompts *prompts.Library
	log     *logger.Logger
}

func NewLLMPlanner(llm gemini.Client, lib *prompts.Library, baseLog *logger.Logger) *LLMPlanner {
	log := baseLog.With("component", "LLMPlanner")
	if lib == nil {
		lib = prompts.Default(log)
	}
	return &LLMPlanner{llm: llm, prompts: lib, log: log}
}

func (p *LLMPlanner) Plan(ctx context.Context, req Request) (out Plan, err error) {
	ctx, span := tracer.Start(ctx, "campaign.plan.llm")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.Int("plan.actions", len(out.Actions)),
				attribute.Bool("plan.needs_clarification", out.NeedsClarification),
			)
		}
		span.End()
	}()

	if p.llm == nil {
		return Plan{}, fmt.Errorf("planner: no completion client")
	}
	prompt, err := p.prompts.Build(prompts.PlannerClassify, prompts.Input{
		Message:       req.Message,
		DraftSummary:  ScheduleSummary(req.FinalDraft),
		CanvasSummary: req.Canvas.Summary(),
		StrategyJSON:  StrategyExcerpt(req.FinalDraft),
	})
	if err != nil {
		return Plan{}, err
	}
	text, err := p.llm.Complete(ctx, prompt.Request())
	if err != nil {
		return Plan{}, fmt.Errorf("planner completion: %w", err)
	}
	var raw map[string]any
	if err := llmjson.Decode(text, &raw); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	plan, err := Decode(raw, SourceLLM)
	if err != nil {
		p.log.Debug("model plan rejected", "error", err)
		return Plan{}, err
	}
	return resolveTargets(plan, req.Canvas), nil
}

// Package planner turns a free-form modification request into executable
// canvas actions, or a clarification question.
package planner

import (
	"context"
	"errors"
	"strings"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

const (
	ClarifyEmpty      = "Empty message"
	ClarifyUnderstand = "I couldn't understand your request. Please be more specific about what you'd like to change."
	ClarifyError      = "I encountered an error processing your request. Please try rephrasing it."
)

// ErrInvalidPlan marks planner output that failed validation.
var ErrInvalidPlan = errors.New("invalid modification plan")

type Source string

const (
	SourceEmpty    Source = "empty"
	SourceKeywords Source = "keywords"
	SourceLLM      Source = "llm"
	SourceRules    Source = "rules"
)

type Request struct {
	Message    string
	FinalDraft domain.Strategy
	Canvas     Snapshot
}

type Plan struct {
	NeedsClarification bool            `json:"needs_clarification"`
	ClarifyMessage     string          `json:"clarify_message,omitempty"`
	Actions            []domain.Action `json:"actions"`
	Source             Source          `json:"source"`
}

func clarify(msg string, src Source) Plan {
	return Plan{NeedsClarification: true, ClarifyMessage: msg, Actions: []domain.Action{}, Source: src}
}

type Planner interface {
	Plan(ctx context.Context, req Request) (Plan, error)
}

// Chain applies, in order: the empty-message check, the influencer keyword
// shortcut, Primary, then Fallback. A planner that fails or returns an
// invalid plan hands over to the next one.
type Chain struct {
	Primary  Planner
	Fallback Planner
	log      *logger.Logger
}

func NewChain(primary, fallback Planner, baseLog *logger.Logger) *Chain {
	return &Chain{Primary: primary, Fallback: fallback, log: baseLog.With("component", "PlannerChain")}
}

func (c *Chain) Plan(ctx context.Context, req Request) (Plan, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return clarify(ClarifyEmpty, SourceEmpty), nil
	}
	req.Message = msg
	if IsInfluencerRequest(msg) {
		return Plan{Actions: []domain.Action{influencerAction(msg)}, Source: SourceKeywords}, nil
	}
	if c.Primary != nil {
		p, err := c.Primary.Plan(ctx, req)
		if err == nil {
			return p, nil
		}
		if ctx.Err() != nil {
			return Plan{}, ctx.Err()
		}
		c.log.Warn("primary planner failed; falling back", "error", err)
	}
	if c.Fallback == nil {
		return clarify(ClarifyUnderstand, SourceRules), nil
	}
	p, err := c.Fallback.Plan(ctx, req)
	switch {
	case errors.Is(err, ErrInvalidPlan):
		return clarify(ClarifyUnderstand, SourceRules), nil
	case err != nil:
		c.log.Warn("fallback planner failed", "error", err)
		return clarify(ClarifyError, SourceRules), nil
	}
	return p, nil
}

var influencerKeywords = []string{
	"influencer", "influencers", "find influencers", "refetch influencers",
	"recommend influencers", "scout influencers", "search influencers",
	"fetch influencers", "get influencers",
}

func IsInfluencerRequest(msg string) bool {
	lower := strings.ToLower(msg)
	for _, k := range influencerKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func influencerAction(msg string) domain.Action {
	return domain.Action{
		Agent:       domain.KindInfluencer,
		Operation:   domain.OpRegenerate,
		Target:      domain.Target{ApplyTo: domain.ApplyAll},
		Fields:      []string{},
		Instruction: msg,
		ModeHint:    domain.ModeAsync,
	}
}

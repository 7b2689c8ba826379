package generators

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/prompts"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/gemini"
)

// HistoryWindow is how many recent chat messages a refinement sees.
const HistoryWindow = 3

// FallbackReply is used when the conversational reply cannot be generated.
const FallbackReply = "Great! I've updated your campaign strategy based on your feedback. The strategy is looking solid. Would you like me to make any other changes, or are you ready to execute the campaign?"

type StrategyGenerator struct {
	base
}

func NewStrategyGenerator(llm gemini.Client, lib *prompts.Library, baseLog *logger.Logger) *StrategyGenerator {
	return &StrategyGenerator{base: newBase(llm, lib, baseLog.With("generator", "StrategyGenerator"))}
}

// Draft turns a campaign brief into a normalized strategy.
func (g *StrategyGenerator) Draft(ctx context.Context, brief string) (out domain.Strategy, err error) {
	ctx, span := startSpan(ctx, "strategy.draft")
	defer func() { endSpan(span, err) }()

	in := prompts.Input{Brief: strings.TrimSpace(brief)}
	if err := g.completeJSON(ctx, prompts.StrategyDraft, in, &out); err != nil {
		return domain.Strategy{}, fmt.Errorf("draft strategy: %w", err)
	}
	out.Normalize()
	return out, nil
}

// Refine applies user feedback to the current draft. Top-level keys present
// in the model output replace the current ones; everything else is kept.
func (g *StrategyGenerator) Refine(ctx context.Context, current domain.Strategy, message string, history []*domain.ChatMessage) (out domain.Strategy, err error) {
	ctx, span := startSpan(ctx, "strategy.refine")
	defer func() { endSpan(span, err) }()

	draft, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return domain.Strategy{}, err
	}
	in := prompts.Input{
		History:   FormatHistory(history),
		DraftJSON: string(draft),
		Message:   strings.TrimSpace(message),
	}
	var refined map[string]json.RawMessage
	if err := g.completeJSON(ctx, prompts.StrategyRefine, in, &refined); err != nil {
		return domain.Strategy{}, fmt.Errorf("refine strategy: %w", err)
	}
	merged, err := MergeStrategy(current, refined)
	if err != nil {
		return domain.Strategy{}, fmt.Errorf("refine strategy: %w", err)
	}
	return merged, nil
}

// Reply writes the conversational answer shown next to the draft. It never
// fails; errors yield FallbackReply.
func (g *StrategyGenerator) Reply(ctx context.Context, s *domain.Strategy, message string) string {
	ctx, span := startSpan(ctx, "strategy.reply")
	var err error
	defer func() { endSpan(span, err) }()

	in := prompts.Input{Message: strings.TrimSpace(message), DraftSummary: DraftSummary(s)}
	text, err := g.complete(ctx, prompts.StrategyReply, in)
	if err != nil || strings.TrimSpace(text) == "" {
		g.log.Warn("conversational reply failed; using fallback", "error", err)
		return FallbackReply
	}
	return strings.TrimSpace(text)
}

// MergeStrategy overlays the keys of patch onto current and normalizes.
func MergeStrategy(current domain.Strategy, patch map[string]json.RawMessage) (domain.Strategy, error) {
	raw, err := json.Marshal(current)
	if err != nil {
		return domain.Strategy{}, err
	}
	base := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &base); err != nil {
		return domain.Strategy{}, err
	}
	for k, v := range patch {
		base[k] = v
	}
	merged, err := json.Marshal(base)
	if err != nil {
		return domain.Strategy{}, err
	}
	var out domain.Strategy
	if err := json.Unmarshal(merged, &out); err != nil {
		return domain.Strategy{}, err
	}
	out.Normalize()
	return out, nil
}

// FormatHistory renders the last HistoryWindow messages as "ROLE: content".
func FormatHistory(history []*domain.ChatMessage) string {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		if m == nil {
			continue
		}
		lines = append(lines, strings.ToUpper(string(m.Role))+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func DraftSummary(s *domain.Strategy) string {
	if s == nil {
		return "No draft created yet"
	}
	return fmt.Sprintf("Draft Title: %s\nPlatforms: %s\nTarget Audience: %s...\nPosting Days: %d",
		s.Title,
		strings.Join(s.Platforms, ", "),
		truncate(s.TargetAudience, 150),
		len(s.PostingSchedule),
	)
}

// Package generators produces and revises campaign assets with the
// completion, search and image synthesis services.
package generators

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/prompts"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/llmjson"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/gemini"
)

var tracer = otel.Tracer("campaign-canvas/generators")

// RegenerateRequest carries what a generator needs to revise one asset.
// Fields restricts a copy revision to the named fields; empty means all.
type RegenerateRequest[T any] struct {
	Strategy    domain.Strategy
	Day         int
	Previous    T
	Instruction string
	Fields      []string
	Operation   domain.Operation
	// Caption is the day's post caption, used by image revisions.
	Caption string
}

type base struct {
	llm     gemini.Client
	prompts *prompts.Library
	log     *logger.Logger
}

func newBase(llm gemini.Client, lib *prompts.Library, log *logger.Logger) base {
	if lib == nil {
		lib = prompts.Default(log)
	}
	return base{llm: llm, prompts: lib, log: log}
}

func (b base) complete(ctx context.Context, name prompts.Name, in prompts.Input) (string, error) {
	p, err := b.prompts.Build(name, in)
	if err != nil {
		return "", err
	}
	return b.llm.Complete(ctx, p.Request())
}

func (b base) completeJSON(ctx context.Context, name prompts.Name, in prompts.Input, v any) error {
	text, err := b.complete(ctx, name, in)
	if err != nil {
		return err
	}
	if err := llmjson.Decode(text, v); err != nil {
		b.log.Warn("model returned malformed JSON", "prompt", string(name), "response_head", truncate(text, 200))
		return err
	}
	return nil
}

func startSpan(ctx context.Context, kind string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "campaign.generate."+kind)
	span.SetAttributes(attrs...)
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// strategyInput fills the strategy-level prompt fields.
func strategyInput(s domain.Strategy) prompts.Input {
	return prompts.Input{
		Title:        s.Title,
		Audience:     s.TargetAudience,
		Platform:     s.PrimaryPlatform(),
		Platforms:    strings.Join(s.Platforms, ", "),
		Themes:       strings.Join(s.ContentThemes, ", "),
		Notes:        s.AdditionalDetails,
		PrimaryColor: s.PrimaryColor(),
		Days:         len(s.PostingSchedule),
	}
}

func slotInput(in prompts.Input, s domain.Strategy, day int) prompts.Input {
	slot, _ := s.Slot(day)
	in.Day = day
	in.ContentType = strings.TrimSpace(slot.ContentType)
	if in.ContentType == "" {
		in.ContentType = "announcement"
	}
	in.Time = strings.TrimSpace(slot.Time)
	if in.Time == "" {
		in.Time = "12:00 PM"
	}
	return in
}

func extraString(extras map[string]any, key string) string {
	if v, ok := extras[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

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

type CopyGenerator struct {
	base
}

func NewCopyGenerator(llm gemini.Client, lib *prompts.Library, baseLog *logger.Logger) *CopyGenerator {
	return &CopyGenerator{base: newBase(llm, lib, baseLog.With("generator", "CopyGenerator"))}
}

// Generate writes the post for one scheduled day. Missing fields in the model
// output take the copy defaults; the platform is always the primary one.
func (g *CopyGenerator) Generate(ctx context.Context, s domain.Strategy, day int) (out domain.CopyContent, err error) {
	ctx, span := startSpan(ctx, "copy", attribute.Int("campaign.day", day))
	defer func() { endSpan(span, err) }()

	s.Normalize()
	in := slotInput(strategyInput(s), s, day)
	if err := g.completeJSON(ctx, prompts.CopyGenerate, in, &out); err != nil {
		return domain.CopyContent{}, fmt.Errorf("generate copy for day %d: %w", day, err)
	}
	out.Platform = s.PrimaryPlatform()
	out.Normalize(out.Platform)
	return out, nil
}

// Regenerate revises an existing post. Fields outside req.Fields are returned
// exactly as they were in req.Previous.
func (g *CopyGenerator) Regenerate(ctx context.Context, req RegenerateRequest[domain.CopyContent]) (out domain.CopyContent, err error) {
	ctx, span := startSpan(ctx, "copy.regenerate",
		attribute.Int("campaign.day", req.Day),
		attribute.StringSlice("campaign.fields", req.Fields),
	)
	defer func() { endSpan(span, err) }()

	s := req.Strategy
	s.Normalize()
	prevJSON, err := json.Marshal(req.Previous)
	if err != nil {
		return domain.CopyContent{}, err
	}
	in := slotInput(strategyInput(s), s, req.Day)
	if p := strings.TrimSpace(req.Previous.Platform); p != "" {
		in.Platform = p
	}
	in.PreviousJSON = string(prevJSON)
	in.Instruction = strings.TrimSpace(req.Instruction)
	in.Fields = strings.Join(req.Fields, ", ")

	var next domain.CopyContent
	if err := g.completeJSON(ctx, prompts.CopyRegenerate, in, &next); err != nil {
		return domain.CopyContent{}, fmt.Errorf("regenerate copy for day %d: %w", req.Day, err)
	}
	fillCopyFrom(&next, req.Previous)
	next.Platform = in.Platform
	next.Normalize(in.Platform)
	return req.Previous.Merge(next, req.Fields), nil
}

// fillCopyFrom keeps previous values where the model left a field out.
func fillCopyFrom(next *domain.CopyContent, prev domain.CopyContent) {
	if strings.TrimSpace(next.Caption) == "" {
		next.Caption = prev.Caption
	}
	if len(next.Hashtags) == 0 {
		next.Hashtags = append([]string(nil), prev.Hashtags...)
	}
	if strings.TrimSpace(next.CTA) == "" {
		next.CTA = prev.CTA
	}
	if strings.TrimSpace(next.Headline) == "" {
		next.Headline = prev.Headline
	}
	if strings.TrimSpace(next.Description) == "" {
		next.Description = prev.Description
	}
	if next.Extras == nil && prev.Extras != nil {
		next.Extras = prev.Extras
	}
}

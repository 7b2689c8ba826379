package generators

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/prompts"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/gemini"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/pollinations"
)

const (
	ImageWidth  = 1024
	ImageHeight = 1024

	maxPromptChars = 80
	maxPromptWords = 8
)

type ImageGenerator struct {
	base
	synth pollinations.Synthesizer
}

func NewImageGenerator(llm gemini.Client, synth pollinations.Synthesizer, lib *prompts.Library, baseLog *logger.Logger) *ImageGenerator {
	return &ImageGenerator{
		base:  newBase(llm, lib, baseLog.With("generator", "ImageGenerator")),
		synth: synth,
	}
}

// Generate creates the image for one day's post. A failed prompt call falls
// back to a title-based prompt; synthesis errors are returned.
func (g *ImageGenerator) Generate(ctx context.Context, s domain.Strategy, day int, post domain.CopyContent) (out domain.ImageContent, err error) {
	ctx, span := startSpan(ctx, "image", attribute.Int("campaign.day", day))
	defer func() { endSpan(span, err) }()

	s.Normalize()
	in := strategyInput(s)
	in.Day = day
	in.Caption = truncate(post.Caption, 150)

	prompt := fallbackImagePrompt(s.Title)
	text, cerr := g.complete(ctx, prompts.ImagePrompt, in)
	if cerr != nil {
		g.log.Warn("image prompt generation failed; using fallback", "day", day, "error", cerr)
	} else if cleaned := CleanImagePrompt(text); cleaned != "" {
		prompt = cleaned
	}
	return g.render(ctx, prompt)
}

// Regenerate rewrites the prompt of an existing image from the instruction.
func (g *ImageGenerator) Regenerate(ctx context.Context, req RegenerateRequest[domain.ImageContent]) (out domain.ImageContent, err error) {
	ctx, span := startSpan(ctx, "image.regenerate",
		attribute.Int("campaign.day", req.Day),
		attribute.String("campaign.operation", string(req.Operation)),
	)
	defer func() { endSpan(span, err) }()

	s := req.Strategy
	s.Normalize()
	in := strategyInput(s)
	in.Day = req.Day
	in.Caption = truncate(req.Caption, 150)
	in.PreviousPrompt = req.Previous.Prompt
	in.Instruction = strings.TrimSpace(req.Instruction)

	text, err := g.complete(ctx, prompts.ImageRegenerate, in)
	if err != nil {
		return domain.ImageContent{}, fmt.Errorf("regenerate image prompt for day %d: %w", req.Day, err)
	}
	prompt := CleanImagePrompt(text)
	if prompt == "" {
		return domain.ImageContent{}, fmt.Errorf("regenerate image prompt for day %d: empty prompt", req.Day)
	}
	out, err = g.render(ctx, prompt)
	if err != nil {
		return domain.ImageContent{}, err
	}
	out.Extras = req.Previous.Extras
	return out, nil
}

func (g *ImageGenerator) render(ctx context.Context, prompt string) (domain.ImageContent, error) {
	img, err := g.synth.Synthesize(ctx, prompt, ImageWidth, ImageHeight)
	if err != nil {
		return domain.ImageContent{}, fmt.Errorf("synthesize image: %w", err)
	}
	return domain.ImageContent{
		ImageURL: img.URL,
		Prompt:   img.Prompt,
		Width:    img.Width,
		Height:   img.Height,
	}, nil
}

// CleanImagePrompt strips quoting and markdown from a model-written prompt and
// keeps only the first words of an overlong one.
func CleanImagePrompt(text string) string {
	p := strings.TrimSpace(text)
	p = strings.Trim(p, `"`)
	p = strings.Trim(p, `'`)
	p = strings.Trim(p, "`")
	p = strings.ReplaceAll(p, "**", "")
	p = strings.ReplaceAll(p, "*", "")
	p = strings.TrimSpace(p)
	if len(p) > maxPromptChars {
		words := strings.Fields(p)
		if len(words) > maxPromptWords {
			words = words[:maxPromptWords]
		}
		p = strings.Join(words, " ")
	}
	return p
}

func fallbackImagePrompt(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "campaign"
	}
	return truncate(title, 30) + " modern vibrant"
}

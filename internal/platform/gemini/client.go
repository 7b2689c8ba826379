// Package gemini wraps the Google GenAI SDK behind the single completion call
// the generators and planners need.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/yungbote/campaign-canvas-backend/internal/pkg/httpx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

const DefaultModel = "gemini-2.0-flash"

// JSONInstruction is appended to system prompts of calls that must return JSON.
const JSONInstruction = "\nYou must respond with valid JSON only. No markdown, no explanations, just pure JSON."

var ErrEmptyResponse = errors.New("gemini returned an empty response")

type CompleteRequest struct {
	Prompt          string
	System          string
	Temperature     float32
	MaxOutputTokens int
}

// Client is the completion service.
type Client interface {
	Complete(ctx context.Context, req CompleteRequest) (string, error)
}

// CompleteFunc adapts a function to Client.
type CompleteFunc func(ctx context.Context, req CompleteRequest) (string, error)

func (f CompleteFunc) Complete(ctx context.Context, req CompleteRequest) (string, error) {
	return f(ctx, req)
}

type Config struct {
	APIKey     string
	Model      string
	MaxRetries int
}

type client struct {
	log   *logger.Logger
	sdk   *genai.Client
	model string
	retry httpx.RetryPolicy
}

func NewClient(ctx context.Context, cfg Config, baseLog *logger.Logger) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	log := baseLog.With("client", "GeminiClient", "model", model)
	return &client{
		log:   log,
		sdk:   sdk,
		model: model,
		retry: httpx.RetryPolicy{
			MaxRetries:  cfg.MaxRetries,
			BaseBackoff: 1 * time.Second,
			MaxBackoff:  8 * time.Second,
			OnRetry: func(attempt int, sleep time.Duration, err error) {
				log.Warn("gemini call retrying", "attempt", attempt, "sleep", sleep.String(), "error", err)
			},
		},
	}, nil
}

func (c *client) Complete(ctx context.Context, req CompleteRequest) (string, error) {
	ctx, span := otel.Tracer("campaign-canvas/gemini").Start(ctx, "gemini.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", c.model),
		attribute.Int("gemini.prompt_chars", len(req.Prompt)),
	)

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	var text string
	err := httpx.Retry(ctx, c.retry, func(ctx context.Context) error {
		resp, err := c.sdk.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
		if err != nil {
			return classify(err)
		}
		text = strings.TrimSpace(resp.Text())
		if text == "" {
			return ErrEmptyResponse
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return text, nil
}

// classify turns SDK API errors into httpx status errors so the retry policy
// can tell transient failures apart.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &httpx.StatusError{Service: "gemini", StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &httpx.StatusError{Service: "gemini", StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return err
}

package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/yungbote/campaign-canvas-backend/internal/pkg/httpx"
)

func TestClassifyMapsAPIErrors(t *testing.T) {
	err := classify(genai.APIError{Code: 503, Message: "overloaded"})
	if !httpx.IsRetryableError(err) {
		t.Fatalf("503 should be retryable: %v", err)
	}
	err = classify(genai.APIError{Code: 400, Message: "bad"})
	if httpx.IsRetryableError(err) {
		t.Fatalf("400 should not be retryable: %v", err)
	}
	plain := errors.New("plain")
	if classify(plain) != plain {
		t.Fatalf("non-API errors pass through")
	}
}

func TestCompleteFunc(t *testing.T) {
	var c Client = CompleteFunc(func(ctx context.Context, req CompleteRequest) (string, error) {
		return req.System + "|" + req.Prompt, nil
	})
	got, err := c.Complete(context.Background(), CompleteRequest{System: "s", Prompt: "p"})
	if err != nil || got != "s|p" {
		t.Fatalf("got=%q err=%v", got, err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}, nil); err == nil {
		t.Fatalf("expected missing key error")
	}
}

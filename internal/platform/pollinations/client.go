// Package pollinations builds image URLs for the Pollinations image service.
// The service renders on first fetch, so synthesis is URL construction.
package pollinations

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

const (
	DefaultBaseURL = "https://image.pollinations.ai/prompt"
	DefaultSize    = 1024
	maxPromptChars = 100
)

type Image struct {
	URL    string
	Prompt string
	Width  int
	Height int
}

type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string, width, height int) (Image, error)
}

type Config struct {
	BaseURL string
	// Prefetch issues a HEAD request so the image starts rendering before
	// the client asks for it.
	Prefetch   bool
	HTTPClient *http.Client
}

type client struct {
	log      *logger.Logger
	baseURL  string
	prefetch bool
	http     *http.Client
}

func NewClient(cfg Config, baseLog *logger.Logger) Synthesizer {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &client{
		log:      baseLog.With("client", "PollinationsClient"),
		baseURL:  base,
		prefetch: cfg.Prefetch,
		http:     hc,
	}
}

func (c *client) Synthesize(ctx context.Context, prompt string, width, height int) (Image, error) {
	if width <= 0 {
		width = DefaultSize
	}
	if height <= 0 {
		height = DefaultSize
	}
	clean := CleanPrompt(prompt)
	img := Image{
		URL:    BuildURL(c.baseURL, clean, width, height),
		Prompt: clean,
		Width:  width,
		Height: height,
	}
	if c.prefetch {
		c.warm(ctx, img.URL)
	}
	return img, nil
}

func (c *client) warm(ctx context.Context, u string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("pollinations prefetch failed", "error", err)
		return
	}
	_ = resp.Body.Close()
}

// CleanPrompt strips markdown emphasis and line breaks and caps the length.
func CleanPrompt(prompt string) string {
	s := strings.TrimSpace(prompt)
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	if r := []rune(s); len(r) > maxPromptChars {
		s = string(r[:maxPromptChars-3]) + "..."
	}
	return s
}

func BuildURL(base, prompt string, width, height int) string {
	q := url.Values{}
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	return base + "/" + url.PathEscape(prompt) + "?" + q.Encode()
}

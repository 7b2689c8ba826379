// Package serper is a client for the Serper.dev Google search API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/campaign-canvas-backend/internal/pkg/httpx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

const (
	DefaultBaseURL = "https://google.serper.dev/search"
	// MaxResults is the most organic results Serper returns per call.
	MaxResults = 10
	defaultGL  = "in"
)

type Result struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]Result, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	GL         string
	MaxRetries int
	Timeout    time.Duration
	HTTPClient *http.Client
}

type client struct {
	log     *logger.Logger
	http    *http.Client
	apiKey  string
	baseURL string
	gl      string
	retry   httpx.RetryPolicy
}

func NewClient(cfg Config, baseLog *logger.Logger) (Searcher, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("serper: missing API key")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	gl := strings.TrimSpace(cfg.GL)
	if gl == "" {
		gl = defaultGL
	}
	log := baseLog.With("client", "SerperClient")
	return &client{
		log:     log,
		http:    hc,
		apiKey:  cfg.APIKey,
		baseURL: base,
		gl:      gl,
		retry: httpx.RetryPolicy{
			MaxRetries:  cfg.MaxRetries,
			BaseBackoff: 500 * time.Millisecond,
			MaxBackoff:  5 * time.Second,
			OnRetry: func(attempt int, sleep time.Duration, err error) {
				log.Warn("serper search retrying", "attempt", attempt, "sleep", sleep.String(), "error", err)
			},
		},
	}, nil
}

type searchRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl"`
	Num int    `json:"num"`
}

type searchResponse struct {
	Organic []Result `json:"organic"`
}

func (c *client) Search(ctx context.Context, query string, n int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("serper: empty query")
	}
	if n <= 0 || n > MaxResults {
		n = MaxResults
	}
	body, err := json.Marshal(searchRequest{Q: query, GL: c.gl, Num: n})
	if err != nil {
		return nil, err
	}

	var out searchResponse
	err = httpx.Retry(ctx, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("X-API-KEY", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &httpx.StatusError{Service: "serper", StatusCode: resp.StatusCode, Body: string(raw)}
		}
		out = searchResponse{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("serper: decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	results := Dedupe(out.Organic)
	c.log.Debug("serper search", "query", query, "results", len(results))
	return results, nil
}

// Dedupe keeps the first result for each normalized link.
func Dedupe(in []Result) []Result {
	seen := make(map[string]bool, len(in))
	out := make([]Result, 0, len(in))
	for _, r := range in {
		key := NormalizeLink(r.Link)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// NormalizeLink lowercases scheme and host, drops "www.", the query, the
// fragment and any trailing slash.
func NormalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(link), "/")
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimSuffix(u.EscapedPath(), "/")
	return strings.ToLower(u.Scheme) + "://" + host + path
}

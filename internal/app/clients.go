package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/gemini"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/pollinations"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/serper"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime/bus"
)

var errSearchDisabled = errors.New("influencer search disabled: SERPER_API_KEY not set")

// disabledSearch fails every query so only the influencer units fail.
type disabledSearch struct{}

func (disabledSearch) Search(context.Context, string, int) ([]serper.Result, error) {
	return nil, errSearchDisabled
}

type Clients struct {
	LLM    gemini.Client
	Images pollinations.Synthesizer
	Search serper.Searcher
	SSEBus bus.Bus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	llm, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:     cfg.GoogleAPIKey,
		Model:      cfg.GeminiModel,
		MaxRetries: cfg.GeminiRetries,
	}, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init gemini client: %w", err)
	}

	var search serper.Searcher = disabledSearch{}
	if strings.TrimSpace(cfg.SerperAPIKey) != "" {
		search, err = serper.NewClient(serper.Config{APIKey: cfg.SerperAPIKey, GL: cfg.SerperGL}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init serper client: %w", err)
		}
	} else {
		log.Warn("SERPER_API_KEY not set; influencer discovery will fail")
	}

	images := pollinations.NewClient(pollinations.Config{BaseURL: cfg.ImageBaseURL, Prefetch: cfg.ImagePrefetch}, log)

	// Redis fans SSE events out across API instances; a single process
	// delivers in memory.
	var sseBus bus.Bus
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		sseBus, err = bus.NewRedisBus(bus.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Channel:  cfg.RedisChannel,
		}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
	} else {
		sseBus = bus.NewLocalBus()
	}

	return Clients{LLM: llm, Images: images, Search: search, SSEBus: sseBus}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
}

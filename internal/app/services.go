package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/campaign-canvas-backend/internal/jobs/pipeline/campaign_execute"
	"github.com/yungbote/campaign-canvas-backend/internal/jobs/pipeline/canvas_modify"
	jobruntime "github.com/yungbote/campaign-canvas-backend/internal/jobs/runtime"
	"github.com/yungbote/campaign-canvas-backend/internal/jobs/worker"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/assets"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/execution"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/generators"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/modify"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/planner"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/progress"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/prompts"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	Campaign services.CampaignService
	Chat     services.ChatService
	Canvas   services.CanvasService

	// Jobs + notifications
	JobNotifier services.JobNotifier
	JobService  services.JobService

	// Orchestrators
	Execution *execution.Orchestrator
	Modify    *modify.Orchestrator

	// Job infra
	JobRegistry *jobruntime.Registry
	JobWorker   *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	lib := prompts.Default(log)
	store := assets.NewStore(db, log, repos.Asset, repos.AssetVersion)
	reporter := progress.NewRecorder(repos.ChatMessage, clients.SSEBus, log)

	copyGen := generators.NewCopyGenerator(clients.LLM, lib, log)
	imageGen := generators.NewImageGenerator(clients.LLM, clients.Images, lib, log)
	influencerGen := generators.NewInfluencerGenerator(clients.LLM, clients.Search, lib, log)
	planGen := generators.NewPlanGenerator(clients.LLM, lib, log)
	strategyGen := generators.NewStrategyGenerator(clients.LLM, lib, log)

	executor := execution.NewOrchestrator(repos.Campaign, store, execution.Generators{
		Copy:       copyGen,
		Image:      imageGen,
		Influencer: influencerGen,
		Plan:       planGen,
	}, reporter, execution.Config{
		DayConcurrency:  cfg.ExecutionDayConcurrency,
		InfluencerCount: cfg.InfluencerCount,
	}, log)

	modifier := modify.NewOrchestrator(store, modify.Generators{
		Copy:       copyGen,
		Image:      imageGen,
		Influencer: influencerGen,
		Plan:       planGen,
	}, repos.Modification, reporter, modify.Config{
		Concurrency:     cfg.ModifyConcurrency,
		InfluencerCount: cfg.InfluencerCount,
	}, log)

	// The rules planner answers when the completion service is down or
	// returns an unusable plan.
	plan := planner.NewChain(planner.NewLLMPlanner(clients.LLM, lib, log), planner.NewRulePlanner(), log)

	notifier := services.NewJobNotifier(clients.SSEBus, log)
	jobService := services.NewJobService(db, log, repos.JobRun, notifier)

	registry := jobruntime.NewRegistry()
	if err := registry.Register(campaign_execute.New(log, executor)); err != nil {
		return Services{}, fmt.Errorf("register campaign_execute: %w", err)
	}
	if err := registry.Register(canvas_modify.New(log, repos.Campaign, repos.Modification, modifier)); err != nil {
		return Services{}, fmt.Errorf("register canvas_modify: %w", err)
	}
	jobWorker := worker.NewWorker(log, repos.JobRun, registry, notifier, worker.Config{
		Concurrency:  cfg.WorkerConcurrency,
		PollInterval: cfg.WorkerPollInterval,
		MaxAttempts:  cfg.WorkerMaxAttempts,
	})

	return Services{
		Auth:        services.NewAuthService(log, cfg.JWTSecret, cfg.JWTAudience),
		Campaign:    services.NewCampaignService(db, log, repos.Campaign, repos.ChatMessage),
		Chat:        services.NewChatService(db, log, repos.Campaign, repos.ChatMessage, jobService, strategyGen, clients.SSEBus),
		Canvas:      services.NewCanvasService(db, log, repos.Campaign, repos.Modification, store, plan, modifier, jobService),
		JobNotifier: notifier,
		JobService:  jobService,
		Execution:   executor,
		Modify:      modifier,
		JobRegistry: registry,
		JobWorker:   jobWorker,
	}, nil
}

package app

import (
	"github.com/yungbote/campaign-canvas-backend/internal/http"
	httpH "github.com/yungbote/campaign-canvas-backend/internal/http/handlers"
	httpMW "github.com/yungbote/campaign-canvas-backend/internal/http/middleware"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Realtime *httpH.RealtimeHandler
	Campaign *httpH.CampaignHandler
	Chat     *httpH.ChatHandler
	Canvas   *httpH.CanvasHandler
	Job      *httpH.JobHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Realtime: httpH.NewRealtimeHandler(log, sseHub, services.Campaign),
		Campaign: httpH.NewCampaignHandler(services.Campaign),
		Chat:     httpH.NewChatHandler(services.Chat),
		Canvas:   httpH.NewCanvasHandler(services.Canvas),
		Job:      httpH.NewJobHandler(services.JobService),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:             log,
		ServiceName:     serviceName,
		FrontendURL:     cfg.FrontendURL,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		RealtimeHandler: handlers.Realtime,
		CampaignHandler: handlers.Campaign,
		ChatHandler:     handlers.Chat,
		CanvasHandler:   handlers.Canvas,
		JobHandler:      handlers.Job,
	})
}

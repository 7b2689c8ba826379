package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/campaign-canvas-backend/internal/http/handlers"
	httpMW "github.com/yungbote/campaign-canvas-backend/internal/http/middleware"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	FrontendURL    string
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	RealtimeHandler *httpH.RealtimeHandler
	CampaignHandler *httpH.CampaignHandler
	ChatHandler     *httpH.ChatHandler
	CanvasHandler   *httpH.CanvasHandler
	JobHandler      *httpH.JobHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.FrontendURL))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
			protected.POST("/sse/subscribe", cfg.RealtimeHandler.SSESubscribe)
			protected.POST("/sse/unsubscribe", cfg.RealtimeHandler.SSEUnsubscribe)
		}

		// Campaigns
		if cfg.CampaignHandler != nil {
			protected.POST("/campaigns", cfg.CampaignHandler.CreateCampaign)
			protected.GET("/campaigns", cfg.CampaignHandler.ListCampaigns)
			protected.GET("/campaigns/:id", cfg.CampaignHandler.GetCampaign)
			protected.DELETE("/campaigns/:id", cfg.CampaignHandler.DeleteCampaign)
			protected.GET("/campaigns/:id/messages", cfg.CampaignHandler.ListMessages)
		}

		// Chat
		if cfg.ChatHandler != nil {
			protected.POST("/chat/message", cfg.ChatHandler.SendMessage)
			protected.POST("/chat/confirm-execute", cfg.ChatHandler.ConfirmExecute)
		}

		// Canvas
		if cfg.CanvasHandler != nil {
			protected.GET("/canvas/:id", cfg.CanvasHandler.GetCanvas)
			protected.POST("/canvas/:id/modify", cfg.CanvasHandler.Modify)
			protected.GET("/canvas/:id/modifications/:mid", cfg.CanvasHandler.GetModification)
			protected.GET("/canvas/:id/assets/:assetId/versions", cfg.CanvasHandler.ListVersions)
		}

		// Job
		if cfg.JobHandler != nil {
			protected.GET("/jobs/:id", cfg.JobHandler.GetJob)
			protected.POST("/jobs/:id/cancel", cfg.JobHandler.CancelJob)
		}
	}

	return r
}

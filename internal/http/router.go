package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/contentpilot/contentpilot-backend/internal/http/handlers"
	httpMW "github.com/contentpilot/contentpilot-backend/internal/http/middleware"
	"github.com/contentpilot/contentpilot-backend/internal/observability"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler    *httpH.HealthHandler
	VideoHandler     *httpH.VideoHandler
	WorkspaceHandler *httpH.WorkspaceHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := r.Group("/api")

	// Video factory proxy (unauthenticated, flat error body)
	if cfg.VideoHandler != nil {
		api.POST("/generate/video", cfg.VideoHandler.Generate)
		api.POST("/edit/video", cfg.VideoHandler.Inpaint)
	}

	workspace := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			workspace.Use(cfg.AuthMiddleware.Identify())
		}

		if h := cfg.WorkspaceHandler; h != nil {
			workspace.GET("/workspace", h.Get)
			workspace.POST("/onboarding", h.Onboard)

			// Brand
			workspace.PATCH("/brand", h.UpdateBrand)
			workspace.PUT("/brand/persona", h.UpdatePersona)

			// Plan
			workspace.POST("/plan/:day/review", h.ReviewItem)
			workspace.POST("/plan/:day/schedule", h.ScheduleItem)
			workspace.PATCH("/plan/:day", h.UpdatePlanItem)

			// Assets
			workspace.GET("/assets", h.ListAssets)
			workspace.POST("/assets", h.AppendAsset)
			workspace.POST("/assets/upload", h.UploadAsset)

			// Trends
			workspace.POST("/trends/refresh", h.RefreshTrends)
		}
	}

	return r
}

package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/contentpilot/contentpilot-backend/internal/data/repos"
	apphttp "github.com/contentpilot/contentpilot-backend/internal/http"
	httpH "github.com/contentpilot/contentpilot-backend/internal/http/handlers"
	httpMW "github.com/contentpilot/contentpilot-backend/internal/http/middleware"
	"github.com/contentpilot/contentpilot-backend/internal/observability"
	"github.com/contentpilot/contentpilot-backend/internal/platform/background"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
	"github.com/contentpilot/contentpilot-backend/internal/services"
)

type Services struct {
	Runner     *background.Runner
	Workspaces services.WorkspaceService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	runner := background.NewRunner(log, cfg.Pinecone.SyncTimeout, background.WithObserver(metrics.ObserveBackgroundTask))
	reposet := repos.New(clients.DB.DB(), log)

	out := Services{Runner: runner}
	deps := services.WorkspaceDeps{
		Snapshots:  reposet.WorkspaceSnapshots,
		Events:     clients.Events,
		Bucket:     clients.Bucket,
		ReadyDelay: cfg.Workspace.ReadyDelay,
	}

	// Onboarding and trend refresh need the model; without it the workspace
	// API answers 503 for those routes.
	if clients.Gemini != nil {
		content := services.NewContentService(log, clients.Gemini, cfg.Workspace.PlanDays)
		orch, err := services.NewOrchestrator(log, services.OrchestratorDeps{
			Plans:    content,
			Trends:   content,
			Research: content,
			Personas: content,
			Memory:   services.NewMemorySync(log, clients.Gemini, clients.Vectors),
			Runner:   runner,
			Metrics:  metrics,
		})
		if err != nil {
			return Services{}, fmt.Errorf("init orchestrator: %w", err)
		}
		deps.Orchestrator = orch
		deps.Trends = content
	}

	out.Workspaces = services.NewWorkspaceService(log, deps)
	return out, nil
}

func wireRouter(log *logger.Logger, cfg Config, clients Clients, svcs Services, metrics *observability.Metrics) *gin.Engine {
	log.Info("Wiring router...")

	checks := map[string]httpH.HealthCheckFunc{
		"database": func(ctx context.Context) error {
			sqlDB, err := clients.DB.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	serviceName := ""
	if cfg.Tracing.Enabled {
		serviceName = ServiceName
	}

	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:              log,
		ServiceName:      serviceName,
		CORSOrigins:      cfg.HTTP.CORSOrigins,
		Metrics:          metrics,
		AuthMiddleware:   httpMW.NewAuthMiddleware(log, cfg.HTTP.JWTSecret),
		HealthHandler:    httpH.NewHealthHandler(checks),
		VideoHandler:     httpH.NewVideoHandler(log, clients.Factory, metrics),
		WorkspaceHandler: httpH.NewWorkspaceHandler(log, svcs.Workspaces, cfg.HTTP.MaxUploadBytes),
	})
}

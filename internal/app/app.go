package app

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gin-gonic/gin"

	apphttp "github.com/contentpilot/contentpilot-backend/internal/http"
	"github.com/contentpilot/contentpilot-backend/internal/observability"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
	"github.com/contentpilot/contentpilot-backend/internal/platform/redis"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Router   *gin.Engine

	server          *apphttp.Server
	shutdownTracing func(context.Context) error
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	shutdownTracing := observability.InitTracing(ctx, log, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Tracing.Version,
		Endpoint:    cfg.Tracing.Endpoint,
		Headers:     cfg.Tracing.Headers,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	metrics := observability.NewMetrics()

	clients, err := wireClients(ctx, log, cfg, metrics)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}

	svcs, err := wireServices(log, cfg, clients, metrics)
	if err != nil {
		_ = clients.Close()
		_ = shutdownTracing(ctx)
		return nil, err
	}

	router := wireRouter(log, cfg, clients, svcs, metrics)

	return &App{
		Log:      log,
		Cfg:      cfg,
		Clients:  clients,
		Services: svcs,
		Metrics:  metrics,
		Router:   router,
		server: apphttp.NewServer(log, apphttp.ServerConfig{
			Addr:              cfg.HTTP.Addr,
			ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
			IdleTimeout:       cfg.HTTP.IdleTimeout,
			ShutdownTimeout:   cfg.HTTP.ShutdownTimeout,
		}, router),
		shutdownTracing: shutdownTracing,
	}, nil
}

// Run serves HTTP until ctx is cancelled and then releases every resource.
func (a *App) Run(ctx context.Context) error {
	a.startForwarder(ctx)
	err := a.server.Run(ctx)
	a.Close()
	return err
}

// Serve is Run over an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.startForwarder(ctx)
	err := a.server.Serve(ctx, ln)
	a.Close()
	return err
}

func (a *App) startForwarder(ctx context.Context) {
	if a.Clients.Events == nil {
		return
	}
	if err := a.Clients.Events.StartForwarder(ctx, a.logEvent); err != nil {
		a.Log.Warn("Event forwarder not started", "error", err)
	}
}

func (a *App) logEvent(ev redis.Event) {
	a.Log.Debug("Workspace event", "type", ev.Type, "user_id", ev.UserID, "day", ev.Day)
}

// Close drains background work and closes integrations. Safe to call twice.
func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if a.Services.Workspaces != nil {
		a.Services.Workspaces.Close()
		a.Services.Workspaces = nil
	}
	if a.Services.Runner != nil {
		errs = append(errs, a.Services.Runner.Shutdown(ctx))
		a.Services.Runner = nil
	}
	errs = append(errs, a.Clients.Close())
	if a.shutdownTracing != nil {
		errs = append(errs, a.shutdownTracing(ctx))
		a.shutdownTracing = nil
	}
	if err := errors.Join(errs...); err != nil {
		a.Log.Warn("Shutdown finished with errors", "error", err)
	}
	a.Log.Sync()
}

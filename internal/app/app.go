package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/mysteryparty-backend/internal/config"
	"github.com/yungbote/mysteryparty-backend/internal/data/db"
	"github.com/yungbote/mysteryparty-backend/internal/http"
	"github.com/yungbote/mysteryparty-backend/internal/observability"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
	"github.com/yungbote/mysteryparty-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	Cfg      config.Config
	DB       *db.Service
	Metrics  *observability.Metrics
	Clients  Clients
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Server   *http.Server

	otelShutdown func(context.Context) error
}

// New wires the API server.
func New(cfg config.Config) (*App, error) {
	return build(cfg, true)
}

// NewTooling wires storage and services for operator commands. It opens no
// listener, redis connection or HTTP server.
func NewTooling(cfg config.Config) (*App, error) {
	return build(cfg, false)
}

func build(cfg config.Config, serve bool) (*App, error) {
	log, err := logger.New(cfg.LogMode, logger.WithRedaction(cfg.LogRedaction), logger.WithHashSalt(cfg.LogHashSalt))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		Enabled:     serve && cfg.Telemetry.OTelEnabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Telemetry.Environment,
		Version:     cfg.Telemetry.Version,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     observability.ParseHeaders(cfg.Telemetry.OTLPHeaders),
		Insecure:    cfg.Telemetry.OTLPInsecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	var metrics *observability.Metrics
	if serve && cfg.Telemetry.MetricsEnabled {
		metrics = observability.Init(log)
	}

	dbs, err := db.NewService(log, db.Config{
		Driver:        cfg.DB.Driver,
		DSN:           cfg.DB.DSN,
		SlowThreshold: cfg.DB.SlowThreshold,
		LogLevel:      cfg.DB.LogLevel,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if serve && cfg.DB.AutoMigrate {
		if err := dbs.AutoMigrateAll(); err != nil {
			_ = dbs.Close()
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	clients, err := wireClients(log, cfg, serve)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	hub := realtime.NewSSEHub(log)
	hub.SetHeartbeat(cfg.HTTP.SSEHeartbeat)

	reposet := wireRepos(dbs.DB(), log)
	serviceset, err := wireServices(dbs.DB(), log, cfg, reposet, clients, hub, metrics, serve)
	if err != nil {
		clients.close()
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	a := &App{
		Log:          log,
		Cfg:          cfg,
		DB:           dbs,
		Metrics:      metrics,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       hub,
		otelShutdown: otelShutdown,
	}
	if serve {
		handlerset := wireHandlers(log, dbs, clients, serviceset, hub)
		middleware := wireMiddleware(log, serviceset)
		a.Server = wireServer(log, cfg, metrics, handlerset, middleware)
	}
	return a, nil
}

// Run serves HTTP and drives the change feed until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized for serving")
	}
	g, gctx := errgroup.WithContext(ctx)

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(gctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
	}

	g.Go(func() error {
		return a.Services.Feed.Run(gctx)
	})
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTP.Addr)
		return a.Server.Run(gctx, a.Cfg.HTTP.ShutdownTimeout)
	})

	err := g.Wait()
	a.Services.Watches.CloseAll()
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.close()
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

package app

import (
	"github.com/yungbote/mysteryparty-backend/internal/config"
	"github.com/yungbote/mysteryparty-backend/internal/data/db"
	"github.com/yungbote/mysteryparty-backend/internal/http"
	httpH "github.com/yungbote/mysteryparty-backend/internal/http/handlers"
	httpMW "github.com/yungbote/mysteryparty-backend/internal/http/middleware"
	"github.com/yungbote/mysteryparty-backend/internal/observability"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
	"github.com/yungbote/mysteryparty-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Mystery    *httpH.MysteryHandler
	Generation *httpH.GenerationHandler
	Realtime   *httpH.RealtimeHandler
	Writer     *httpH.WriterHandler
	Access     *httpH.AccessHandler
	Email      *httpH.EmailHandler
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireHandlers(log *logger.Logger, dbs *db.Service, clients Clients, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(readinessChecks(dbs, clients)...),
		Mystery:    httpH.NewMysteryHandler(services.Conversations, services.Reconciler, services.Content),
		Generation: httpH.NewGenerationHandler(log, services.Conversations, services.Trigger, services.Reconciler, services.Watches),
		Realtime:   httpH.NewRealtimeHandler(log, sseHub, services.Conversations, services.Watches),
		Writer:     httpH.NewWriterHandler(services.Content),
		Access:     httpH.NewAccessHandler(services.Access),
		Email:      httpH.NewEmailHandler(services.Email),
	}
}

func wireServer(log *logger.Logger, cfg config.Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(cfg.HTTP.Addr, http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       cfg.Telemetry.ServiceName,
		TracingEnabled:    cfg.Telemetry.OTelEnabled,
		AllowedOrigins:    cfg.HTTP.AllowedOrigins,
		InternalSecret:    cfg.HTTP.InternalSecret,
		AuthMiddleware:    middleware.Auth,
		MysteryHandler:    handlers.Mystery,
		GenerationHandler: handlers.Generation,
		RealtimeHandler:   handlers.Realtime,
		WriterHandler:     handlers.Writer,
		AccessHandler:     handlers.Access,
		EmailHandler:      handlers.Email,
		HealthHandler:     handlers.Health,
	})
}

func readinessChecks(dbs *db.Service, clients Clients) []httpH.ReadinessCheck {
	checks := []httpH.ReadinessCheck{{Name: "database", Ping: dbs.Ping}}
	if clients.SSEBus != nil {
		checks = append(checks, httpH.ReadinessCheck{Name: "redis", Ping: clients.SSEBus.Ping})
	}
	return checks
}

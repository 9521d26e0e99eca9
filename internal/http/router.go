package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/mysteryparty-backend/internal/http/handlers"
	httpMW "github.com/yungbote/mysteryparty-backend/internal/http/middleware"
	"github.com/yungbote/mysteryparty-backend/internal/observability"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	AllowedOrigins []string
	InternalSecret string

	AuthMiddleware *httpMW.AuthMiddleware

	MysteryHandler    *httpH.MysteryHandler
	GenerationHandler *httpH.GenerationHandler
	RealtimeHandler   *httpH.RealtimeHandler
	WriterHandler     *httpH.WriterHandler
	AccessHandler     *httpH.AccessHandler
	EmailHandler      *httpH.EmailHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Writer callbacks (shared secret)
	if cfg.WriterHandler != nil {
		internal := r.Group("/internal", httpMW.InternalSecret(cfg.InternalSecret))
		internal.PUT("/packages/:conversationId", cfg.WriterHandler.SavePackage)
		internal.PUT("/generation/:conversationId/status", cfg.WriterHandler.UpdateStatus)
	}

	api := r.Group("/api")
	{
		// Access links (public, token is the credential)
		if cfg.AccessHandler != nil {
			api.GET("/access/host/:token", cfg.AccessHandler.Host)
			api.GET("/access/character/:token", cfg.AccessHandler.Character)
		}

		// Realtime (SSE); EventSource sends its token as ?token=
		if cfg.RealtimeHandler != nil {
			var chain []gin.HandlerFunc
			if cfg.AuthMiddleware != nil {
				chain = append(chain, cfg.AuthMiddleware.RequireStreamAuth())
			}
			chain = append(chain, cfg.RealtimeHandler.GenerationStream)
			api.GET("/mysteries/:id/generation/stream", chain...)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Mysteries
		if cfg.MysteryHandler != nil {
			protected.POST("/mysteries", cfg.MysteryHandler.Create)
			protected.GET("/mysteries/:id", cfg.MysteryHandler.Get)
			protected.GET("/mysteries/:id/package", cfg.MysteryHandler.GetPackage)
		}

		// Generation
		if cfg.GenerationHandler != nil {
			protected.POST("/mysteries/:id/generation", cfg.GenerationHandler.Start)
			protected.POST("/mysteries/:id/generation/resume", cfg.GenerationHandler.Resume)
			protected.GET("/mysteries/:id/generation/status", cfg.GenerationHandler.Status)
			protected.POST("/mysteries/:id/generation/watches/:watchId/recheck", cfg.GenerationHandler.Recheck)
		}

		// Emails
		if cfg.EmailHandler != nil {
			protected.POST("/mysteries/:id/emails/character", cfg.EmailHandler.SendCharacter)
			protected.POST("/mysteries/:id/emails/host", cfg.EmailHandler.SendHost)
		}
	}

	return r
}

package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/mysteryparty-backend/internal/config"
	"github.com/yungbote/mysteryparty-backend/internal/observability"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
	"github.com/yungbote/mysteryparty-backend/internal/realtime"
	"github.com/yungbote/mysteryparty-backend/internal/services"
)

type Services struct {
	Auth          services.AuthService
	Conversations services.ConversationService
	Reconciler    services.StatusReconciler
	Trigger       services.GenerationTrigger
	Feed          *services.StatusFeed
	Content       services.ContentService
	Completion    services.CompletionHandler
	Watches       *services.WatchRegistry
	Access        services.AccessService
	Email         services.EmailService
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg config.Config,
	reposet Repos,
	clients Clients,
	hub *realtime.SSEHub,
	metrics *observability.Metrics,
	serve bool,
) (Services, error) {
	log.Info("Wiring services...")
	var out Services

	if serve {
		auth, err := services.NewAuthService(log, cfg.Auth.JWTSecretKey, cfg.Auth.AccessTokenTTL)
		if err != nil {
			return Services{}, fmt.Errorf("init auth service: %w", err)
		}
		out.Auth = auth
	}

	var listener services.ChangeListener
	if clients.Listener != nil {
		listener = clients.Listener
	}
	out.Feed = services.NewStatusFeed(log, listener, cfg.Status.PollInterval, metrics)

	out.Conversations = services.NewConversationService(log, reposet.Conversation)
	out.Reconciler = services.NewStatusReconciler(log, reposet.GenerationJob, reposet.PackageContent, reposet.Conversation, metrics)
	if clients.Webhook != nil {
		out.Trigger = services.NewGenerationTrigger(log, reposet.GenerationJob, reposet.Conversation, clients.Webhook, out.Feed, metrics,
			services.TriggerConfig{
				TestMode:              cfg.Generation.TestMode,
				AllowTestModeOverride: cfg.Generation.AllowTestModeOverride,
			})
	}
	out.Content = services.NewContentService(db, log, reposet.PackageContent, reposet.GenerationJob, reposet.Conversation, out.Feed)
	out.Completion = services.NewCompletionHandler(log, reposet.PackageContent, reposet.Conversation, metrics)

	links := services.NewLinkBuilder(cfg.AppBaseURL)
	out.Access = services.NewAccessService(log, reposet.PackageContent, links)
	out.Email = services.NewEmailService(log, clients.Mail, reposet.PackageContent, reposet.Conversation, links, metrics)

	if serve {
		var emitter services.SSEEmitter = &services.HubEmitter{Hub: hub}
		if clients.SSEBus != nil {
			emitter = &services.RedisEmitter{Bus: clients.SSEBus, Log: log}
		}
		out.Watches = services.NewWatchRegistry(log, out.Reconciler, out.Feed, out.Completion,
			services.NewWatchNotifier(emitter), metrics, cfg.Status.RecheckInterval)
	}
	return out, nil
}

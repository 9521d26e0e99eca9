package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/mysteryparty-backend/internal/config"
	"github.com/yungbote/mysteryparty-backend/internal/data/db"
	"github.com/yungbote/mysteryparty-backend/internal/platform/genwebhook"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
	"github.com/yungbote/mysteryparty-backend/internal/platform/pgnotify"
	"github.com/yungbote/mysteryparty-backend/internal/platform/sendgrid"
	"github.com/yungbote/mysteryparty-backend/internal/realtime/bus"
)

type Clients struct {
	// Webhook is nil when no generation URL is configured (tooling only).
	Webhook  genwebhook.Client
	Mail     sendgrid.Client
	SSEBus   bus.Bus
	Listener *pgnotify.Listener
}

func wireClients(log *logger.Logger, cfg config.Config, serve bool) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Generation service
	if strings.TrimSpace(cfg.Generation.WebhookURL) != "" {
		wh, err := genwebhook.New(log, genwebhook.Config{
			URL:        cfg.Generation.WebhookURL,
			Secret:     cfg.Generation.WebhookSecret,
			Timeout:    cfg.Generation.Timeout,
			MaxRetries: cfg.Generation.MaxRetries,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init generation webhook: %w", err)
		}
		out.Webhook = wh
	} else if serve {
		return Clients{}, fmt.Errorf("init generation webhook: missing GENERATION_WEBHOOK_URL")
	}

	// SendGrid
	if strings.TrimSpace(cfg.Email.SendGridAPIKey) != "" {
		mail, err := sendgrid.New(log, sendgrid.Config{
			APIKey:           cfg.Email.SendGridAPIKey,
			BaseURL:          cfg.Email.SendGridURL,
			DefaultFromEmail: cfg.Email.FromEmail,
			DefaultFromName:  cfg.Email.FromName,
			Timeout:          cfg.Email.Timeout,
			MaxRetries:       cfg.Email.MaxRetries,
			SandboxMode:      cfg.Email.SandboxMode,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init sendgrid: %w", err)
		}
		out.Mail = mail
	} else {
		log.Warn("SENDGRID_API_KEY not set; emails are logged, not sent")
		out.Mail = sendgrid.NewLogOnly(log)
	}

	if !serve {
		return out, nil
	}

	// Redis
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := bus.NewRedisBus(log, bus.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.SSEChannel,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		out.SSEBus = b
	}

	// Postgres change notifications
	if cfg.PushAvailable() {
		channel := strings.TrimSpace(cfg.Status.NotifyChannel)
		if channel == "" {
			channel = db.ChangeChannel
		}
		if channel != db.ChangeChannel {
			log.Warn("Notify channel differs from the migrated trigger channel",
				"configured", channel, "trigger", db.ChangeChannel)
		}
		l, err := pgnotify.New(log, pgnotify.Config{DSN: cfg.DB.DSN, Channel: channel})
		if err != nil {
			out.close()
			return Clients{}, fmt.Errorf("init change listener: %w", err)
		}
		out.Listener = l
	}

	return out, nil
}

func (c Clients) close() {
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
}

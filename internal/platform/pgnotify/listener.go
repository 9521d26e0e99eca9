package pgnotify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yungbote/mysteryparty-backend/internal/platform/httpx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

// Handler receives the payload of each notification.
type Handler func(payload string)

type Config struct {
	DSN            string
	Channel        string
	ReconnectDelay time.Duration
}

// Listener holds a dedicated connection in LISTEN mode and reconnects when it
// drops. Notifications sent while disconnected are lost.
type Listener struct {
	cfg       Config
	log       *logger.Logger
	connected atomic.Bool
}

func New(log *logger.Logger, cfg Config) (*Listener, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.Channel = strings.TrimSpace(cfg.Channel)
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pgnotify: dsn required")
	}
	if cfg.Channel == "" {
		return nil, fmt.Errorf("pgnotify: channel required")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 2 * time.Second
	}
	return &Listener{
		cfg: cfg,
		log: log.With("service", "PGNotifyListener", "channel", cfg.Channel),
	}, nil
}

// Connected reports whether the LISTEN connection is currently up.
func (l *Listener) Connected() bool {
	return l != nil && l.connected.Load()
}

// Run blocks until ctx is done.
func (l *Listener) Run(ctx context.Context, onNotify Handler) error {
	if onNotify == nil {
		return fmt.Errorf("pgnotify: handler required")
	}
	for {
		err := l.listenOnce(ctx, onNotify)
		l.connected.Store(false)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Warn("LISTEN connection lost; reconnecting", "error", err, "delay", l.cfg.ReconnectDelay.String())
		if err := httpx.Sleep(ctx, l.cfg.ReconnectDelay); err != nil {
			return nil
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, onNotify Handler) error {
	conn, err := pgx.Connect(ctx, l.cfg.DSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.cfg.Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.connected.Store(true)
	l.log.Info("Listening for change notifications")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			return fmt.Errorf("wait: %w", err)
		}
		if n == nil {
			continue
		}
		onNotify(strings.TrimSpace(n.Payload))
	}
}

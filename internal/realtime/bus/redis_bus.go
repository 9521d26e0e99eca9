package bus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
	"github.com/yungbote/mysteryparty-backend/internal/realtime"
)

const (
	defaultPrefix = "mystery:sse"
	defaultMaxAge = 30 * time.Second
)

type Config struct {
	Addr     string
	Password string
	DB       int
	// Channel prefixes the per-watch redis channels.
	Channel string
	// MaxAge drops forwarded messages older than this.
	MaxAge time.Duration
}

type redisBus struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	origin string
	maxAge time.Duration
	now    func() time.Time
}

func NewRedisBus(log *logger.Logger, cfg Config) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimRight(strings.TrimSpace(cfg.Channel), ":")
	if prefix == "" {
		prefix = defaultPrefix
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	b := &redisBus{
		log:    log.With("service", "RedisSSEBus"),
		rdb:    rdb,
		prefix: prefix,
		origin: uuid.NewString(),
		maxAge: maxAge,
		now:    time.Now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return b, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	raw, err := encodeEnvelope(b.origin, b.now(), msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, topic(b.prefix, msg.Channel), raw).Err()
}

// StartForwarder pattern-subscribes to every watch topic and hands decoded
// messages to onMsg until ctx ends. go-redis reconnects the subscription on
// its own.
func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.PSubscribe(ctx, pattern(b.prefix))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				env, err := decodeEnvelope([]byte(m.Payload))
				if err != nil {
					b.log.Warn("Bad redis SSE payload", "topic", m.Channel, "error", err)
					continue
				}
				if env.stale(b.now(), b.maxAge) {
					b.log.Debug("Dropping stale SSE message", "channel", env.Message.Channel, "origin", env.Origin)
					continue
				}
				onMsg(env.Message)
			}
		}
	}()
	return nil
}

func (b *redisBus) Ping(ctx context.Context) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	return b.rdb.Ping(ctx).Err()
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

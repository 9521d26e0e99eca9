package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/mysteryparty-backend/internal/observability"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
	"github.com/yungbote/mysteryparty-backend/internal/platform/pgnotify"
)

const (
	feedSourcePush  = "push"
	feedSourceLocal = "local"
	feedSourcePoll  = "poll"

	defaultFeedPollInterval = 5 * time.Second
)

// ChangeListener is the push channel behind the feed. pgnotify.Listener
// satisfies it.
type ChangeListener interface {
	Run(ctx context.Context, onNotify pgnotify.Handler) error
	Connected() bool
}

// StatusFeed fans change events for a conversation out to its subscribers.
// Events come from the database channel, from local writes, and from a
// fallback poll while no push channel is connected. Duplicate events are
// expected; subscribers re-derive state on each one.
type StatusFeed struct {
	log          *logger.Logger
	listener     ChangeListener
	pollInterval time.Duration
	metrics      *observability.Metrics

	mu     sync.RWMutex
	nextID uint64
	subs   map[uuid.UUID]map[uint64]func()
}

func NewStatusFeed(baseLog *logger.Logger, listener ChangeListener, pollInterval time.Duration, metrics *observability.Metrics) *StatusFeed {
	if pollInterval <= 0 {
		pollInterval = defaultFeedPollInterval
	}
	return &StatusFeed{
		log:          baseLog.With("service", "StatusFeed"),
		listener:     listener,
		pollInterval: pollInterval,
		metrics:      metrics,
		subs:         map[uuid.UUID]map[uint64]func(){},
	}
}

// Subscribe registers fn for change events on conversationID. The returned
// func removes the subscription and is safe to call more than once.
func (f *StatusFeed) Subscribe(conversationID uuid.UUID, fn func()) func() {
	if f == nil || fn == nil || conversationID == uuid.Nil {
		return func() {}
	}
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	if f.subs[conversationID] == nil {
		f.subs[conversationID] = map[uint64]func(){}
	}
	f.subs[conversationID][id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if m := f.subs[conversationID]; m != nil {
				delete(m, id)
				if len(m) == 0 {
					delete(f.subs, conversationID)
				}
			}
		})
	}
}

// Notify dispatches a local change event.
func (f *StatusFeed) Notify(conversationID uuid.UUID) {
	f.dispatch(conversationID, feedSourceLocal)
}

func (f *StatusFeed) Subscribers(conversationID uuid.UUID) int {
	if f == nil {
		return 0
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[conversationID])
}

func (f *StatusFeed) dispatch(conversationID uuid.UUID, source string) {
	if f == nil || conversationID == uuid.Nil {
		return
	}
	f.mu.RLock()
	m := f.subs[conversationID]
	fns := make([]func(), 0, len(m))
	for _, fn := range m {
		fns = append(fns, fn)
	}
	f.mu.RUnlock()
	if len(fns) == 0 {
		return
	}
	f.metrics.IncFeedEvent(source)
	for _, fn := range fns {
		go fn()
	}
}

func (f *StatusFeed) conversations() []uuid.UUID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(f.subs))
	for id := range f.subs {
		out = append(out, id)
	}
	return out
}

func (f *StatusFeed) pushConnected() bool {
	return f.listener != nil && f.listener.Connected()
}

// Run drives the push listener and the fallback poller until ctx is done.
func (f *StatusFeed) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if f.listener != nil {
		g.Go(func() error {
			return f.listener.Run(gctx, func(payload string) {
				id, err := uuid.Parse(strings.TrimSpace(payload))
				if err != nil {
					f.log.Warn("Ignoring malformed change payload", "payload", payload)
					return
				}
				f.dispatch(id, feedSourcePush)
			})
		})
	} else {
		f.log.Info("No push channel configured; status feed polling", "interval", f.pollInterval.String())
	}

	g.Go(func() error {
		ticker := time.NewTicker(f.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if f.pushConnected() {
					continue
				}
				for _, id := range f.conversations() {
					f.dispatch(id, feedSourcePoll)
				}
			}
		}
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/observability"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

const defaultRecheckInterval = 3 * time.Second

// StatusSubscriber is the part of StatusFeed a watch needs.
type StatusSubscriber interface {
	Subscribe(conversationID uuid.UUID, fn func()) func()
}

// WatchSession is one client's live view of a conversation's generation
// status. It owns the "already notified" flag for the first completion.
type WatchSession struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ConversationID uuid.UUID

	reg     *WatchRegistry
	ctx     context.Context
	cancel  context.CancelFunc
	recheck *rate.Sometimes

	// refreshes run one at a time so emitted statuses keep their order.
	refreshMu sync.Mutex

	mu            sync.Mutex
	started       bool
	last          types.GenerationStatus
	sawIncomplete bool
	notified      bool
	unsubscribe   func()
}

// Start subscribes to the change feed and emits the initial status. Callers
// attach the stream before starting so the opening event is delivered.
//
// The subscription is taken under refreshMu before the opening reconcile, so
// a change that lands during it queues one more refresh instead of being lost.
func (s *WatchSession) Start() types.GenerationStatus {
	s.mu.Lock()
	if s.started {
		last := s.last
		s.mu.Unlock()
		return last
	}
	s.started = true
	s.mu.Unlock()

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	unsub := s.reg.feed.Subscribe(s.ConversationID, func() { s.refresh(s.ctx) })
	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()
	if s.ctx.Err() != nil {
		// closed while starting; stop may have run before unsubscribe was set
		unsub()
	}

	st := s.reg.reconciler.Reconcile(s.ctx, s.ConversationID)
	s.mu.Lock()
	s.last = st
	s.sawIncomplete = !st.Completed()
	s.mu.Unlock()
	s.reg.notifier.WatchOpened(s.ID, s.ConversationID, st)
	return st
}

func (s *WatchSession) Last() types.GenerationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *WatchSession) Notified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notified
}

// ResetNotified re-arms the first-completion signal after an explicit resume.
func (s *WatchSession) ResetNotified() {
	s.mu.Lock()
	s.notified = false
	s.mu.Unlock()
}

// Recheck re-runs reconcile unless one ran within the recheck interval, in
// which case the last status is returned with debounced=true.
func (s *WatchSession) Recheck(ctx context.Context) (types.GenerationStatus, bool) {
	ran := false
	var st types.GenerationStatus
	s.recheck.Do(func() {
		ran = true
		st = s.refresh(ctx)
	})
	if !ran {
		return s.Last(), true
	}
	return st, false
}

func (s *WatchSession) refresh(ctx context.Context) types.GenerationStatus {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if s.ctx.Err() != nil {
		return s.Last()
	}

	st := s.reg.reconciler.Reconcile(ctx, s.ConversationID)

	s.mu.Lock()
	fire := st.Completed() && s.sawIncomplete && !s.notified
	if !st.Completed() {
		s.sawIncomplete = true
	}
	if fire {
		s.notified = true
	}
	s.last = st
	s.mu.Unlock()

	s.reg.notifier.StatusChanged(s.ID, s.ConversationID, st)
	if fire {
		s.fireCompletion(ctx, st)
	}
	return st
}

func (s *WatchSession) fireCompletion(ctx context.Context, st types.GenerationStatus) {
	pkg, err := s.reg.completion.HandleFirstCompletion(ctx, s.ConversationID)
	if err != nil {
		s.reg.log.Error("First-completion handling failed; will retry on next refresh",
			"watch_id", s.ID,
			"conversation_id", s.ConversationID,
			"error", err,
		)
		s.ResetNotified()
		return
	}
	s.reg.notifier.Completed(s.ID, s.ConversationID, st, pkg)
}

func (s *WatchSession) stop() {
	s.cancel()
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// WatchRegistry tracks the watch sessions held by this process.
type WatchRegistry struct {
	log             *logger.Logger
	reconciler      StatusReconciler
	feed            StatusSubscriber
	completion      CompletionHandler
	notifier        WatchNotifier
	metrics         *observability.Metrics
	recheckInterval time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*WatchSession
}

func NewWatchRegistry(
	baseLog *logger.Logger,
	reconciler StatusReconciler,
	feed StatusSubscriber,
	completion CompletionHandler,
	notifier WatchNotifier,
	metrics *observability.Metrics,
	recheckInterval time.Duration,
) *WatchRegistry {
	if recheckInterval <= 0 {
		recheckInterval = defaultRecheckInterval
	}
	return &WatchRegistry{
		log:             baseLog.With("service", "WatchRegistry"),
		reconciler:      reconciler,
		feed:            feed,
		completion:      completion,
		notifier:        notifier,
		metrics:         metrics,
		recheckInterval: recheckInterval,
		sessions:        map[uuid.UUID]*WatchSession{},
	}
}

// Open registers a session that has not started yet.
func (r *WatchRegistry) Open(userID uuid.UUID, conversationID uuid.UUID) *WatchSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &WatchSession{
		ID:             uuid.New(),
		UserID:         userID,
		ConversationID: conversationID,
		reg:            r,
		ctx:            ctx,
		cancel:         cancel,
		recheck:        &rate.Sometimes{Interval: r.recheckInterval},
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.metrics.WatchOpened()
	r.log.Debug("Watch opened", "watch_id", s.ID, "conversation_id", conversationID)
	return s
}

// Get returns the caller's session, or a not-found error for a session that
// is unknown here or owned by someone else.
func (r *WatchRegistry) Get(watchID uuid.UUID, userID uuid.UUID) (*WatchSession, error) {
	r.mu.Lock()
	s := r.sessions[watchID]
	r.mu.Unlock()
	if s == nil || s.UserID != userID {
		return nil, mystery.NewError(mystery.CodeNotFound, "watch.get", "watch not found", nil)
	}
	return s, nil
}

func (r *WatchRegistry) Close(watchID uuid.UUID) {
	r.mu.Lock()
	s := r.sessions[watchID]
	delete(r.sessions, watchID)
	r.mu.Unlock()
	if s == nil {
		return
	}
	s.stop()
	r.metrics.WatchClosed()
	r.log.Debug("Watch closed", "watch_id", watchID, "conversation_id", s.ConversationID)
}

func (r *WatchRegistry) CloseAll() {
	r.mu.Lock()
	ids := make([]uuid.UUID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.Close(id)
	}
}

// Recheck runs a debounced manual refresh for a session on conversationID.
func (r *WatchRegistry) Recheck(ctx context.Context, watchID, userID, conversationID uuid.UUID) (types.GenerationStatus, bool, error) {
	s, err := r.Get(watchID, userID)
	if err != nil {
		return types.GenerationStatus{}, false, err
	}
	if s.ConversationID != conversationID {
		return types.GenerationStatus{}, false, mystery.NewError(mystery.CodeNotFound, "watch.recheck", "watch not found", nil)
	}
	st, debounced := s.Recheck(ctx)
	return st, debounced, nil
}

// ResetNotified re-arms a session after resume. Unknown sessions are ignored.
func (r *WatchRegistry) ResetNotified(watchID, userID uuid.UUID) bool {
	s, err := r.Get(watchID, userID)
	if err != nil {
		return false
	}
	s.ResetNotified()
	return true
}

func (r *WatchRegistry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

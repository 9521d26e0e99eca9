package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/realtime"
)

// WatchNotifier pushes watch-session events to the session's stream.
type WatchNotifier interface {
	WatchOpened(watchID uuid.UUID, conversationID uuid.UUID, st types.GenerationStatus)
	StatusChanged(watchID uuid.UUID, conversationID uuid.UUID, st types.GenerationStatus)
	Completed(watchID uuid.UUID, conversationID uuid.UUID, st types.GenerationStatus, pkg *types.PackageContent)
}

type watchNotifier struct {
	emit SSEEmitter
}

func NewWatchNotifier(emit SSEEmitter) WatchNotifier {
	return &watchNotifier{emit: emit}
}

func (n *watchNotifier) WatchOpened(watchID uuid.UUID, conversationID uuid.UUID, st types.GenerationStatus) {
	if n == nil || n.emit == nil || watchID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.WatchChannel(watchID.String()),
		Event:   realtime.SSEEventWatchOpened,
		Data: map[string]any{
			"watch_id":        watchID,
			"conversation_id": conversationID,
			"status":          st,
		},
	})
}

func (n *watchNotifier) StatusChanged(watchID uuid.UUID, conversationID uuid.UUID, st types.GenerationStatus) {
	if n == nil || n.emit == nil || watchID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.WatchChannel(watchID.String()),
		Event:   realtime.SSEEventGenerationStatus,
		Data: map[string]any{
			"conversation_id": conversationID,
			"status":          st,
		},
	})
}

func (n *watchNotifier) Completed(watchID uuid.UUID, conversationID uuid.UUID, st types.GenerationStatus, pkg *types.PackageContent) {
	if n == nil || n.emit == nil || watchID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.WatchChannel(watchID.String()),
		Event:   realtime.SSEEventGenerationCompleted,
		Data: map[string]any{
			"conversation_id": conversationID,
			"status":          st,
			"package":         pkg,
		},
	})
}

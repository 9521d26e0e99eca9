package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/mysteryparty-backend/internal/http/response"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
	"github.com/yungbote/mysteryparty-backend/internal/realtime"
	"github.com/yungbote/mysteryparty-backend/internal/services"
)

type RealtimeHandler struct {
	Log           *logger.Logger
	Hub           *realtime.SSEHub
	conversations services.ConversationService
	watches       *services.WatchRegistry
}

func NewRealtimeHandler(
	log *logger.Logger,
	hub *realtime.SSEHub,
	conversations services.ConversationService,
	watches *services.WatchRegistry,
) *RealtimeHandler {
	return &RealtimeHandler{
		Log:           log.With("handler", "RealtimeHandler"),
		Hub:           hub,
		conversations: conversations,
		watches:       watches,
	}
}

// GET /api/mysteries/:id/generation/stream
//
// One stream is one watch session. The first event is WatchOpened with the
// watch id the client uses for rechecks and resume.
func (h *RealtimeHandler) GenerationStream(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_mystery_id")
	if !ok {
		return
	}
	if _, err := h.conversations.GetForOwner(requestDB(c), id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	userID := requestUser(c)

	session := h.watches.Open(userID, id)
	client := h.Hub.NewSSEClient(userID)
	client.ID = session.ID
	client.Logger = h.Log.With("watch_id", session.ID)
	h.Hub.AddChannel(client, realtime.WatchChannel(session.ID.String()))
	defer func() {
		h.watches.Close(session.ID)
		h.Hub.CloseClient(client)
		h.Log.Debug("SSE stream closed", "watch_id", session.ID, "conversation_id", id)
	}()

	h.Log.Info("SSE stream open", "user_id", userID, "watch_id", session.ID, "conversation_id", id)
	session.Start()

	h.Hub.ServeHTTP(c.Writer, c.Request, client)
}

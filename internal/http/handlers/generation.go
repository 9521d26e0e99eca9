package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/http/response"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
	"github.com/yungbote/mysteryparty-backend/internal/services"
)

type GenerationHandler struct {
	log           *logger.Logger
	conversations services.ConversationService
	trigger       services.GenerationTrigger
	reconciler    services.StatusReconciler
	watches       *services.WatchRegistry
}

func NewGenerationHandler(
	log *logger.Logger,
	conversations services.ConversationService,
	trigger services.GenerationTrigger,
	reconciler services.StatusReconciler,
	watches *services.WatchRegistry,
) *GenerationHandler {
	return &GenerationHandler{
		log:           log.With("handler", "GenerationHandler"),
		conversations: conversations,
		trigger:       trigger,
		reconciler:    reconciler,
		watches:       watches,
	}
}

type triggerRequest struct {
	TestMode *bool      `json:"test_mode"`
	WatchID  *uuid.UUID `json:"watch_id"`
}

// POST /api/mysteries/:id/generation
func (h *GenerationHandler) Start(c *gin.Context) {
	h.startOrResume(c, false)
}

// POST /api/mysteries/:id/generation/resume
func (h *GenerationHandler) Resume(c *gin.Context) {
	h.startOrResume(c, true)
}

func (h *GenerationHandler) startOrResume(c *gin.Context, resume bool) {
	id, ok := uuidParam(c, "id", "invalid_mystery_id")
	if !ok {
		return
	}
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if _, err := h.conversations.GetForOwner(requestDB(c), id); err != nil {
		response.RespondDomainError(c, err)
		return
	}

	// Re-arm before triggering so a fast completion is not swallowed.
	if req.WatchID != nil {
		if !h.watches.ResetNotified(*req.WatchID, requestUser(c)) {
			h.log.Debug("Resume named an unknown watch", "watch_id", *req.WatchID, "resume", resume)
		}
	}

	res, err := h.trigger.StartOrResume(c.Request.Context(), id, services.TriggerOptions{TestMode: req.TestMode})
	if err != nil {
		status, code := response.StatusFor(err)
		if mystery.IsCode(err, mystery.CodeUpstream) {
			response.RespondErrorWith(c, status, code, err, gin.H{"status": res.Status})
			return
		}
		response.RespondDomainError(c, err)
		return
	}
	response.RespondAccepted(c, res)
}

// GET /api/mysteries/:id/generation/status
func (h *GenerationHandler) Status(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_mystery_id")
	if !ok {
		return
	}
	if _, err := h.conversations.GetForOwner(requestDB(c), id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": h.reconciler.Reconcile(c.Request.Context(), id)})
}

// POST /api/mysteries/:id/generation/watches/:watchId/recheck
func (h *GenerationHandler) Recheck(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_mystery_id")
	if !ok {
		return
	}
	watchID, ok := uuidParam(c, "watchId", "invalid_watch_id")
	if !ok {
		return
	}
	st, debounced, err := h.watches.Recheck(c.Request.Context(), watchID, requestUser(c), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": st, "debounced": debounced})
}

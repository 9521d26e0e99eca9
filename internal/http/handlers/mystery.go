package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mysteryparty-backend/internal/http/response"
	"github.com/yungbote/mysteryparty-backend/internal/services"
)

type MysteryHandler struct {
	conversations services.ConversationService
	reconciler    services.StatusReconciler
	content       services.ContentService
}

func NewMysteryHandler(
	conversations services.ConversationService,
	reconciler services.StatusReconciler,
	content services.ContentService,
) *MysteryHandler {
	return &MysteryHandler{conversations: conversations, reconciler: reconciler, content: content}
}

// POST /api/mysteries
func (h *MysteryHandler) Create(c *gin.Context) {
	var in services.CreateConversationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	conv, err := h.conversations.Create(requestDB(c), in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"mystery": conv})
}

// GET /api/mysteries/:id
func (h *MysteryHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_mystery_id")
	if !ok {
		return
	}
	conv, err := h.conversations.GetForOwner(requestDB(c), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	st := h.reconciler.Reconcile(c.Request.Context(), id)
	response.RespondOK(c, gin.H{"mystery": conv, "status": st})
}

// GET /api/mysteries/:id/package
func (h *MysteryHandler) GetPackage(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_mystery_id")
	if !ok {
		return
	}
	pkg, err := h.content.GetPackageForOwner(requestDB(c), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"package": pkg})
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/mysteryparty-backend/internal/http/response"
	"github.com/yungbote/mysteryparty-backend/internal/services"
)

// DefaultWriterBodyLimit caps writer callback bodies.
const DefaultWriterBodyLimit int64 = 4 << 20

// WriterHandler receives callbacks from the external generation writer.
type WriterHandler struct {
	content   services.ContentService
	bodyLimit int64
}

func NewWriterHandler(content services.ContentService) *WriterHandler {
	return &WriterHandler{content: content, bodyLimit: DefaultWriterBodyLimit}
}

// PUT /internal/packages/:conversationId
func (h *WriterHandler) SavePackage(c *gin.Context) {
	id, ok := uuidParam(c, "conversationId", "invalid_conversation_id")
	if !ok {
		return
	}
	var raw map[string]any
	if err := bindLimitedJSON(c, h.bodyLimit, &raw); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	pkg, err := h.content.SaveFromWriter(c.Request.Context(), id, raw)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"package_id":       pkg.ID,
		"character_count":  len(pkg.Characters),
		"content_complete": pkg.Signals().Complete(),
	})
}

// PUT /internal/generation/:conversationId/status
func (h *WriterHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "conversationId", "invalid_conversation_id")
	if !ok {
		return
	}
	var raw map[string]any
	if err := bindLimitedJSON(c, h.bodyLimit, &raw); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	st, err := h.content.ApplyWriterStatus(c.Request.Context(), id, raw)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": st})
}

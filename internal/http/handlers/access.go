package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/mysteryparty-backend/internal/http/response"
	"github.com/yungbote/mysteryparty-backend/internal/services"
)

// AccessHandler serves the unauthenticated host and character links.
type AccessHandler struct {
	access services.AccessService
}

func NewAccessHandler(access services.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

// GET /api/access/host/:token
func (h *AccessHandler) Host(c *gin.Context) {
	view, err := h.access.HostView(requestDB(c), c.Param("token"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.RespondOK(c, view)
}

// GET /api/access/character/:token
func (h *AccessHandler) Character(c *gin.Context) {
	view, err := h.access.CharacterView(requestDB(c), c.Param("token"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.RespondOK(c, view)
}

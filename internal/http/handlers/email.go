package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/http/response"
	"github.com/yungbote/mysteryparty-backend/internal/services"
)

type EmailHandler struct {
	emails services.EmailService
}

func NewEmailHandler(emails services.EmailService) *EmailHandler {
	return &EmailHandler{emails: emails}
}

// POST /api/mysteries/:id/emails/character
func (h *EmailHandler) SendCharacter(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_mystery_id")
	if !ok {
		return
	}
	var in services.CharacterEmailInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.emails.SendCharacterReady(requestDB(c), id, in)
	if err != nil {
		if mystery.IsCode(err, mystery.CodeUpstream) {
			response.RespondStatus(c, http.StatusBadGateway, gin.H{"result": res})
			return
		}
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

// POST /api/mysteries/:id/emails/host
//
// Partial failure is reported per email with 207 rather than as an error.
func (h *EmailHandler) SendHost(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_mystery_id")
	if !ok {
		return
	}
	var in services.HostEmailInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.emails.SendHostReady(requestDB(c), id, in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusMultiStatus
	}
	response.RespondStatus(c, status, res)
}

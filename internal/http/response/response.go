package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func newAPIError(code string, err error) APIError {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return APIError{Message: msg, Code: code}
}

func RespondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, ErrorEnvelope{Error: newAPIError(code, err)})
}

// RespondErrorWith writes the error envelope plus extra top-level fields, for
// failures that still carry a useful body (the failed status after a trigger
// error, for instance).
func RespondErrorWith(c *gin.Context, status int, code string, err error, extra gin.H) {
	body := gin.H{"error": newAPIError(code, err)}
	for k, v := range extra {
		if k != "error" {
			body[k] = v
		}
	}
	c.JSON(status, body)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondAccepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}

// RespondStatus is for success bodies whose status depends on the outcome,
// such as 207 for partially delivered emails.
func RespondStatus(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

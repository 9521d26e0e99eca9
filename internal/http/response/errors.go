package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/platform/apierr"
)

// StatusFor maps a service error to an HTTP status and error code.
func StatusFor(err error) (int, string) {
	if ae, ok := apierr.As(err); ok {
		code := ae.Code
		if code == "" {
			code = http.StatusText(ae.Status)
		}
		return ae.Status, code
	}
	switch mystery.CodeOf(err) {
	case mystery.CodeValidation:
		return http.StatusBadRequest, string(mystery.CodeValidation)
	case mystery.CodeForbidden:
		return http.StatusForbidden, string(mystery.CodeForbidden)
	case mystery.CodeNotFound:
		return http.StatusNotFound, string(mystery.CodeNotFound)
	case mystery.CodeConflict:
		return http.StatusConflict, string(mystery.CodeConflict)
	case mystery.CodeUpstream:
		return http.StatusBadGateway, string(mystery.CodeUpstream)
	}
	switch {
	case errors.Is(err, mystery.ErrInvalidArgument):
		return http.StatusBadRequest, string(mystery.CodeValidation)
	case errors.Is(err, mystery.ErrForbidden):
		return http.StatusForbidden, string(mystery.CodeForbidden)
	case errors.Is(err, mystery.ErrNotFound):
		return http.StatusNotFound, string(mystery.CodeNotFound)
	case errors.Is(err, mystery.ErrConflict):
		return http.StatusConflict, string(mystery.CodeConflict)
	}
	return http.StatusInternalServerError, string(mystery.CodeInternal)
}

// RespondDomainError writes the envelope for err. Internal errors are not
// echoed to the client.
func RespondDomainError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		err = errors.New("internal error")
	}
	RespondError(c, status, code, err)
}

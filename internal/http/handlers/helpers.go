package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/mysteryparty-backend/internal/http/response"
	"github.com/yungbote/mysteryparty-backend/internal/platform/apierr"
	"github.com/yungbote/mysteryparty-backend/internal/platform/ctxutil"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
)

// uuidParam parses a path parameter, writing a 400 when it is malformed.
func uuidParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		if err == nil {
			err = errNilID
		}
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

func requestDB(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

func requestUser(c *gin.Context) uuid.UUID {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		return rd.UserID
	}
	return uuid.Nil
}

// bindLimitedJSON decodes at most limit bytes of JSON body into dst.
func bindLimitedJSON(c *gin.Context, limit int64, dst any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierr.PayloadTooLarge(limit)
		}
		return apierr.BadRequest(err)
	}
	return nil
}

var errNilID = errors.New("id must not be the nil uuid")

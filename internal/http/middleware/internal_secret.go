package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const headerInternalSecret = "X-Internal-Secret"

// InternalSecret guards the writer callback routes. An empty secret closes
// them entirely.
func InternalSecret(secret string) gin.HandlerFunc {
	want := []byte(strings.TrimSpace(secret))
	return func(c *gin.Context) {
		got := []byte(strings.TrimSpace(c.GetHeader(headerInternalSecret)))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "invalid internal secret", "code": "unauthorized"},
			})
			return
		}
		c.Next()
	}
}

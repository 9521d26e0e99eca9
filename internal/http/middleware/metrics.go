package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mysteryparty-backend/internal/observability"
)

// Metrics records request counts and latency by route template. Scrapes of
// /metrics itself and long-lived SSE streams are counted but not timed.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		c.Next()
		m.ApiInflightDec()

		status := strconv.Itoa(c.Writer.Status())
		if isStream(c) {
			m.CountAPI(c.Request.Method, routeLabel(c), status)
			return
		}
		m.ObserveAPI(c.Request.Method, routeLabel(c), status, time.Since(start))
	}
}

// routeLabel is the matched route template, so path tokens never become labels.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

func isStream(c *gin.Context) bool {
	return c.Writer.Header().Get("Content-Type") == "text/event-stream"
}

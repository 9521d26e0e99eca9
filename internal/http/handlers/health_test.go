package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestReadyReportsFailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		checks   []ReadinessCheck
		wantCode int
		wantBody string
	}{
		{name: "no_checks", wantCode: http.StatusOK, wantBody: "ready"},
		{
			name: "all_up",
			checks: []ReadinessCheck{
				{Name: "database", Ping: func(context.Context) error { return nil }},
				{Name: "redis", Ping: func(context.Context) error { return nil }},
			},
			wantCode: http.StatusOK,
			wantBody: "ready",
		},
		{
			name: "redis_down",
			checks: []ReadinessCheck{
				{Name: "database", Ping: func(context.Context) error { return nil }},
				{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
			},
			wantCode: http.StatusServiceUnavailable,
			wantBody: "redis: connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewHealthHandler(tt.checks...)
			r.GET("/readyz", h.Ready)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

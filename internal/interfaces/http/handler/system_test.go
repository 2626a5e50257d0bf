package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemRouter(h *SystemHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/system/info", h.GetSystemInfo)
	return router
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("database up", func(t *testing.T) {
		h := NewSystemHandler("dealer-portal", "1.0.0", PingFunc(func(context.Context) error { return nil }), nil)
		w := httptest.NewRecorder()
		systemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"status":"ok","database":"up"}}`, w.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		h := NewSystemHandler("dealer-portal", "1.0.0", PingFunc(func(context.Context) error { return errors.New("refused") }), nil)
		w := httptest.NewRecorder()
		systemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"success":false,"data":{"status":"degraded","database":"down"}}`, w.Body.String())
	})

	t.Run("no database configured", func(t *testing.T) {
		w := httptest.NewRecorder()
		systemRouter(NewSystemHandler("dealer-portal", "1.0.0", nil, nil)).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("dealer-portal", "1.2.3", nil, func() int { return 4 })
	w := httptest.NewRecorder()
	systemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system/info", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data SystemInfoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "dealer-portal", body.Data.Name)
	assert.Equal(t, "1.2.3", body.Data.Version)
	assert.Equal(t, 4, body.Data.OpenSessions)
	assert.NotEmpty(t, body.Data.GoVersion)
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSystemRouter(checks map[string]Pinger) *gin.Engine {
	h := NewSystemHandler("rentflow-backend", "1.2.0", checks)
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	return router
}

func TestSystemHandler_Health(t *testing.T) {
	w := perform(newSystemRouter(nil), http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, w)
	assert.Equal(t, "rentflow-backend", data["name"])
	assert.Equal(t, "1.2.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ready(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	w := perform(newSystemRouter(map[string]Pinger{"database": ok}), http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", dataMap(t, w)["status"])

	w = perform(newSystemRouter(map[string]Pinger{"database": ok, "redis": down}), http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	data := dataMap(t, w)
	assert.Equal(t, "not_ready", data["status"])
	checks := data["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "connection refused", checks["redis"])
}

func TestSystemHandler_ReadyPassesDeadline(t *testing.T) {
	var hasDeadline bool
	check := func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}

	perform(newSystemRouter(map[string]Pinger{"database": check}), http.MethodGet, "/ready", nil)

	assert.True(t, hasDeadline)
}

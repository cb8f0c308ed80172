package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelRouter records the pprof labels seen by the handler
func labelRouter(cfg ProfilingConfig, path string) (*gin.Engine, *map[string]string) {
	gin.SetMode(gin.TestMode)
	seen := map[string]string{}
	r := gin.New()
	r.Use(Profiling(cfg))
	r.POST(path, func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(k, v string) bool {
			seen[k] = v
			return true
		})
		c.Status(http.StatusNoContent)
	})
	return r, &seen
}

func TestProfiling_LabelsWebhookRoute(t *testing.T) {
	r, seen := labelRouter(DefaultProfilingConfig(), "/api/v1/webhooks/:rail")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mobile-money", nil))

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, map[string]string{
		telemetry.ProfilingLabelMethod:   "POST",
		telemetry.ProfilingLabelRoute:    "/api/v1/webhooks/:rail",
		telemetry.ProfilingLabelResource: "webhooks",
		telemetry.ProfilingLabelRail:     "MOBILE_MONEY",
	}, *seen)
}

func TestProfiling_UnknownRailIsNotLabelled(t *testing.T) {
	r, seen := labelRouter(DefaultProfilingConfig(), "/api/v1/webhooks/:rail")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/carrier-pigeon", nil))

	require.Equal(t, http.StatusNoContent, w.Code)
	_, ok := (*seen)[telemetry.ProfilingLabelRail]
	assert.False(t, ok)
	assert.Equal(t, "webhooks", (*seen)[telemetry.ProfilingLabelResource])
}

func TestProfiling_DisabledAndSkippedPassThrough(t *testing.T) {
	r, seen := labelRouter(ProfilingConfig{}, "/api/v1/obligations/:id/payments")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/obligations/42/payments", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, *seen)

	r, seen = labelRouter(DefaultProfilingConfig(), "/health")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, *seen)
}

func TestResourceOf(t *testing.T) {
	tests := map[string]string{
		"/api/v1/obligations/:id/payments":              "obligations",
		"/api/v2/reconciliation/exceptions/:id/resolve": "reconciliation",
		"/receipts/*key":                                "receipts",
		"/health":                                       "health",
		"":                                              "",
	}
	for route, want := range tests {
		assert.Equal(t, want, resourceOf(route), route)
	}
}

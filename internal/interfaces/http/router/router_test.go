package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	NewRouter(engine, WithAPIVersion("v2")).
		Register(NewResource("/test").GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})).
		Setup()

	w := serve(engine, http.MethodGet, "/api/v2/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/test/ping").Code)
}

func TestResource(t *testing.T) {
	t.Run("prefix", func(t *testing.T) {
		assert.Equal(t, "/obligations", NewResource("/obligations").Prefix())
	})

	t.Run("registers GET and POST", func(t *testing.T) {
		engine := gin.New()
		NewResource("/test").
			GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "list") }).
			POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "create") }).
			RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "list", serve(engine, http.MethodGet, "/api/v1/test/items").Body.String())
		assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/v1/test/items").Code)
	})

	t.Run("middleware runs before route handlers", func(t *testing.T) {
		engine := gin.New()
		deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }
		reached := false
		NewResource("/reconciliation", deny).
			GET("/exceptions", func(c *gin.Context) { reached = true }).
			RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/reconciliation/exceptions")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, reached)
	})
}

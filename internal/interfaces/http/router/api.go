package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentflow/backend/internal/infrastructure/auth"
	"github.com/rentflow/backend/internal/infrastructure/logger"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"github.com/rentflow/backend/internal/interfaces/http/handler"
	"github.com/rentflow/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes bounds request bodies outside the webhook ingress
const DefaultMaxBodyBytes int64 = 1 << 20

// Handlers are the endpoint groups served by the API. Receipts is optional
// and only set when receipts are kept in memory.
type Handlers struct {
	System         *handler.SystemHandler
	Obligations    *handler.ObligationHandler
	SplitPlans     *handler.SplitPlanHandler
	Webhooks       *handler.WebhookHandler
	Reconciliation *handler.ReconciliationHandler
	Dashboard      *handler.DashboardHandler
	Receipts       *handler.ReceiptDownloadHandler
}

// Config holds the cross-cutting settings of the engine
type Config struct {
	Logger         *zap.Logger
	ServiceName    string
	TracingEnabled bool
	// ProfilingEnabled labels request CPU samples by route and rail
	ProfilingEnabled bool
	MeterProvider    *telemetry.MeterProvider
	CORS             middleware.CORSConfig
	Security         middleware.SecurityConfig
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	Tokens           middleware.TokenValidator
	// PaymentLimiter throttles payment initiation per client IP. Nil disables it.
	PaymentLimiter *middleware.RateLimiter
	// Docs serves the Swagger UI under /swagger. Nil leaves it unmounted.
	Docs gin.HandlerFunc
}

// New builds the gin engine with the middleware chain and every route
func New(cfg Config, h Handlers) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.TracingEnabled}),
		middleware.SpanEnricher(),
		middleware.Profiling(middleware.ProfilingConfig{Enabled: cfg.ProfilingEnabled, SkipPaths: middleware.DefaultProfilingConfig().SkipPaths}),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{MeterProvider: cfg.MeterProvider, Enabled: cfg.MeterProvider != nil}),
		middleware.CORS(cfg.CORS),
		middleware.Secure(cfg.Security),
	)
	if cfg.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)
	if h.Receipts != nil {
		engine.GET("/receipts/*key", h.Receipts.Download)
	}
	if cfg.Docs != nil {
		engine.GET("/swagger/*any", cfg.Docs)
	}

	authn := middleware.JWTAuth(middleware.JWTMiddlewareConfig{Validator: cfg.Tokens, Logger: cfg.Logger})
	admin := middleware.RequireRole(auth.RoleAdmin)
	limited := []gin.HandlerFunc{}
	if cfg.PaymentLimiter != nil {
		limited = append(limited, middleware.RateLimit(cfg.PaymentLimiter))
	}
	bodyLimit := middleware.BodyLimit(cfg.MaxBodyBytes)

	NewRouter(engine).Register(
		webhookRoutes(h.Webhooks),
		obligationRoutes(h.Obligations, authn, admin, bodyLimit, limited),
		contractRoutes(h.Obligations, h.SplitPlans, authn, bodyLimit),
		splitPlanRoutes(h.SplitPlans, authn, bodyLimit),
		reconciliationRoutes(h.Reconciliation, authn, admin, bodyLimit),
		dashboardRoutes(h.Dashboard, authn),
	).Setup()

	return engine
}

// webhookRoutes are authenticated by body signature; the handler caps the body
func webhookRoutes(h *handler.WebhookHandler) *Resource {
	return NewResource("/webhooks").
		POST("/:rail", h.Receive)
}

func obligationRoutes(h *handler.ObligationHandler, authn, admin, bodyLimit gin.HandlerFunc, limited []gin.HandlerFunc) *Resource {
	g := NewResource("/obligations", authn, bodyLimit)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/receipt", h.Receipt)
	g.POST("/:id/payments", append(limited, h.Initiate)...)
	g.POST("/:id/cancel", admin, h.Cancel)
	g.POST("/:id/refund", admin, h.Refund)
	return g
}

func contractRoutes(obligations *handler.ObligationHandler, plans *handler.SplitPlanHandler, authn, bodyLimit gin.HandlerFunc) *Resource {
	return NewResource("/contracts", authn, bodyLimit).
		POST("/:id/installments", obligations.ScheduleInstallments).
		GET("/:id/split-plans", plans.ListByContract)
}

func splitPlanRoutes(h *handler.SplitPlanHandler, authn, bodyLimit gin.HandlerFunc) *Resource {
	return NewResource("/split-plans", authn, bodyLimit).
		POST("", h.Create).
		GET("/:id", h.Get).
		POST("/:id/cancel", h.Cancel)
}

func reconciliationRoutes(h *handler.ReconciliationHandler, authn, admin, bodyLimit gin.HandlerFunc) *Resource {
	return NewResource("/reconciliation", authn, admin, bodyLimit).
		GET("/exceptions", h.ListExceptions).
		POST("/exceptions/:id/resolve", h.ResolveException)
}

func dashboardRoutes(h *handler.DashboardHandler, authn gin.HandlerFunc) *Resource {
	return NewResource("/dashboard", authn).
		GET("/summary", h.Summary).
		GET("/properties", h.Properties).
		GET("/monthly", h.Monthly)
}

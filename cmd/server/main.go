package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	dashboardapp "github.com/rentflow/backend/internal/application/dashboard"
	notificationapp "github.com/rentflow/backend/internal/application/notification"
	obligationapp "github.com/rentflow/backend/internal/application/obligation"
	paymentapp "github.com/rentflow/backend/internal/application/payment"
	splitplanapp "github.com/rentflow/backend/internal/application/splitplan"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/auth"
	"github.com/rentflow/backend/internal/infrastructure/cache"
	"github.com/rentflow/backend/internal/infrastructure/config"
	"github.com/rentflow/backend/internal/infrastructure/event"
	"github.com/rentflow/backend/internal/infrastructure/logger"
	"github.com/rentflow/backend/internal/infrastructure/migration"
	"github.com/rentflow/backend/internal/infrastructure/notifier"
	paymentinfra "github.com/rentflow/backend/internal/infrastructure/payment"
	"github.com/rentflow/backend/internal/infrastructure/persistence"
	"github.com/rentflow/backend/internal/infrastructure/scheduler"
	"github.com/rentflow/backend/internal/infrastructure/storage"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"github.com/rentflow/backend/internal/interfaces/http/handler"
	"github.com/rentflow/backend/internal/interfaces/http/middleware"
	"github.com/rentflow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/rentflow/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Rentflow Payment API
//	@version		1.0
//	@description	Payment obligations, split plans and gateway reconciliation for rental contracts.

//	@contact.name	API Support
//	@contact.url	https://github.com/rentflow/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration; the viper instance is kept for fee policy hot reload
	cfg, v, err := config.LoadWithViper()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	logCfg := &logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		ServiceName: cfg.Telemetry.ServiceName,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// OTLP log export needs a logger of its own before the final one exists
	logsProvider, err := telemetry.NewLoggerProvider(rootCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	var logOpts []logger.Option
	if p := logsProvider.Provider(); p != nil {
		logOpts = append(logOpts, logger.WithOTelProvider(p))
	}
	log, err := logger.New(logCfg, logOpts...)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		logger.Sync(log)
	}()

	log.Info("Starting payment engine",
		zap.String("app", cfg.App.Name),
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		BasicAuthUser:     cfg.Telemetry.ProfilingBasicAuthUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingBasicAuthPassword,
		ProfileTypes:      cfg.Telemetry.ProfilingTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	// span profiles need the profiler running first
	if profiler.IsEnabled() && cfg.Telemetry.ProfilingSpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}
	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := migrateSchema(cfg.Database.DSN(), log); err != nil {
			log.Fatal("Schema migration failed", zap.Error(err))
		}
	}

	// Database, with zap-backed GORM logging plus query tracing and metrics
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)
		if err := plugin.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	dbMetricsCfg.Enabled = cfg.Telemetry.MetricsEnabled
	dbMetricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsCfg, log)
	if err != nil {
		log.Warn("Database metrics unavailable", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(rootCtx)
		defer dbMetrics.Stop()
	}

	// Repositories
	obligationRepo := persistence.NewGormObligationRepository(db.DB)
	planRepo := persistence.NewGormSplitPlanRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	exceptionRepo := persistence.NewGormExceptionRepository(db.DB)
	dashboardRepo := persistence.NewGormDashboardRepository(db.DB)
	contractReader := persistence.NewGormContractReader(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Business metrics; a nil interface keeps the services on their no-op recorder
	var metrics paymentapp.Metrics
	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:             meterProvider.Meter("rentflow.payments"),
		Logger:            log,
		ExceptionProvider: exceptionRepo,
	})
	if err != nil {
		log.Warn("Business metrics unavailable", zap.Error(err))
	} else {
		metrics = businessMetrics
		if meterProvider.IsEnabled() {
			businessMetrics.StartPeriodicCollection(rootCtx, cfg.Telemetry.MetricsInterval)
		}
		defer businessMetrics.Stop()
	}

	// Idempotency store; the Redis client behind it also feeds the stream notifier
	store, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(rootCtx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	if store.Client != nil {
		defer func() {
			if err := store.Client.Close(); err != nil {
				log.Warn("Error closing Redis client", zap.Error(err))
			}
		}()
	}

	formatter := notifier.NewFormatter(cfg.Notification.Locale)
	var sink notificationapp.Notifier
	switch cfg.Notification.Sink {
	case "redis":
		if store.Client == nil {
			log.Fatal("notification.sink=redis requires a reachable Redis")
		}
		sink = notifier.NewRedisStreamNotifier(store.Client, cfg.Notification.Stream, cfg.Notification.MaxLen, formatter, log)
	default:
		sink = notifier.NewLogNotifier(log, formatter)
	}

	// Receipts go to object storage when configured; otherwise they are kept
	// in memory and served by the API itself
	var (
		receipts         notificationapp.ReceiptStore
		receiptDownloads *handler.ReceiptDownloadHandler
	)
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3ReceiptStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize receipt storage", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(rootCtx); err != nil {
			log.Fatal("Receipt bucket unavailable", zap.String("bucket", s3Store.Bucket()), zap.Error(err))
		}
		receipts = s3Store
	} else {
		memStore := storage.NewMemoryReceiptStore("http://localhost:" + cfg.App.Port + "/receipts")
		receipts = memStore
		receiptDownloads = handler.NewReceiptDownloadHandler(memStore)
		log.Warn("Object storage disabled, receipts are kept in memory")
	}

	// Event bus. Subscribers are keyed on obligation and status so a
	// redelivered transition is notified once.
	var busOpts []event.BusOption
	if cfg.Notification.AsyncBus {
		busOpts = append(busOpts, event.WithAsync(cfg.Notification.QueueSize))
	}
	bus := event.NewInMemoryEventBus(log, busOpts...)
	idempotency := shared.IdempotencyConfig{Enabled: true, TTL: cfg.Notification.DedupTTL}
	bus.Subscribe(event.NewIdempotentHandler(
		notificationapp.NewHandler(sink, log), store, log,
		event.WithIdempotencyConfig(idempotency), event.WithKeyPrefix("notify"),
	))
	bus.Subscribe(event.NewIdempotentHandler(
		notificationapp.NewReceiptHandler(receipts, log), store, log,
		event.WithIdempotencyConfig(idempotency), event.WithKeyPrefix("receipt"),
	))
	if err := bus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Fee policy, swapped in place when the config file changes
	feePolicy, err := feePolicyFrom(cfg.Reconciliation)
	if err != nil {
		log.Fatal("Invalid fee policy", zap.Error(err))
	}
	policy := paymentapp.NewPolicyStore(feePolicy)
	config.WatchReconciliation(v, log, func(rc config.ReconciliationConfig) {
		p, err := feePolicyFrom(rc)
		if err == nil {
			err = policy.Store(p)
		}
		if err != nil {
			log.Warn("Fee policy not applied", zap.Error(err))
		}
	})

	gateways, err := paymentinfra.NewRegistryFromConfig(cfg.Gateways, log)
	if err != nil {
		log.Fatal("Failed to initialize payment gateways", zap.Error(err))
	}

	// Application services
	reconciler := paymentapp.NewReconciler(paymentapp.ReconcilerConfig{
		UnitOfWork:         uow,
		Obligations:        obligationRepo,
		Plans:              planRepo,
		Transactions:       transactionRepo,
		Exceptions:         exceptionRepo,
		Gateways:           gateways,
		Publisher:          bus,
		Policy:             policy,
		Metrics:            metrics,
		Logger:             log,
		GatewayTimeout:     cfg.Reconciliation.GatewayTimeout,
		MaxDepositAttempts: cfg.Reconciliation.MaxDepositAttempts,
		ConflictRetries:    cfg.Reconciliation.ConflictRetries,
		RetryInterval:      cfg.Reconciliation.RetryInterval,
	})
	sweeper := paymentapp.NewSweeper(paymentapp.SweeperConfig{
		UnitOfWork:         uow,
		Obligations:        obligationRepo,
		Plans:              planRepo,
		Transactions:       transactionRepo,
		Publisher:          bus,
		Policy:             policy,
		Metrics:            metrics,
		Logger:             log,
		BatchSize:          cfg.Scheduler.BatchSize,
		TransactionExpiry:  cfg.Reconciliation.TransactionExpiry,
		MaxDepositAttempts: cfg.Reconciliation.MaxDepositAttempts,
	})
	obligationService := obligationapp.NewService(obligationapp.ServiceConfig{
		UnitOfWork:  uow,
		Obligations: obligationRepo,
		Plans:       planRepo,
		Contracts:   contractReader,
		Publisher:   bus,
		Logger:      log,
	})
	splitPlanService := splitplanapp.NewService(splitplanapp.ServiceConfig{
		Plans:            planRepo,
		Contracts:        contractReader,
		Publisher:        bus,
		Logger:           log,
		DepositDueWindow: cfg.SplitPlan.DepositDueWindow,
		BalanceDueOffset: cfg.SplitPlan.BalanceDueOffset,
	})
	exceptionService := paymentapp.NewExceptionService(uow, exceptionRepo, transactionRepo, log)
	dashboardService := dashboardapp.NewService(dashboardRepo, cfg.Reconciliation.DefaultCurrency, log)
	receiptService := notificationapp.NewReceiptService(obligationRepo, receipts, cfg.Storage.PresignExpiration)

	// Background jobs
	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.NewScheduler(scheduler.SchedulerConfig{
			Enabled:      true,
			InitialDelay: cfg.Scheduler.InitialDelay,
			JobTimeout:   cfg.Scheduler.JobTimeout,
		}, log)
		if err := scheduler.RegisterPaymentJobs(jobs, sweeper, cfg.Scheduler.SweepInterval, cfg.Scheduler.ExpiryInterval, log); err != nil {
			log.Fatal("Failed to register payment jobs", zap.Error(err))
		}
		if err := jobs.Start(rootCtx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	jwtService, err := auth.NewJWTService(cfg.JWT)
	if err != nil {
		log.Fatal("Failed to initialize token validation", zap.Error(err))
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		defer limiter.Stop()
	}

	// HTTP handlers
	webhookHandler := handler.NewWebhookHandler(reconciler, paymentinfra.NewHMACVerifierFromConfig(cfg.Gateways), paymentinfra.SignatureHeader)
	webhookHandler.SetMaxBytes(cfg.HTTP.MaxWebhookBytes)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.Pinger{
		"database": db.Ping,
	})

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSOrigins
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.App.Env == "production"

	engine := router.New(router.Config{
		Logger:           log,
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   tracerProvider.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
		MeterProvider:    meterProvider,
		CORS:             cors,
		Security:         security,
		RequestTimeout:   cfg.HTTP.RequestTimeout,
		MaxBodyBytes:     cfg.HTTP.MaxBodySize,
		Tokens:           jwtService,
		PaymentLimiter:   limiter,
		Docs:             ginSwagger.WrapHandler(swaggerFiles.Handler),
	}, router.Handlers{
		System:         systemHandler,
		Obligations:    handler.NewObligationHandler(obligationService, reconciler, receiptService),
		SplitPlans:     handler.NewSplitPlanHandler(splitPlanService),
		Webhooks:       webhookHandler,
		Reconciliation: handler.NewReconciliationHandler(exceptionService),
		Dashboard:      handler.NewDashboardHandler(dashboardService),
		Receipts:       receiptDownloads,
	})

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// Jobs stop before the bus so their last events are still delivered
	if jobs != nil {
		if err := jobs.Stop(ctx); err != nil {
			log.Warn("Scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := bus.Stop(ctx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	stop()

	shutdownTelemetry(ctx, log, profiler, tracerProvider, meterProvider, logsProvider)
	log.Info("Server exited gracefully")
}

// migrateSchema applies the embedded migrations over a connection of its own
func migrateSchema(dsn string, log *zap.Logger) error {
	m, err := migration.NewEmbedded(dsn, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownTelemetry flushes the exporters. The log provider goes last so the
// messages above are exported too.
func shutdownTelemetry(ctx context.Context, log *zap.Logger, providers ...shutdowner) {
	for _, p := range providers {
		if err := p.Shutdown(ctx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appsync "github.com/channelsync/backend/internal/application/sync"
	"github.com/channelsync/backend/internal/infrastructure/auth"
	"github.com/channelsync/backend/internal/infrastructure/cache"
	"github.com/channelsync/backend/internal/infrastructure/channels"
	"github.com/channelsync/backend/internal/infrastructure/config"
	"github.com/channelsync/backend/internal/infrastructure/httpclient"
	"github.com/channelsync/backend/internal/infrastructure/logger"
	"github.com/channelsync/backend/internal/infrastructure/persistence"
	"github.com/channelsync/backend/internal/infrastructure/secrets"
	"github.com/channelsync/backend/internal/infrastructure/signing"
	"github.com/channelsync/backend/internal/infrastructure/telemetry"
	"github.com/channelsync/backend/internal/interfaces/http/handler"
	"github.com/channelsync/backend/internal/interfaces/http/middleware"
	"github.com/channelsync/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Channel Sync API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry (no-op providers when disabled)
	ctx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.OTLPEndpoint,
		SamplingRatio:     cfg.Telemetry.SampleRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.App.Env != "production",
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.App.Env != "production",
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("channelsync"))
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled {
		if err := db.EnableTracing(); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Shared token cache for adapter access tokens, Redis when available
	cacheFactory := cache.NewTokenCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	tokenCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create token cache", zap.Error(err))
	}

	// Outbound HTTP client with the shared retry policy
	httpClient := httpclient.New(httpclient.Options{
		Retries:        cfg.Worker.HTTPRetries,
		Backoff:        cfg.Worker.HTTPBackoff,
		AttemptTimeout: cfg.Worker.HTTPAttemptTimeout,
	}, httpclient.WithLogger(log))

	// Channel adapter registry and credential cipher
	registry := channels.NewRegistry(httpClient, tokenCache)
	cipher, err := secrets.NewCipher(cfg.Security.EncryptionSecret)
	if err != nil {
		log.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	// Initialize repositories
	connectionRepo := persistence.NewGormConnectionRepository(db.DB)
	jobRepo := persistence.NewGormJobRepository(db.DB)
	runLogRepo := persistence.NewGormRunLogRepository(db.DB)
	orderRepo := persistence.NewGormOrderRecordRepository(db.DB)
	productRepo := persistence.NewGormProductMappingRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)

	// Initialize application services
	connectionService := appsync.NewConnectionService(connectionRepo, registry, cipher, log)
	jobService := appsync.NewJobService(jobRepo, runLogRepo, orderRepo, productRepo, connectionRepo, log)
	worker := appsync.NewWorker(
		jobRepo, runLogRepo, orderRepo, productRepo, syncLogRepo,
		connectionRepo, registry, cipher, log,
	).WithMetrics(syncMetrics)

	jwtService := auth.NewJWTService(cfg.JWT)

	schedulerAuthorizer := &signing.SchedulerAuthorizer{
		Token:      cfg.Security.SchedulerToken,
		AllowedIPs: cfg.Security.SchedulerAllowedIPs,
		HMACSecret: cfg.Security.SchedulerHMACSecret,
	}
	if schedulerAuthorizer.Enabled() {
		log.Info("Scheduler auth enabled",
			zap.Bool("token_check", cfg.Security.SchedulerToken != ""),
			zap.Int("allowed_ips", len(cfg.Security.SchedulerAllowedIPs)),
			zap.Bool("body_hmac", cfg.Security.SchedulerHMACSecret != ""),
		)
	} else {
		log.Warn("Scheduler auth disabled; worker trigger endpoint is open")
	}

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Connection: handler.NewConnectionHandler(connectionService),
		Sync:       handler.NewSyncHandler(jobService, worker),
		Webhook:    handler.NewWebhookHandler(cfg.Security.ShopifyWebhookSecret, connectionService, jobService, log),
		System:     handler.NewSystemHandler(db),
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, in order: request ID, panic recovery, request
	// logging, tracing, security headers, CORS, body limit.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanEnrichment())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", handlers.System.Health)

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/v1/system/info",
		},
		SkipPathPrefixes: []string{
			"/api/v1/webhooks",
			"/api/v1/sync/worker",
		},
		Logger: log,
	}))

	schedulerAuth := middleware.SchedulerAuth(schedulerAuthorizer, log)
	for _, group := range router.BuildRoutes(handlers, schedulerAuth) {
		r.Register(group)
	}
	r.Setup()

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

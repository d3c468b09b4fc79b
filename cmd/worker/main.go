package main

import (
	"context"
	"flag"
	"os"
	"time"

	appsync "github.com/channelsync/backend/internal/application/sync"
	"github.com/channelsync/backend/internal/infrastructure/cache"
	"github.com/channelsync/backend/internal/infrastructure/channels"
	"github.com/channelsync/backend/internal/infrastructure/config"
	"github.com/channelsync/backend/internal/infrastructure/httpclient"
	"github.com/channelsync/backend/internal/infrastructure/logger"
	"github.com/channelsync/backend/internal/infrastructure/persistence"
	"github.com/channelsync/backend/internal/infrastructure/secrets"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// main runs a single worker batch and exits. Intended for cron or a
// container scheduler; the HTTP trigger endpoint covers hosted schedulers.
func main() {
	var (
		limit    int
		sellerID string
		timeout  time.Duration
	)
	flag.IntVar(&limit, "limit", 0, "Max jobs to claim this run (default: worker.batch_limit)")
	flag.StringVar(&sellerID, "seller", "", "Restrict the run to one seller's jobs (UUID)")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Overall deadline for the batch")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	opts := appsync.ProcessOptions{Limit: limit}
	if limit <= 0 {
		opts.Limit = cfg.Worker.BatchLimit
	}
	if sellerID != "" {
		id, err := uuid.Parse(sellerID)
		if err != nil {
			log.Fatal("Invalid seller ID", zap.String("seller", sellerID))
		}
		opts.SellerID = &id
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	cacheFactory := cache.NewTokenCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	tokenCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create token cache", zap.Error(err))
	}

	httpClient := httpclient.New(httpclient.Options{
		Retries:        cfg.Worker.HTTPRetries,
		Backoff:        cfg.Worker.HTTPBackoff,
		AttemptTimeout: cfg.Worker.HTTPAttemptTimeout,
	}, httpclient.WithLogger(log))

	registry := channels.NewRegistry(httpClient, tokenCache)
	cipher, err := secrets.NewCipher(cfg.Security.EncryptionSecret)
	if err != nil {
		log.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	worker := appsync.NewWorker(
		persistence.NewGormJobRepository(db.DB),
		persistence.NewGormRunLogRepository(db.DB),
		persistence.NewGormOrderRecordRepository(db.DB),
		persistence.NewGormProductMappingRepository(db.DB),
		persistence.NewGormSyncLogRepository(db.DB),
		persistence.NewGormConnectionRepository(db.DB),
		registry, cipher, log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := worker.ProcessPendingJobs(ctx, opts)
	if err != nil {
		log.Error("Worker batch failed", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Worker batch finished",
		zap.Int("processed", result.Processed),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	if result.Failed > 0 {
		os.Exit(2)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/config"
	"github.com/pwabucket/pwa-ai-earn/internal/handler"
	"github.com/pwabucket/pwa-ai-earn/internal/observability"
	"github.com/pwabucket/pwa-ai-earn/internal/portfolio"
	"github.com/pwabucket/pwa-ai-earn/internal/resilience"
	"github.com/pwabucket/pwa-ai-earn/internal/services"
	"github.com/pwabucket/pwa-ai-earn/internal/tracker"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("info").Fatal("failed to load config", zap.Error(err))
	}

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "pwa-ai-earn", cfg.Version)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracer", zap.Error(err))
		}
	}()

	metrics := observability.NewMetrics()

	var database handler.DatabaseClient
	switch cfg.StoreProvider {
	case "sqlite":
		store, err := services.NewSQLiteStore(ctx, cfg.SQLitePath, logger)
		if err != nil {
			logger.Fatal("failed to open SQLite store", zap.Error(err))
		}
		defer store.Close()
		database = store
	default:
		store, err := services.NewDatabaseService(ctx, cfg.TableServiceURL, cfg.AccountsTable, cfg.TransactionsTable, logger)
		if err != nil {
			logger.Fatal("failed to init DatabaseService", zap.Error(err))
		}
		database = store
	}

	var blob handler.BlobClient
	switch cfg.BackupProvider {
	case "gcs":
		gcs, err := services.NewGCSService(ctx, cfg.GCSBucket, logger)
		if err != nil {
			logger.Fatal("failed to init GCSService", zap.Error(err))
		}
		defer gcs.Close()
		blob = gcs
	case "local":
		files, err := services.NewLocalFileStore(cfg.BackupDir, logger)
		if err != nil {
			logger.Fatal("failed to init local file store", zap.Error(err))
		}
		blob = files
	default:
		blobService, err := services.NewBlobService(cfg.BlobServiceURL, logger)
		if err != nil {
			logger.Fatal("failed to init BlobService", zap.Error(err))
		}
		blob = blobService
	}

	// Without a queue, jobs run inline on the request.
	var queue handler.QueueClient
	if cfg.QueueServiceURL != "" {
		queueService, err := services.NewQueueService(cfg.QueueServiceURL, logger)
		if err != nil {
			logger.Fatal("failed to init QueueService", zap.Error(err))
		}
		queue = queueService
	}

	var email handler.EmailClient
	if cfg.CommunicationEndpoint != "" {
		emailService, err := services.NewEmailService(cfg.CommunicationEndpoint, cfg.SenderEmail, nil, logger)
		if err != nil {
			logger.Warn("failed to init EmailService (continuing anyway)", zap.Error(err))
		} else {
			email = emailService
		}
	}

	rc := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	source := tracker.NewSource(tracker.Options{
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Breaker:    resilience.NewCircuitBreaker("tracker"),
		Resilience: rc,
		ProxyURL:   cfg.TrackerProxyURL,
	}, cfg.TrackerPageSize, cfg.Location, logger)

	deps := &handler.Dependencies{
		Database:   database,
		Blob:       blob,
		Queue:      queue,
		Email:      email,
		Source:     source,
		Calculator: portfolio.NewCalculator(cfg.CacheTTL, metrics),
		Metrics:    metrics,
		Logger:     logger,
		Location:   cfg.Location,
		Now:        time.Now,
		Settings: handler.Settings{
			UploadsContainer: cfg.UploadsContainer,
			BackupContainer:  cfg.BackupContainer,
			JobsQueue:        cfg.JobsQueue,
			UserEmail:        cfg.UserEmail,
			Version:          cfg.Version,
		},
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreProvider),
			zap.String("backups", cfg.BackupProvider),
			zap.Bool("queue", queue != nil),
			zap.Bool("email", email != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

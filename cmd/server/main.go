package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appingest "github.com/supplyhub/backend/internal/application/ingest"
	"github.com/supplyhub/backend/internal/domain/match"
	"github.com/supplyhub/backend/internal/domain/recognize"
	"github.com/supplyhub/backend/internal/infrastructure/classifier"
	"github.com/supplyhub/backend/internal/infrastructure/config"
	"github.com/supplyhub/backend/internal/infrastructure/logger"
	"github.com/supplyhub/backend/internal/infrastructure/notify"
	"github.com/supplyhub/backend/internal/infrastructure/persistence"
	"github.com/supplyhub/backend/internal/infrastructure/sequence"
	"github.com/supplyhub/backend/internal/infrastructure/telemetry"
	"github.com/supplyhub/backend/internal/interfaces/http/handler"
	"github.com/supplyhub/backend/internal/interfaces/http/middleware"
	"github.com/supplyhub/backend/internal/interfaces/http/router"
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

	log.Info("Starting SupplyHub Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Distributed tracing; a disabled config yields a no-op provider
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database connection with zap-backed GORM logging
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
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThreshold,
		DBName:             cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Redis-backed order number allocation
	numbers, err := sequence.NewRedisNumberGenerator(sequence.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := numbers.Close(); err != nil {
			log.Error("Error closing Redis connection", zap.Error(err))
		}
	}()
	log.Info("Redis connected successfully")

	// Repositories
	taskRepo := persistence.NewGormTaskRepository(db.DB)
	rowRepo := persistence.NewGormRowDetailRepository(db.DB)
	errorRepo := persistence.NewGormErrorOrderRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)

	// Header recognition falls back to dictionary-only when no classification
	// service is configured
	var textClassifier recognize.TextClassifier
	if cfg.Classifier.BaseURL != "" {
		textClassifier = classifier.NewHTTPClassifier(classifier.Config{
			BaseURL:        cfg.Classifier.BaseURL,
			APIKey:         cfg.Classifier.APIKey,
			TimeoutSeconds: cfg.Classifier.TimeoutSeconds,
			MaxRetries:     cfg.Classifier.MaxRetries,
		}, log)
		log.Info("Header classifier enabled", zap.String("base_url", cfg.Classifier.BaseURL))
	} else {
		log.Warn("No classifier configured, header recognition is dictionary-only")
	}
	recognizer := recognize.NewRecognizer(textClassifier)

	// Application services
	taskService := appingest.NewTaskService(
		taskRepo, rowRepo, errorRepo, orderRepo,
		productRepo, customerRepo,
		numbers, recognizer,
		appingest.Options{
			Workers:              cfg.Ingest.Workers,
			MaxRows:              cfg.Ingest.MaxRows,
			MaxFileSize:          cfg.Ingest.MaxFileSize,
			MinMappingConfidence: cfg.Ingest.MinMappingConfidence,
			MatchPolicy: match.Policy{
				SimilarityFloor:     cfg.Ingest.FloorThreshold,
				AutoAcceptThreshold: cfg.Ingest.AutoAcceptThreshold,
			},
		},
		log,
	)
	if cfg.Webhook.URL != "" {
		taskService.SetEventPublisher(notify.NewWebhookPublisher(notify.WebhookConfig{
			URL:            cfg.Webhook.URL,
			Secret:         cfg.Webhook.Secret,
			TimeoutSeconds: cfg.Webhook.TimeoutSeconds,
		}, log))
		log.Info("Webhook event delivery enabled", zap.String("url", cfg.Webhook.URL))
	}
	ledgerService := appingest.NewErrorLedgerService(errorRepo, log)

	// HTTP layer
	engine := router.New(router.Config{
		Logger:          log,
		TaskHandler:     handler.NewIngestTaskHandler(taskService),
		ErrorHandler:    handler.NewErrorOrderHandler(ledgerService),
		SystemHandler:   handler.NewSystemHandler(db, numbers),
		MaxUploadSize:   cfg.HTTP.MaxBodySize,
		SubmitPerMinute: cfg.Ingest.SubmitPerMinute,
		CORSOrigins:     cfg.HTTP.AllowedOrigins,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
	})
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxy configuration", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop accepting requests, then let in-flight
	// ingestion tasks drain before closing connections
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Waiting for in-flight ingestion tasks...")
	taskService.Wait()

	log.Info("Server exited gracefully")
}

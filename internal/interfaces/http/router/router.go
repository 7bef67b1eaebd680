package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supplyhub/backend/internal/infrastructure/logger"
	"github.com/supplyhub/backend/internal/interfaces/http/handler"
	"github.com/supplyhub/backend/internal/interfaces/http/middleware"
)

// Config carries everything the router needs
type Config struct {
	Logger *zap.Logger

	TaskHandler   *handler.IngestTaskHandler
	ErrorHandler  *handler.ErrorOrderHandler
	SystemHandler *handler.SystemHandler

	// MaxUploadSize caps request bodies on the upload route, in bytes
	MaxUploadSize int64
	// SubmitPerMinute limits uploads per company per minute; zero disables
	SubmitPerMinute int
	// CORSOrigins is the cross-origin whitelist; empty rejects cross-origin
	CORSOrigins []string
	// Tracing configures the per-request span middleware
	Tracing middleware.TracingConfig
}

// New assembles the HTTP router with the full middleware chain
func New(cfg Config) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 10 << 20
	}

	engine := gin.New()
	engine.Use(
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.Secure(),
	)

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// liveness endpoints stay outside the company scope
	engine.GET("/health", cfg.SystemHandler.Health)
	engine.GET("/ready", cfg.SystemHandler.Ready)

	api := engine.Group("/api/v1")
	api.Use(
		middleware.CompanyScope(middleware.DefaultCompanyConfig()),
		middleware.TracingAttributeInjector(),
	)

	tasks := api.Group("/ingest/tasks")
	{
		submit := tasks.Group("")
		submit.Use(middleware.BodyLimit(cfg.MaxUploadSize))
		if cfg.SubmitPerMinute > 0 {
			limiter := middleware.NewRateLimiter(cfg.SubmitPerMinute, time.Minute)
			submit.Use(limiter.Middleware())
		}
		submit.POST("", cfg.TaskHandler.Submit)

		tasks.GET("", cfg.TaskHandler.List)
		tasks.GET("/:id", cfg.TaskHandler.Get)
		tasks.GET("/:id/progress", cfg.TaskHandler.Progress)
		tasks.GET("/:id/rows", cfg.TaskHandler.Rows)
		tasks.POST("/:id/cancel", cfg.TaskHandler.Cancel)
	}

	errorOrders := api.Group("/ingest/errors")
	{
		errorOrders.GET("", cfg.ErrorHandler.List)
		errorOrders.GET("/:id", cfg.ErrorHandler.Get)
		errorOrders.POST("/:id/process", cfg.ErrorHandler.MarkProcessed)
		errorOrders.POST("/:id/ignore", cfg.ErrorHandler.MarkIgnored)
	}

	return engine
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	inboxapp "github.com/fiscalhub/backend/internal/application/inbox"
	matchingapp "github.com/fiscalhub/backend/internal/application/matching"
	pipelineapp "github.com/fiscalhub/backend/internal/application/pipeline"
	"github.com/fiscalhub/backend/internal/infrastructure/audit"
	"github.com/fiscalhub/backend/internal/infrastructure/config"
	"github.com/fiscalhub/backend/internal/infrastructure/dfe"
	"github.com/fiscalhub/backend/internal/infrastructure/logger"
	"github.com/fiscalhub/backend/internal/infrastructure/persistence"
	"github.com/fiscalhub/backend/internal/infrastructure/resilience"
	"github.com/fiscalhub/backend/internal/interfaces/http/handler"
	"github.com/fiscalhub/backend/internal/interfaces/http/middleware"
	"github.com/fiscalhub/backend/internal/interfaces/http/router"
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

	log.Info("Starting FiscalHub Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	lineItemRepo := persistence.NewGormLineItemRepository(db.DB)
	queueRepo := persistence.NewGormQueueRepository(db.DB)
	mappingRepo := persistence.NewGormSupplierMappingRepository(db.DB)
	issuerRepo := persistence.NewGormTrustedIssuerRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)

	// Audit trail sink
	auditSink := audit.NewZapSink(log)

	// Distribution client wrapped with retry and circuit breaking
	executor := resilience.NewExecutor(log)
	dfeClient, err := dfe.NewClient(&dfe.Config{
		BaseURL:        cfg.Distribution.BaseURL,
		APIKey:         cfg.Distribution.APIKey,
		TimeoutSeconds: int(cfg.Distribution.RequestTimeout / time.Second),
		MaxRetries:     cfg.Distribution.MaxRetries,
		BaseDelay:      cfg.Distribution.BaseDelay,
		MaxDelay:       cfg.Distribution.MaxDelay,
	}, executor)
	if err != nil {
		log.Fatal("Failed to configure distribution client", zap.Error(err))
	}

	// Initialize application services
	matchingService := matchingapp.NewService(mappingRepo, productRepo, documentRepo, lineItemRepo, auditSink, log)
	processor := pipelineapp.NewProcessor(queueRepo, documentRepo, lineItemRepo, matchingService, auditSink, log)
	processor.SetBatchSize(cfg.Pipeline.BatchSize)
	processor.SetMaxAttempts(cfg.Pipeline.MaxAttempts)
	collectorService := inboxapp.NewCollectorService(dfeClient, documentRepo, issuerRepo, queueRepo, auditSink, log)
	collectorService.SetMaxAttempts(cfg.Pipeline.MaxAttempts)
	queryService := inboxapp.NewQueryService(documentRepo, lineItemRepo, queueRepo)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	// Middleware order matters: request id first so every later stage can tag
	// its logs, panics recovered before request logging, then body limits and
	// tenant extraction for the API surface.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.TenantWithConfig(middleware.TenantConfig{
		SkipPaths: []string{
			"/health",
			"/api/v1/system/info",
		},
	}))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Register route groups
	inboxHandler := handler.NewInboxHandler(collectorService, queryService)
	pipelineHandler := handler.NewPipelineHandler(processor)
	matchingHandler := handler.NewMatchingHandler(matchingService)
	systemHandler := handler.NewSystemHandler()

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(inboxHandler).
		Register(pipelineHandler).
		Register(matchingHandler).
		Register(systemHandler).
		Setup()

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

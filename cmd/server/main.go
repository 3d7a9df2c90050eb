package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	budgetapp "github.com/fpm2025/finance-tracker/internal/application/budget"
	categoryapp "github.com/fpm2025/finance-tracker/internal/application/category"
	eventapp "github.com/fpm2025/finance-tracker/internal/application/event"
	ledgerapp "github.com/fpm2025/finance-tracker/internal/application/ledger"
	walletapp "github.com/fpm2025/finance-tracker/internal/application/wallet"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/auth"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/cache"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/config"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/event"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/logger"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/persistence"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/persistence/models"
	"github.com/fpm2025/finance-tracker/internal/interfaces/http/handler"
	"github.com/fpm2025/finance-tracker/internal/interfaces/http/middleware"
	"github.com/fpm2025/finance-tracker/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/fpm2025/finance-tracker/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Finance Tracker API
//	@version		1.0
//	@description	Personal finance tracker - event-driven wallet balances and budget tracking

//	@contact.name	API Support
//	@contact.url	https://github.com/fpm2025/finance-tracker

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const version = "1.0.0"

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

	log.Info("Starting Finance Tracker",
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

	// Auto-migrate schema outside production; production uses cmd/migrate
	if cfg.App.Env != "production" {
		if err := models.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate database schema", zap.Error(err))
		}
		log.Info("Database schema migrated")
	}

	// Initialize event serializer and register all event types, including
	// the transaction.updated schema upgrade chain for stored v1 payloads
	eventSerializer := event.NewEventSerializer()
	if err := event.RegisterAllEvents(eventSerializer); err != nil {
		log.Fatal("Failed to register event types", zap.Error(err))
	}

	// Create outbox publisher for transactional event saving
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)

	// Initialize repositories
	// The transaction repository writes outbox entries in the same database
	// transaction as the ledger row
	transactionRepo := persistence.NewGormTransactionRepository(db.DB, outboxPublisher)
	walletRepo := persistence.NewGormWalletRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	budgetRepo := persistence.NewGormBudgetRepository(db.DB)
	budgetAlertRepo := persistence.NewGormBudgetAlertRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	deadLetterRepo := event.NewGormDeadLetterRepository(db.DB)

	// Initialize application services
	transactionService := ledgerapp.NewTransactionService(transactionRepo, categoryRepo, walletRepo)
	walletService := walletapp.NewWalletService(walletRepo, transactionRepo)
	budgetService := budgetapp.NewBudgetService(budgetRepo, budgetAlertRepo, transactionRepo)
	categoryService := categoryapp.NewCategoryService(categoryRepo)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// JWT validation for gateway-issued tokens
	jwtService := auth.NewJWTService(cfg.JWT)

	// Token blacklist backed by Redis, with an in-memory fallback so a Redis
	// outage does not take authentication down with it
	var tokenBlacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable for token blacklist, using in-memory fallback", zap.Error(err))
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		tokenBlacklist = redisBlacklist
	}

	// Idempotency store for consumer-side event deduplication
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Dead letter replay runs entries against the bare consumer handlers,
	// bypassing the dedup wrapper that already saw the failed delivery
	deadLetterService := eventapp.NewDeadLetterService(deadLetterRepo, eventSerializer, log)

	// Consumer retry budget from config, default backoff curve
	consumerRetry := event.DefaultRetryConfig()
	consumerRetry.MaxAttempts = cfg.Event.ConsumerMaxRetries

	// Register event consumers. Each consumer is wrapped with retry plus
	// dead-lettering, then with idempotency keyed by its consumer group, so
	// redelivered events are acknowledged without reprocessing and poison
	// events land in the dead letter table instead of stalling the stream.
	balanceReconciler := walletapp.NewBalanceReconcilerHandler(walletRepo, log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		event.NewRetryingHandler(balanceReconciler, walletapp.ConsumerGroupReconciler,
			deadLetterRepo, eventSerializer, log, event.WithRetryConfig(consumerRetry)),
		idempotencyStore, log,
		event.WithConsumerGroup(walletapp.ConsumerGroupReconciler),
	))

	budgetEngine := budgetapp.NewBudgetSpendHandler(budgetRepo, log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		event.NewRetryingHandler(budgetEngine, budgetapp.ConsumerGroupEngine,
			deadLetterRepo, eventSerializer, log, event.WithRetryConfig(consumerRetry)),
		idempotencyStore, log,
		event.WithConsumerGroup(budgetapp.ConsumerGroupEngine),
	))

	deadLetterService.RegisterConsumer(walletapp.ConsumerGroupReconciler, balanceReconciler)
	deadLetterService.RegisterConsumer(budgetapp.ConsumerGroupEngine, budgetEngine)

	log.Info("Event consumers registered",
		zap.Strings("balance_reconciler_events", balanceReconciler.EventTypes()),
		zap.Strings("budget_engine_events", budgetEngine.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start outbox processor for guaranteed event delivery.
	// The processor reads pending events from the outbox_entries table and
	// publishes them to the event bus in commit order per wallet.
	if cfg.Event.ProcessorEnabled {
		outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
		outboxProcessorConfig.BatchSize = cfg.Event.BatchSize
		outboxProcessorConfig.PollInterval = cfg.Event.PollInterval
		outboxProcessorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		outboxProcessorConfig.CleanupRetention = cfg.Event.CleanupRetention

		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
	} else {
		log.Warn("Outbox processor disabled, persisted events will not be delivered")
	}

	// Initialize HTTP handlers
	transactionHandler := handler.NewTransactionHandler(transactionService)
	walletHandler := handler.NewWalletHandler(walletService)
	budgetHandler := handler.NewBudgetHandler(budgetService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	outboxHandler := handler.NewOutboxHandler(outboxService)
	deadLetterHandler := handler.NewDeadLetterHandler(deadLetterService)
	systemHandler := handler.NewSystemHandler(version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Liveness endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	// Configure skip paths for public endpoints
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/health",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Register handler route groups
	r.Register(transactionHandler).
		Register(walletHandler).
		Register(budgetHandler).
		Register(categoryHandler).
		Register(outboxHandler).
		Register(deadLetterHandler).
		Register(systemHandler)

	// Setup routes
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for the liveness endpoint
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
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

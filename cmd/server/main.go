// Prompt Volume Evaluation Platform server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/auth"
	"github.com/rosklyar/prompts-volume-sub000/internal/application/batchcorrelator"
	"github.com/rosklyar/prompts-volume-sub000/internal/application/billing"
	"github.com/rosklyar/prompts-volume-sub000/internal/application/promptingest"
	"github.com/rosklyar/prompts-volume-sub000/internal/application/queue"
	"github.com/rosklyar/prompts-volume-sub000/internal/application/reports"
	"github.com/rosklyar/prompts-volume-sub000/internal/config"
	_ "github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/api/docs"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/api/rest"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/cache"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/logger"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/scheduler"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.Logging)
	logger.SetDefault(appLogger)

	appLogger.Info("starting prompt volume evaluation platform",
		"version", "1.0.0",
		"port", cfg.Server.Port,
	)

	store, err := storage.NewStore(
		toStorageConfig(cfg.PromptsDB),
		toStorageConfig(cfg.UsersDB),
		toStorageConfig(cfg.EvalsDB),
	)
	if err != nil {
		appLogger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	appLogger.Info("storage connected")

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(cfg.Redis)
		if err != nil {
			appLogger.Warn("failed to initialize redis cache, continuing without it", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			appLogger.Info("redis cache connected")
		}
	}

	// Repositories.
	promptRepo := storage.NewPromptRepository(store.PromptsDB)
	groupRepo := storage.NewPromptGroupRepository(store.PromptsDB)
	userRepo := storage.NewUserRepository(store.UsersDB)
	balanceRepo := storage.NewBalanceRepository(store.EvalsDB)
	consumptionRepo := storage.NewConsumptionRepository(store.EvalsDB)
	assistantRepo := storage.NewAssistantRepository(store.EvalsDB)
	evalRepo := storage.NewEvaluationRepository(store.EvalsDB)
	queueRepo := storage.NewQueueRepository(store.EvalsDB)
	reportRepo := storage.NewReportRepository(store.EvalsDB)
	batchRepo := storage.NewBatchRepository(store.EvalsDB)
	appLogger.Info("repositories initialized")

	// Billing: FIFO-by-expiry balances, pluggable pricing.
	balanceService := billing.NewBalanceService(balanceRepo, store.EvalsDB)
	pricingStrategy, err := resolvePricingStrategy(cfg.Billing)
	if err != nil {
		appLogger.Error("failed to build pricing strategy", "error", err)
		os.Exit(1)
	}
	chargeService := billing.NewChargeService(balanceService, consumptionRepo, balanceRepo, store.EvalsDB, pricingStrategy)

	// Execution queue / evaluation lifecycle.
	queueService := queue.NewService(queueRepo, evalRepo, assistantRepo, promptRepo, store.EvalsDB, store.PromptsDB, cfg.Queue)

	// Report generation: selection + freshness analysis, charge engine, leaderboard/export.
	selectionAnalyzer := reports.NewSelectionAnalyzer(groupRepo, evalRepo, reportRepo, consumptionRepo, pricingStrategy, store.PromptsDB, store.EvalsDB)
	freshnessAnalyzer := reports.NewFreshnessAnalyzer(selectionAnalyzer, groupRepo, reportRepo, store.PromptsDB, store.EvalsDB)
	reportService := reports.NewReportService(selectionAnalyzer, groupRepo, reportRepo, consumptionRepo, chargeService, store.PromptsDB)
	leaderboardBuilder := reports.NewCitationLeaderboardBuilder(reportRepo, evalRepo, store.EvalsDB)

	// Account signup/login.
	authService := auth.NewService(userRepo, store.UsersDB, balanceRepo, cfg.Auth, cfg.Billing)

	// External batch correlator: outbound trigger, webhook intake, citation enrichment.
	batchClient := batchcorrelator.NewClient(cfg.BatchCorrelator, cfg.BatchCorrelator.ScraperEndpoint)
	citationEnricher := batchcorrelator.NewCitationEnricher(10 * time.Second)
	batchService := batchcorrelator.NewService(batchClient, batchRepo, promptRepo, citationEnricher, store.PromptsDB, store.EvalsDB, cfg.BatchCorrelator)

	// Priority/batch prompt ingest: embed, dedup, enqueue.
	embeddingService := promptingest.NewOpenAIEmbeddingService(cfg.Embedding)
	ingestService := promptingest.NewService(embeddingService, promptRepo, groupRepo, queueService, store.PromptsDB, cfg.Embedding)

	// Background maintenance: stale-claim sweep and batch registry reap.
	sched := scheduler.New(appLogger)
	if err := sched.RegisterStaleClaimSweep("@every 1m", queueService); err != nil {
		appLogger.Error("failed to register stale claim sweep", "error", err)
		os.Exit(1)
	}
	if err := sched.RegisterBatchRegistryReap("@every 10m", batchcorrelator.Instance(cfg.BatchCorrelator.RegistryTTL)); err != nil {
		appLogger.Error("failed to register batch registry reap", "error", err)
		os.Exit(1)
	}
	sched.Start()
	appLogger.Info("scheduler started", "jobs", []string{"stale-claim-sweep", "batch-registry-reap"})

	authMiddleware, err := rest.NewAuthMiddleware(auth.NewJWTService(&cfg.Auth), cfg.Auth.WorkerTokensPath, cfg.BatchCorrelator.WebhookSecret, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize auth middleware", "error", err)
		os.Exit(1)
	}
	loggingMiddleware := rest.NewLoggingMiddleware(appLogger)
	recoveryMiddleware := rest.NewRecoveryMiddleware(appLogger)
	bodySizeMiddleware := rest.NewBodySizeMiddleware(appLogger, 1<<20)
	loginRateLimiter := buildLoginRateLimiter(redisCache, cfg)
	apiRateLimiter := buildAPIRateLimiter(redisCache, cfg)

	authHandler := rest.NewAuthHandler(authService)
	billingHandler := rest.NewBillingHandler(balanceService, chargeService)
	evaluationsHandler := rest.NewEvaluationsHandler(queueService)
	executionHandler := rest.NewExecutionHandler(queueService)
	groupsHandler := rest.NewGroupsHandler(groupRepo, store.PromptsDB)
	ingestHandler := rest.NewIngestHandler(ingestService)
	reportsHandler := rest.NewReportsHandler(freshnessAnalyzer, reportService, leaderboardBuilder, reportRepo, store.EvalsDB)
	webhookHandler := rest.NewWebhookHandler(batchService)
	dashboardHandler := rest.NewDashboardHandler(queueService, appLogger, 5*time.Second)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(recoveryMiddleware.Recovery())
	router.Use(loggingMiddleware.RequestLogger())
	router.Use(bodySizeMiddleware.LimitBodySize())
	router.Use(apiRateLimiter.Middleware())

	if cfg.Server.CORS {
		router.Use(corsMiddleware(cfg.Server.CORSOrigins))
		appLogger.Info("cors enabled")
	}

	router.GET("/health", healthHandler(store, redisCache))
	router.GET("/ready", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ready"}) })
	router.GET("/metrics", metricsHandler(store, redisCache))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/dashboard/ws", dashboardHandler.Stream)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/verify", authHandler.VerifyEmail)
		authGroup.POST("/login", loginRateLimiter.Middleware(), authHandler.Login)
	}

	promptsGroup := router.Group("/prompts")
	promptsGroup.Use(authMiddleware.RequireUser())
	{
		promptsGroup.POST("/ingest", ingestHandler.Ingest)
	}

	executionGroup := router.Group("/execution")
	executionGroup.Use(authMiddleware.RequireUser())
	{
		executionGroup.POST("/request-fresh", executionHandler.RequestFresh)
		executionGroup.GET("/queue/status", executionHandler.Status)
		executionGroup.DELETE("/queue/:prompt_id", executionHandler.CancelByPromptID)
		executionGroup.POST("/queue/cancel", executionHandler.Cancel)
	}

	evaluationsGroup := router.Group("/evaluations")
	evaluationsGroup.Use(authMiddleware.RequireWorker())
	{
		evaluationsGroup.POST("/poll", evaluationsHandler.Poll)
		evaluationsGroup.POST("/submit", evaluationsHandler.Submit)
		evaluationsGroup.POST("/release", evaluationsHandler.Release)
		evaluationsGroup.POST("/results", evaluationsHandler.Results)
	}

	billingGroup := router.Group("/billing")
	billingGroup.Use(authMiddleware.RequireUser())
	{
		billingGroup.POST("/charge", billingHandler.Charge)
		billingGroup.GET("/balance", billingHandler.Balance)
		billingGroup.GET("/transactions", billingHandler.Transactions)
	}

	reportsGroup := router.Group("/reports")
	reportsGroup.Use(authMiddleware.RequireUser())
	{
		reportsGroup.POST("/groups", groupsHandler.Create)
		reportsGroup.GET("/groups", groupsHandler.List)
		reportsGroup.GET("/groups/:id", groupsHandler.Get)
		reportsGroup.POST("/groups/:id/prompts", groupsHandler.AddPrompt)
		reportsGroup.GET("/groups/:id/compare", reportsHandler.Compare)
		reportsGroup.POST("/groups/:id/generate", reportsHandler.Generate)
		reportsGroup.GET("/:reportId/citation-leaderboard", reportsHandler.Leaderboard)
		reportsGroup.GET("/:reportId/export", reportsHandler.Export)
	}

	brightdataGroup := router.Group("/brightdata")
	{
		brightdataGroup.POST("/batches", authMiddleware.RequireUser(), webhookHandler.Trigger)
		brightdataGroup.POST("/webhook/:batch_id", authMiddleware.RequireWebhook(), webhookHandler.Intake)
	}

	appLogger.Info("routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("http server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		appLogger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		appLogger.Info("server shutdown initiated", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		sched.Stop(ctx)

		if err := server.Shutdown(ctx); err != nil {
			appLogger.Error("graceful shutdown failed", "error", err)
			if err := server.Close(); err != nil {
				appLogger.Error("server close failed", "error", err)
			}
		}
		appLogger.Info("server stopped")
	}
}

func toStorageConfig(db config.DatabaseConfig) *storage.Config {
	return &storage.Config{
		DSN:             db.URL,
		MaxOpenConns:    db.MaxOpenConns,
		MaxIdleConns:    db.MaxIdleConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
		ConnMaxIdleTime: db.ConnMaxIdleTime,
		Debug:           db.Debug,
	}
}

// resolvePricingStrategy picks an expr-lang rule when configured, falling
// back to the fixed default unit price (spec §4.2).
func resolvePricingStrategy(cfg config.BillingConfig) (billing.PricingStrategy, error) {
	if cfg.PricingExpr != "" {
		return billing.NewExprPricingStrategy(cfg.PricingExpr, cfg.DefaultUnitPrice)
	}
	return billing.NewFixedPricingStrategy(cfg.DefaultUnitPrice), nil
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// buildLoginRateLimiter prefers a Redis-backed limiter (so rate limits are
// shared across replicas) and falls back to the in-memory one when Redis
// isn't configured.
func buildLoginRateLimiter(redisCache *cache.RedisCache, cfg *config.Config) interface{ Middleware() gin.HandlerFunc } {
	if redisCache != nil {
		return rest.NewRedisLoginRateLimiter(redisCache.Client(), 5, 15*time.Minute, 30*time.Minute)
	}
	return rest.NewLoginRateLimiter(5, 15*time.Minute, 30*time.Minute)
}

func buildAPIRateLimiter(redisCache *cache.RedisCache, cfg *config.Config) interface{ Middleware() gin.HandlerFunc } {
	if redisCache != nil {
		return rest.NewRedisRateLimiter(redisCache.Client(), "ratelimit:api:", 600, time.Minute, 5*time.Minute)
	}
	return rest.NewRateLimiter(600, time.Minute, 5*time.Minute)
}

func healthHandler(store *storage.Store, redisCache *cache.RedisCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		for name, db := range map[string]interface {
			PingContext(context.Context) error
		}{"prompts": store.PromptsDB, "users": store.UsersDB, "evals": store.EvalsDB} {
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": fmt.Sprintf("%s db: %s", name, err.Error())})
				return
			}
		}

		if redisCache != nil {
			if err := redisCache.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": fmt.Sprintf("redis: %s", err.Error())})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

func metricsHandler(store *storage.Store, redisCache *cache.RedisCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics := gin.H{
			"database": gin.H{
				"prompts": dbConnStats(store.PromptsDB),
				"users":   dbConnStats(store.UsersDB),
				"evals":   dbConnStats(store.EvalsDB),
			},
		}
		if redisCache != nil {
			stats := redisCache.Stats()
			metrics["redis"] = gin.H{
				"hits":        stats.Hits,
				"misses":      stats.Misses,
				"total_conns": stats.TotalConns,
				"idle_conns":  stats.IdleConns,
			}
		}
		c.JSON(http.StatusOK, gin.H{"metrics": metrics})
	}
}

func dbConnStats(db *bun.DB) gin.H {
	stats := db.Stats()
	return gin.H{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"max_open_conns":   stats.MaxOpenConnections,
	}
}

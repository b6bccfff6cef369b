package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appbilling "github.com/leadqual/backend/internal/application/billing"
	"github.com/leadqual/backend/internal/infrastructure/auth"
	"github.com/leadqual/backend/internal/infrastructure/cache"
	"github.com/leadqual/backend/internal/infrastructure/checkout"
	"github.com/leadqual/backend/internal/infrastructure/config"
	"github.com/leadqual/backend/internal/infrastructure/logger"
	"github.com/leadqual/backend/internal/infrastructure/persistence"
	"github.com/leadqual/backend/internal/interfaces/http/handler"
	"github.com/leadqual/backend/internal/interfaces/http/middleware"
	"github.com/leadqual/backend/internal/interfaces/http/router"
)

//	@title			LeadQual Backend API
//	@version		1.0
//	@description	Billing entitlement and credit ledger backend for the LeadQual workspace

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting LeadQual Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()

	engine, err := buildEngine(cfg, log, db, redisClient)
	if err != nil {
		log.Fatal("Failed to assemble HTTP stack", zap.Error(err))
	}

	serve(cfg, log, engine)
}

// connectLedgerCache pings Redis and returns the ledger display cache, or
// nil when Redis is down. A dead Redis degrades to uncached ledger reads,
// it never blocks startup.
func connectLedgerCache(cfg *config.Config, log *zap.Logger, client *redis.Client) appbilling.LedgerDisplayCache {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, ledger cache disabled", zap.Error(err))
		return nil
	}
	log.Info("Redis connected successfully")
	return cache.NewRedisLedgerCache(client, cfg.Billing.LedgerCacheTTL, log)
}

// buildEngine wires repositories, application services, and the full
// middleware stack onto a gin engine.
func buildEngine(cfg *config.Config, log *zap.Logger, db *persistence.Database, redisClient *redis.Client) (*gin.Engine, error) {
	billingAccountRepo := persistence.NewGormBillingAccountRepository(db.DB)
	creditLedgerRepo := persistence.NewGormCreditLedgerRepository(db.DB)
	ledgerCache := connectLedgerCache(cfg, log, redisClient)

	checkoutClient, err := checkout.NewRPCClient(checkout.Config{
		Endpoint: cfg.Billing.CheckoutEndpoint,
		Timeout:  cfg.Billing.CheckoutTimeout,
	})
	if err != nil {
		return nil, err
	}

	entitlementService := appbilling.NewEntitlementService(
		billingAccountRepo,
		log,
		nil,
		appbilling.EntitlementServiceConfig{
			TrialCredits:         cfg.Billing.TrialCredits,
			TrialDays:            cfg.Billing.TrialDays,
			LowCreditThresholdPc: cfg.Billing.LowCreditThresholdPercent,
		},
	)
	ledgerService := appbilling.NewLedgerService(creditLedgerRepo, ledgerCache, log)
	checkoutService := appbilling.NewCheckoutService(checkoutClient, entitlementService, log)
	jwtService := auth.NewJWTService(cfg.JWT)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitPerIP, cfg.HTTP.RateLimitWindow)))

	// Liveness endpoints live outside API versioning and auth.
	engine.GET("/health", healthHandler(db))
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/api/v1/ping"},
		Logger:     log,
	}))
	r.Use(middleware.OrganizationContextWithConfig(middleware.OrganizationMiddlewareConfig{
		HeaderEnabled: cfg.App.Env != "production",
		SkipPaths:     []string{"/api/v1/ping"},
		Required:      true,
		Logger:        log,
	}))

	// Entitlement gate: one snapshot per request, locked organizations are
	// redirected to the plans page except on the billing-only surface
	r.Use(middleware.EntitlementCache())
	r.Use(middleware.WorkspaceGate(middleware.WorkspaceGateConfig{
		Entitlement:  entitlementService,
		PlansPath:    cfg.Billing.PlansPath,
		BypassHeader: cfg.Billing.GateBypassHeader,
		Logger:       log,
	}))

	r.Register(handler.NewBillingHandler(entitlementService, ledgerService, checkoutService, cfg.Billing.PlansPath))
	r.Setup()

	return engine, nil
}

// serve runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds.
func serve(cfg *config.Config, log *zap.Logger, engine *gin.Engine) {
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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealerportal/backend/internal/application/portal"
	"github.com/dealerportal/backend/internal/infrastructure/auth"
	"github.com/dealerportal/backend/internal/infrastructure/config"
	"github.com/dealerportal/backend/internal/infrastructure/logger"
	"github.com/dealerportal/backend/internal/infrastructure/metrics"
	"github.com/dealerportal/backend/internal/infrastructure/persistence"
	"github.com/dealerportal/backend/internal/infrastructure/telemetry"
	"github.com/dealerportal/backend/internal/interfaces/http/handler"
	"github.com/dealerportal/backend/internal/interfaces/http/middleware"
	"github.com/dealerportal/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

//go:generate swag init --v3.1 --dir ../.. --generalInfo cmd/server/main.go --output ../../docs --outputTypes go --parseInternal

//	@title			Dealer Portal API
//	@version		1.0
//	@description	Session, order, quote and catalog endpoints of the dealer portal

//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

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
	defer func() { _ = log.Sync() }()

	log.Info("Starting dealer portal",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	err = telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:        cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:     cfg.Telemetry.DBLogFullSQL,
		TracerProvider: tp.Provider(),
	}, log)
	if err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if cfg.Redis.Enabled {
		redisBlacklist, err := auth.NewRedisTokenBlacklist(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisBlacklist.Close() }()
		blacklist = redisBlacklist
		log.Info("Revoked sessions tracked in Redis", zap.String("addr", cfg.Redis.Addr()))
	}

	m := metrics.New(cfg.Metrics)
	profiles := persistence.NewGormProfileRepository(db.DB)
	authService := auth.NewService(auth.ServiceDeps{
		Users:     persistence.NewGormUserRepository(db.DB),
		Profiles:  profiles,
		Tokens:    auth.NewJWTService(cfg.JWT),
		Blacklist: blacklist,
		Logger:    log,
	})
	registry := portal.NewRegistry(portal.Deps{
		Auth:      authService,
		Profiles:  profiles,
		Companies: persistence.NewGormCompanyRepository(db.DB),
		Products:  persistence.NewGormProductRepository(db.DB),
		Orders:    persistence.NewGormOrderStore(db.DB),
		Quotes:    persistence.NewGormQuoteStore(db.DB),
		Portal:    cfg.Portal,
		Logger:    log,
		Metrics:   m,
	})
	defer registry.CloseAll()
	go registry.RunEviction(ctx, cfg.Portal.SessionIdleTimeout)

	var authLimiter *middleware.RateLimiter
	if cfg.HTTP.AuthRateLimit > 0 {
		authLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimit, cfg.HTTP.AuthRateWindow)
		defer authLimiter.Stop()
	}

	engine, err := router.NewEngine(router.Deps{
		Registry:      registry,
		System:        handler.NewSystemHandler(cfg.App.Name, version, handler.PingFunc(db.PingContext), registry.Len),
		HTTP:          cfg.HTTP,
		MetricsConfig: cfg.Metrics,
		Metrics:       m,
		Tracing: middleware.TracingConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			Enabled:        cfg.Telemetry.Enabled,
			TracerProvider: tp.Provider(),
		},
		Swagger:     cfg.Swagger,
		AuthLimiter: authLimiter,
		Logger:      log,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server exited gracefully")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tillpos/backend/internal/config"
	"tillpos/backend/internal/httpapi"
	"tillpos/backend/internal/service"
	"tillpos/backend/internal/session"
	"tillpos/backend/internal/store"
	"tillpos/backend/internal/store/memory"
	pgstore "tillpos/backend/internal/store/postgres"
)

var hundred = decimal.NewFromInt(100)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid security configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		if cfg.RunMigrations {
			if err := pgstore.Migrate(ctx, cfg.DatabaseURL, logger); err != nil {
				logger.Fatal("database migration failed", zap.Error(err))
			}
		}
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		if err := pg.Seed(ctx, logger); err != nil {
			logger.Fatal("seeding postgres failed", zap.Error(err))
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		logger.Info("repository: in-memory")
	}

	var sessions session.Store = session.NewMemoryStore(cfg.SessionTTL)
	if cfg.RedisAddr != "" {
		redisSessions := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
		if err := redisSessions.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, keeping sessions in memory", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = redisSessions.Close()
		} else {
			sessions = redisSessions
			closers = append(closers, redisSessions.Close)
			logger.Info("sessions: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		logger.Info("sessions: in-memory")
	}

	svc := service.New(repo, sessions, logger, service.Options{
		TaxRatePercent:    cfg.TaxRatePercent,
		LowStockThreshold: cfg.LowStockThreshold,
	})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	api, err := httpapi.New(svc, auth, logger, httpapi.Options{
		AllowedOrigin:  cfg.AllowedOrigin,
		LoginRateLimit: cfg.LoginRateLimit,
	})
	if err != nil {
		logger.Fatal("invalid http configuration", zap.Error(err))
	}

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("POS backend listening",
			zap.String("addr", cfg.Address()),
			zap.String("env", cfg.AppEnv),
			zap.String("tax_rate_percent", cfg.TaxRatePercent.String()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

// newLogger builds a console logger for APP_ENV=development and a JSON
// logger everywhere else. LOG_LEVEL applies to both.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.AppEnv == "development" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return errors.New("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.TaxRatePercent.IsNegative() || cfg.TaxRatePercent.GreaterThan(hundred) {
		return fmt.Errorf("TAX_RATE_PERCENT must be between 0 and 100, got %s", cfg.TaxRatePercent)
	}
	if cfg.IsProduction() && (cfg.AllowedOrigin == "" || cfg.AllowedOrigin == "*") {
		return errors.New("ALLOWED_ORIGIN must name a single origin in production")
	}
	if cfg.IsProduction() && (os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "") {
		return errors.New("SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD must be set in production")
	}
	return nil
}

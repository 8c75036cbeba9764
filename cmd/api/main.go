package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/buyer-lead-intake/internal/api/router"
	"github.com/wolfman30/buyer-lead-intake/internal/auth"
	"github.com/wolfman30/buyer-lead-intake/internal/buyers"
	appconfig "github.com/wolfman30/buyer-lead-intake/internal/config"
	"github.com/wolfman30/buyer-lead-intake/internal/observability/metrics"
	"github.com/wolfman30/buyer-lead-intake/internal/ratelimit"
	"github.com/wolfman30/buyer-lead-intake/internal/users"
	"github.com/wolfman30/buyer-lead-intake/pkg/logging"
)

func main() {
	// Load .env in development; ignore when absent
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting buyer-lead-intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.AuthJWTSecret == "" {
		logger.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	// Storage
	var (
		buyersRepo buyers.Repository
		usersRepo  users.Repository
		pool       *pgxpool.Pool
	)
	if cfg.UseMemoryStore || cfg.DatabaseURL == "" {
		logger.Warn("using in-memory store; data will not survive restarts")
		mem := buyers.NewInMemoryRepository()
		mem.SetOwnerName(cfg.DemoUserID, cfg.DemoUserName)
		buyersRepo = mem
		usersRepo = users.NewInMemoryRepository()
	} else {
		var err error
		pool, err = pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		buyersRepo = buyers.NewPostgresRepository(pool)
		usersRepo = users.NewPostgresRepository(pool)
	}

	// Rate limiting backed by redis
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	limiter := ratelimit.New(redisClient, ratelimit.Config{
		WriteLimit:   cfg.WriteRateLimit,
		WriteWindow:  cfg.WriteRateWindow,
		ImportLimit:  cfg.ImportRateLimit,
		ImportWindow: cfg.ImportRateWindow,
	}, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	leadMetrics := metrics.NewLeadMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Handlers
	importService := buyers.NewImportService(buyersRepo, logger, leadMetrics)
	buyersHandler := buyers.NewHandler(buyersRepo, importService, limiter, logger, leadMetrics)
	authHandler := auth.NewHandler(cfg.AuthJWTSecret, cfg.AuthTokenTTL, auth.DemoUser{
		ID:    cfg.DemoUserID,
		Email: cfg.DemoUserEmail,
		Name:  cfg.DemoUserName,
	}, usersRepo, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		AuthHandler:        authHandler,
		BuyersHandler:      buyersHandler,
		AuthSecret:         cfg.AuthJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

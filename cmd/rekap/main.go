package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/config"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/handler"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/cache"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/observability"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/resilience"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/supabase"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env files (for local development) ---
	// Existing variables are never overridden, so .env.local wins over .env.
	for _, f := range []string{".env.local", ".env"} {
		_ = config.LoadDotEnv(f)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("supabase_url", cfg.SupabaseURL),
		zap.String("expense_table", cfg.ExpenseTable),
		zap.Bool("service_role_key", cfg.SupabaseServiceKey != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Bool("owner_auth", cfg.JWTSecret != ""),
		zap.Strings("cors_allowed_origins", cfg.AllowedOrigins),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, observability.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	recapCache := cache.New[*domain.MonthlyRecap](cfg.CacheTTL)
	defer recapCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.StoreKey(),
		cfg.ExpenseTable,
		cb,
		resilienceCfg,
		logger,
	)

	// --- Services ---
	recapSvc := service.NewRecapService(supabaseClient, supabaseClient, recapCache, metrics, logger)

	verifier := service.NewTokenVerifier(cfg.JWTSecret)
	if !verifier.Enabled() {
		logger.Warn("owner auth disabled: SUPABASE_JWT_SECRET not set")
	}

	// --- Router ---
	router := handler.NewRouter(recapSvc, verifier, metrics, cfg.AllowedOrigins, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

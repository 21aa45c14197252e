package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"summarize-pro/internal/common/pagination"
	"summarize-pro/internal/config"
	hhttp "summarize-pro/internal/handler/http"
	"summarize-pro/internal/handler/http/auth"
	"summarize-pro/internal/handler/http/middleware"
	pgRepo "summarize-pro/internal/infra/adapter/persistence/postgres"
	"summarize-pro/internal/infra/db"
	"summarize-pro/internal/infra/fetcher"
	"summarize-pro/internal/infra/notifier"
	"summarize-pro/internal/infra/resultcache"
	"summarize-pro/internal/observability/logging"
	"summarize-pro/internal/observability/tracing"
	authservice "summarize-pro/internal/service/auth"
	"summarize-pro/internal/usecase/analysis"
	"summarize-pro/internal/usecase/qa"
	"summarize-pro/internal/usecase/summary"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("api server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Init("summarize-pro", cfg.Version, cfg.TracingSampleRatio)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	models, err := config.LoadModels()
	if err != nil {
		return err
	}
	defer func() {
		if err := models.Close(context.Background()); err != nil {
			logger.Warn("failed to close inference backends", slog.Any("error", err))
		}
	}()
	logger.Info("model cache ready",
		slog.Int("capacity", models.Cache.Capacity()),
		slog.Int("models", len(models.Cache.Keys())),
		slog.String("default_backend", models.DefaultBackend),
		slog.Any("backends", models.Backends))

	svc := &summary.Service{
		Pipeline:      models.Pipeline,
		Analyzer:      analysis.NewService(models.Cache, config.KeySentiment),
		Fetcher:       initFetcher(logger),
		MaxTextLength: cfg.MaxTextLength,
	}

	var cachePinger hhttp.Pinger
	if results := initResultCache(ctx, logger, cfg); results != nil {
		svc.Cache = results
		cachePinger = results
	}

	database := initDatabase(ctx, logger, cfg)
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", slog.Any("error", err))
			}
		}()
		svc.History = pgRepo.NewSummaryRepo(database)
	}

	deps := hhttp.Deps{
		Logger:         logger,
		Version:        cfg.Version,
		Summaries:      svc,
		Results:        svc,
		QA:             qa.NewService(models.Cache, config.KeyQA, config.KeyMultilingualQA),
		Models:         models.Cache,
		DB:             database,
		Cache:          cachePinger,
		Pagination:     pagination.LoadFromEnv(),
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RequestTimeout: cfg.RequestTimeout,
	}
	if database != nil {
		deps.History = svc
	}
	if err := initAdmin(logger, cfg, &deps); err != nil {
		return err
	}
	if err := initRateLimiter(ctx, logger, cfg, &deps); err != nil {
		return err
	}

	alerter := notifier.New(cfg.AlertSlackWebhookURL, cfg.AlertDiscordWebhookURL, cfg.AlertTimeout)
	jobs, err := startJobs(logger, cfg, alerter, svc, database != nil)
	if err != nil {
		return err
	}
	defer jobs.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           hhttp.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		// Long documents can take as long as the request timeout to summarize.
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return serve(ctx, logger, srv, cfg.ShutdownTimeout)
}

// initFetcher returns nil when the fetcher configuration is invalid; URL
// summaries then answer 503.
func initFetcher(logger *slog.Logger) summary.Fetcher {
	fcfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("url summarization disabled", slog.Any("error", err))
		return nil
	}
	return fetcher.NewReadabilityFetcher(fcfg)
}

func initResultCache(ctx context.Context, logger *slog.Logger, cfg *config.ServerConfig) *resultcache.RedisCache {
	if !cfg.EnableResultCaching || cfg.RedisURL == "" {
		logger.Info("result cache disabled")
		return nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := resultcache.Connect(connectCtx, cfg.RedisURL)
	if err != nil {
		logger.Warn("result cache unavailable, continuing without it", slog.Any("error", err))
		return nil
	}
	logger.Info("result cache enabled", slog.Duration("ttl", cfg.CacheTTL))
	return resultcache.NewRedisCache(client, cfg.CacheTTL)
}

func initDatabase(ctx context.Context, logger *slog.Logger, cfg *config.ServerConfig) *sql.DB {
	if cfg.DatabaseURL == "" {
		logger.Info("summary history disabled: DATABASE_URL is not set")
		return nil
	}
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("summary history disabled", slog.Any("error", err))
		return nil
	}
	if err := db.MigrateUp(database); err != nil {
		logger.Warn("summary history disabled: migration failed", slog.Any("error", err))
		_ = database.Close()
		return nil
	}
	return database
}

func initAdmin(logger *slog.Logger, cfg *config.ServerConfig, deps *hhttp.Deps) error {
	if !cfg.AdminEnabled() {
		return nil
	}
	provider, err := authservice.NewAdminProvider(cfg.AdminUser, cfg.AdminUserPassword)
	if err != nil {
		return err
	}
	deps.Auth = authservice.NewAuthService(provider)
	deps.Issuer = auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	logger.Info("admin endpoints enabled", slog.Duration("token_expiry", cfg.JWTExpiry))
	return nil
}

func initRateLimiter(ctx context.Context, logger *slog.Logger, cfg *config.ServerConfig, deps *hhttp.Deps) error {
	if !cfg.EnableRateLimiting {
		logger.Warn("rate limiting is DISABLED - not recommended for production")
		return nil
	}
	trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, middleware.NewIPExtractor(trusted))
	limiter.StartCleanup(ctx, 5*time.Minute)
	deps.RateLimiter = limiter

	logger.Info("rate limiting enabled",
		slog.Int("per_minute", cfg.RateLimitPerMinute),
		slog.Int("trusted_proxies", len(trusted)))
	return nil
}

func serve(ctx context.Context, logger *slog.Logger, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("api server stopped")
	return nil
}

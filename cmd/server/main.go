// Package main is the entrypoint for the credgate API server.
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

	"github.com/common-nighthawk/go-figure"
	"github.com/kiranshivaraju/credgate/internal/api"
	"github.com/kiranshivaraju/credgate/internal/api/handler"
	mw "github.com/kiranshivaraju/credgate/internal/api/middleware"
	"github.com/kiranshivaraju/credgate/internal/api/response"
	"github.com/kiranshivaraju/credgate/internal/apikey"
	"github.com/kiranshivaraju/credgate/internal/config"
	"github.com/kiranshivaraju/credgate/internal/oauth"
	"github.com/kiranshivaraju/credgate/internal/rates"
	"github.com/kiranshivaraju/credgate/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	appName         = "credgate"
	shutdownTimeout = 30 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger

	if err := run(); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := configureLogging(cfg.Log); err != nil {
		return err
	}
	if cfg.Server.Banner {
		fmt.Fprintln(os.Stderr, figure.NewFigure(appName, "cybermedium", true).String())
	}
	log.Info().Str("env", cfg.Server.Env).Str("store", cfg.Store.Driver).Msg("config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the persistence backend
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Resolve the upstream token endpoint
	tokenURL, err := oauth.ResolveTokenURL(ctx, cfg.OAuth.TokenURL, cfg.OAuth.IssuerURL)
	if err != nil {
		return fmt.Errorf("resolve token endpoint: %w", err)
	}
	log.Info().Str("token_url", tokenURL).Msg("token endpoint resolved")

	// 4. Build services
	issuer := apikey.NewIssuer(st, apikey.WithLifetime(cfg.APIKey.Lifetime))
	exchanger := oauth.NewExchanger(tokenURL, nil, cfg.OAuth.Timeout)
	rateClient := rates.NewHTTPClient(cfg.Rates.BaseURL, cfg.Rates.Timeout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 5. Build router with dependencies
	router := api.NewRouter(api.Dependencies{
		Metrics: mw.NewMetrics(reg),

		HealthHandler:       healthHandler(st),
		CreateAPIKeyHandler: handler.NewCreateAPIKeyHandler(issuer),
		TokenHandler:        handler.NewTokenHandler(exchanger),
		ConvertHandler:      handler.NewConvertHandler(rateClient),
		MetricsHandler:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	// 6. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("server stopped gracefully")
	return nil
}

func configureLogging(cfg config.LogConfig) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

// openStore connects the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case "redis":
		rs, err := store.NewRedisStore(cfg.Redis.URL, cfg.Redis.KeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info().Msg("redis connected")
		return rs, func() { rs.Close() }, nil

	default:
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		log.Info().Msg("database connected")

		if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info().Msg("database migrations applied")
		return store.NewPostgresStore(pool), pool.Close, nil
	}
}

// healthHandler checks store connectivity.
func healthHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"store": "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("store ping failed")
			checks["store"] = "degraded"
		}

		if checks["store"] != "ok" {
			response.Status(w, http.StatusServiceUnavailable, map[string]any{
				"status":   "degraded",
				"services": checks,
			})
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}

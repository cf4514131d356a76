package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fluentnow/fluentnow-api/internal/api"
	"github.com/fluentnow/fluentnow-api/internal/cache"
	"github.com/fluentnow/fluentnow-api/internal/config"
	"github.com/fluentnow/fluentnow-api/internal/logging"
	"github.com/fluentnow/fluentnow-api/internal/speech"
	"github.com/fluentnow/fluentnow-api/internal/tts"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run returns after logging any fatal error, so deferred cleanup (log file,
// Redis client) always happens before the process exits.
func run() error {
	envFile := os.Getenv("FLUENTNOW_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		return err
	}
	defer logCloser.Close()

	// The upstream credential must be present before we accept traffic.
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return err
	}

	provider, err := tts.NewProvider(cfg.TTS)
	if err != nil {
		slog.Error("failed to create tts provider", "error", err)
		return err
	}

	opts := speech.Options{AccentVoices: cfg.TTS.AccentVoices}

	var rdb *redis.Client
	if cfg.Cache.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis unavailable, audio cache will miss until it recovers", "error", err)
		}
		cancel()
		defer rdb.Close()

		opts.Cache = cache.NewCache(rdb, "fluentnow:audio:")
		opts.CacheTTL = cfg.Cache.TTL
	}

	svc := speech.NewService(provider, opts)
	router := api.NewRouter(cfg, svc, rdb)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "tts_backend", provider.Name(), "cache", cfg.Cache.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		slog.Error("server error", "error", err)
		return err
	case <-quit:
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

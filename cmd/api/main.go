package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bryanwahyu/homefix-vision/internal/application"
	appdiag "github.com/bryanwahyu/homefix-vision/internal/application/diagnosis"
	"github.com/bryanwahyu/homefix-vision/internal/config"
	"github.com/bryanwahyu/homefix-vision/internal/infra/httpserver"
	"github.com/bryanwahyu/homefix-vision/internal/logger"
	"github.com/bryanwahyu/homefix-vision/internal/middleware"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", logger.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	deps, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	metrics := middleware.NewMetrics()
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	go limiter.Run(ctx.Done())

	svc := &appdiag.Service{
		Gateway:  deps.gateway,
		Provider: cfg.AI.Provider,
		Model:    deps.model,
		Audit:    deps.audit,
		Archive:  deps.archive,
		Observer: metrics,
		Clock:    application.SystemClock{},
		Logger:   log,
	}

	handler := httpserver.NewRouter(httpserver.Options{
		Analyzer:     svc,
		Tutorials:    deps.tutorials,
		TutorialsMax: cfg.YouTube.MaxResults,
		Metrics:      metrics,
		RateLimiter:  limiter,
		APIKeys:      middleware.KeysFromList(cfg.Auth.APIKeys),
		CORSOrigins:  cfg.CORS.AllowedOrigins,
		Checkers:     deps.checkers,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr, "provider", cfg.AI.Provider, "model", deps.model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.Log.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := *logger.DefaultOptions
	opts.Level = level
	opts.NoColor = strings.TrimSpace(cfg.Log.NoColor) != ""
	return slog.New(logger.NewHandler(os.Stdout, &opts))
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datalumen/lumen/internal/api"
	"github.com/datalumen/lumen/internal/config"
	"github.com/datalumen/lumen/internal/database"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	router := api.NewRouter(logger, &api.Dependencies{
		DB:     pool,
		Config: cfg,
	})
	router.Setup()

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("starting server",
		slog.String("addr", addr),
		slog.String("environment", cfg.Environment),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	// Stop workers and drain in-flight requests, but never hang the process.
	done := make(chan error, 1)
	go func() {
		done <- router.Shutdown()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(shutdownGrace):
		logger.Warn("shutdown grace period elapsed, exiting")
	}

	logger.Info("server stopped")
	return nil
}

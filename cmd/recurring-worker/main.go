package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"outlay/internal/config"
	applog "outlay/internal/log"
	"outlay/internal/services"
	"outlay/internal/storage"
	"outlay/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.Setup(os.Getenv("LOG_LEVEL"), "recurring-worker")
	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	generator := services.NewGenerator(repo, repo)
	recurring := worker.NewRecurringWorker(repo, generator, cfg.RecurringInterval)

	logger.Info("Recurring expense worker configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := recurring.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Recurring worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Recurring-worker shutdown complete")
}

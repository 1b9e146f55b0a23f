package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"outlay/internal/amqp"
	"outlay/internal/config"
	"outlay/internal/export"
	exportgoogle "outlay/internal/export/google"
	exportmemory "outlay/internal/export/memory"
	applog "outlay/internal/log"
	"outlay/internal/storage"
	"outlay/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.Setup(os.Getenv("LOG_LEVEL"), "sync-worker")
	logger.Info("Starting sync-worker")

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var appender export.ExpenseAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := exportgoogle.NewClient(ctx, exportgoogle.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets export initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		// Still marks expenses synced, so only use this to soak-test
		// the pipeline without a real spreadsheet.
		appender = exportmemory.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID configured - exporting to in-memory appender")
	}

	syncWorker := worker.NewSyncWorker(repo, appender, cfg.SyncBatchSize)

	// Recover anything missed while the worker was down.
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeExpenseEvents(ctx, func(msg *amqp.ExpenseEventMessage) error {
				return syncWorker.HandleEvent(ctx, msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		logger.Info("Consuming expense events", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - relying on periodic sweeps only")
	}

	// Periodic sweep for events lost between publisher and queue.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := syncWorker.StartupSyncCheck(ctx); err != nil {
					logger.Error("Periodic sync failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Sync worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Sync-worker shutdown complete")
}

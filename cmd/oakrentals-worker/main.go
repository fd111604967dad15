package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yabdulhakim1/oakRentalsFin/internal/amqp"
	"github.com/yabdulhakim1/oakRentalsFin/internal/config"
	"github.com/yabdulhakim1/oakRentalsFin/internal/export"
	gsheet "github.com/yabdulhakim1/oakRentalsFin/internal/export/google"
	memexport "github.com/yabdulhakim1/oakRentalsFin/internal/export/memory"
	"github.com/yabdulhakim1/oakRentalsFin/internal/storage"
	"github.com/yabdulhakim1/oakRentalsFin/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting oakrentals-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker reads the same ledger the API server writes.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Dashboard destination (optional). Without a spreadsheet ID the
	// worker still runs, writing reports to an in-memory sink so the
	// export path stays exercised in local setups.
	var writer export.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = sheetsClient
		logger.Info("Google Sheets report writer initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memexport.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, reports kept in memory")
	}

	// AMQP consumer is optional; the periodic refresh covers its absence.
	var consumer worker.ChangeConsumer
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		consumer = amqpClient
		logger.Info("AMQP consumer initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - relying on periodic report refresh only")
	}

	reportWorker := worker.NewReportWorker(repo, writer, cfg.ReportInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On startup, publish a fresh report before waiting for changes.
	if err := reportWorker.ExportOnce(ctx); err != nil {
		logger.Error("Startup report export failed", "error", err)
		// Don't exit - continue with normal operation
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	if err := reportWorker.Run(ctx, consumer); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

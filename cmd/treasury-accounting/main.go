package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/eqty-dao/treasury/internal/config"
	"github.com/eqty-dao/treasury/internal/moneybird"
	"github.com/eqty-dao/treasury/internal/publish"
	"github.com/eqty-dao/treasury/internal/services"
	"github.com/eqty-dao/treasury/internal/sheets"
	gsheet "github.com/eqty-dao/treasury/internal/sheets/google"
	"github.com/eqty-dao/treasury/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting treasury-accounting")

	cfg := config.Load()
	if err := cfg.ValidateAccounting(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	journal, err := storage.NewRunStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open run journal", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer journal.Close()

	// The notifier is optional; a nil notifier drops events.
	var notifier *publish.Notifier
	if cfg.AMQPURL != "" {
		notifier, err = publish.NewNotifier(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP notifier", "error", err)
			os.Exit(1)
		}
		defer notifier.Close()
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	// The spreadsheet mirror is optional too.
	var mirror sheets.MonthlyWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	source := moneybird.NewClient(cfg.MoneybirdBaseURL, cfg.MoneybirdAPIToken, cfg.MoneybirdAdministrationID, nil)
	writer := publish.NewWriter(cfg.OutputDir)

	exporter := services.NewAccountingExporter(source, writer, notifier, journal, services.AccountingOptions{
		AdministrationID:   cfg.MoneybirdAdministrationID,
		FinancialAccountID: cfg.MoneybirdFinancialAccountID,
		Year:               cfg.ReportYear,
		Mirror:             mirror,
	})

	if err := exporter.Run(ctx); err != nil {
		logger.Error("Accounting export failed", "error", err)
		os.Exit(1)
	}
}

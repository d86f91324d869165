package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"contas/internal/config"
	"contas/internal/export"
	applog "contas/internal/log"
	"contas/internal/storage"
)

// One-shot export of a month's ledger summary to Google Sheets, meant to
// run from cron.
func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent("contas-export")
	applog.SetDefault(logger)

	var (
		userID = flag.String("user", "", "user whose ledger to export")
		year   = flag.Int("year", time.Now().UTC().Year(), "year to export")
		month  = flag.Int("month", int(time.Now().UTC().Month()), "month to export (1-12)")
	)
	flag.Parse()

	if *userID == "" {
		logger.Error("Missing -user flag")
		os.Exit(2)
	}
	if *month < 1 || *month > 12 {
		logger.Error("Invalid month", "month", *month)
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("Missing GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	exporter, err := export.NewSheetsExporter(ctx, export.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Sheets exporter", "error", err)
		os.Exit(1)
	}

	txs, err := repo.ListTransactions(ctx, *userID, storage.TransactionFilters{Year: *year, Month: time.Month(*month)})
	if err != nil {
		logger.Error("Failed to load transactions", "error", err)
		os.Exit(1)
	}

	summary := export.Summarize(txs, *year, time.Month(*month))
	if err := exporter.ExportMonth(ctx, summary); err != nil {
		logger.Error("Export failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Export complete",
		"user", *userID,
		"year", *year,
		"month", *month,
		"income", summary.Income.Units(),
		"expenses", summary.Expenses.Units())
}

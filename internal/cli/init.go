// Package cli provides the process bootstrap helpers used by cmd/expenses.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/config"
	"expenses/internal/export"
	applog "expenses/internal/log"
	"expenses/internal/ports"
	gsheet "expenses/internal/sheets/google"
)

// LoadEnvFile loads a .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// SetupLogger builds the application logger from cfg and installs it as the
// default. Records go to stderr unless LOG_FILE is set; the returned func
// closes that file.
func SetupLogger(cfg *config.Config, stderr io.Writer) (*applog.Logger, func() error, error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	out := stderr
	closeFn := func() error { return nil }
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = f.Close
	}

	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Output:    out,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger, closeFn, nil
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitStore opens the configured store.
func InitStore(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, bcfg)
}

// InitEventPublisher connects to the broker when AMQP is configured. A
// failed connection is logged and the tracker runs without events.
func InitEventPublisher(logger *applog.Logger, cfg *config.Config) ports.EventPublisher {
	if !cfg.AMQPEnabled() {
		return nil
	}
	logger = logger.WithComponent(applog.ComponentAMQP)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		return nil
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}

// InitExporters returns the CSV exporter plus the Google Sheets exporter
// when a spreadsheet is configured. Sheets failures are logged and skipped.
func InitExporters(ctx context.Context, logger *applog.Logger, cfg *config.Config) []ports.ExpenseExporter {
	exporters := []ports.ExpenseExporter{export.CSVFile{Dir: cfg.ExportDir}}
	if !cfg.SheetsEnabled() {
		return exporters
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	creds, err := gsheet.LoadCredentials(cfg.GoogleServiceAccountFile, cfg.GoogleServiceAccountJSON)
	if err != nil {
		logger.Warn("Google Sheets export disabled", applog.FieldError, err)
		return exporters
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, creds)
	if err != nil {
		logger.Warn("Google Sheets export disabled", applog.FieldError, err)
		return exporters
	}
	logger.Info("Initialized Google Sheets export", "sheet", cfg.GoogleSheetName)
	return append(exporters, client)
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"expenses/internal/chart"
	"expenses/internal/cli"
	applog "expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/session"
)

func main() {
	if err := run(context.Background(), os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := cli.SetupLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	res, err := cli.InitStore(ctx, logger, cfg)
	if err != nil {
		logger.LogError(ctx, "Failed to initialize store", err, applog.OpStartup, nil)
		return err
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithExporters(cli.InitExporters(ctx, logger, cfg)...),
	}
	if events := cli.InitEventPublisher(logger, cfg); events != nil {
		opts = append(opts, services.WithEventPublisher(events))
	}
	svc := services.NewExpenseService(res.Store, opts...)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.LogError(ctx, "Failed to release resources", err, applog.OpShutdown, nil)
		}
	}()

	logger.Info("Expense tracker started",
		"backend", cfg.DataBackend,
		"amqp_enabled", cfg.AMQPEnabled(),
		"sheets_enabled", cfg.SheetsEnabled())

	s := session.New(svc, chart.NewTerminal(stdout, cfg.ChartWidth), stdin, stdout,
		session.WithLogger(logger))
	return s.Run(ctx)
}

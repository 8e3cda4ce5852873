package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetcare/internal/amqp"
	"budgetcare/internal/cli"
	"budgetcare/internal/ledger"
	"budgetcare/internal/log"
	"budgetcare/internal/ports"
	"budgetcare/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)

	logger.Info("Starting budgetcare-worker", log.FieldOperation, log.OpStartup)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	var writer ports.LedgerWriter
	if cfg.LedgerEnabled() {
		client, err := ledger.New(ctx, ledger.Config{
			SpreadsheetID: cfg.GoogleSpreadsheetID,
			SheetName:     cfg.LedgerSheetName,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize ledger client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = ledger.NewMemory()
		logger.Info("Ledger disabled - no GOOGLE_SPREADSHEET_ID provided, keeping rows in memory")
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer consumer.Close()

	w := worker.NewLedgerWorker(writer, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, consumer)
	})
	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				m := w.Metrics()
				logger.Info("Ledger worker stats", "processed", m.Processed, "failed", m.Failed, "skipped", m.Skipped)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	m := w.Metrics()
	logger.Info("Worker stopped", "processed", m.Processed, "failed", m.Failed, "skipped", m.Skipped)
}

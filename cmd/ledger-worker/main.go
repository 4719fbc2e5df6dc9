package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"teamfin/internal/amqp"
	"teamfin/internal/backend"
	"teamfin/internal/cli"
	"teamfin/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig("ledger-worker")
	logger.Info("Starting ledger-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the ledger worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	result := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	ledger, err := backend.NewFactory(logger).CreateLedger(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err)
		os.Exit(1)
	}
	if !cfg.LedgerEnabled() {
		logger.Warn("Ledger rows are not persisted outside this process")
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ledgerWorker := worker.NewLedgerWorker(result.Store, ledger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming domain events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		return consumer.ConsumeEvents(gctx, ledgerWorker.HandleEventMessage)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Ledger-worker shutdown complete")
}

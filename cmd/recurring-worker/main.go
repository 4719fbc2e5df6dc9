package main

import (
	"os"
	"time"

	"teamfin/internal/cli"
	"teamfin/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig("recurring-worker")
	logger.Info("Starting recurring-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backend := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := backend.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	amount, err := cfg.RecurringAmount()
	if err != nil {
		logger.Error("Invalid recurring amount", "error", err)
		os.Exit(1)
	}
	if amount.IsZero() {
		logger.Warn("RECURRING_DEFAULT_AMOUNT is zero, generated contributions will be free")
	}

	processor := services.NewRecurringProcessor(services.Deps{
		Store:     backend.Store,
		Publisher: backend.Publisher,
	}, amount)

	interval := cfg.RecurringInterval
	logger.Info("Recurring contribution processor configured",
		"interval", interval,
		"amount", amount.Format(),
		"backend", cfg.DataBackend)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Running initial recurring contribution processing...")
	if count, err := processor.ProcessDueContributions(ctx, time.Now().UTC()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "contributions_created", count)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring-worker shutdown complete")
			return
		case now := <-ticker.C:
			count, err := processor.ProcessDueContributions(ctx, now.UTC())
			if err != nil {
				logger.Error("Periodic processing failed", "error", err)
				continue
			}
			logger.Info("Periodic processing complete",
				"contributions_created", count,
				"next_check", now.Add(interval).Format("15:04:05"))
		}
	}
}

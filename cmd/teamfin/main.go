package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"teamfin/internal/cli"
	apphttp "teamfin/internal/http"
	applog "teamfin/internal/log"
	"teamfin/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig("api")
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

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
	currency, err := cfg.Currency()
	if err != nil {
		logger.Error("Invalid default currency", "error", err, "currency", cfg.DefaultCurrency)
		os.Exit(1)
	}

	deps := services.Deps{Store: backend.Store, Publisher: backend.Publisher}
	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		JWTSecret:          cfg.JWTSecret,
		JWTTTL:             cfg.JWTTTL,
		DefaultCurrency:    currency,
		Logger:             applog.FromContext(ctx).WithComponent("api"),
	}, deps, apphttp.NewServices(deps, amount))

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, the API is unauthenticated")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting teamfin server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

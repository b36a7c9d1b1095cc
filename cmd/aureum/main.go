package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"aureum/internal/amqp"
	"aureum/internal/auth"
	"aureum/internal/cache"
	"aureum/internal/cli"
	apphttp "aureum/internal/http"
	applog "aureum/internal/log"
	"aureum/internal/services"
)

const (
	reportCacheSize  = 1000
	maintenanceEvery = time.Minute
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	store := cli.OpenStore(ctx, logger, cfg)
	defer store.Close()

	tokens, err := auth.NewTokenIssuer(cfg.SecretKey, cfg.AccessTokenTTL)
	if err != nil {
		logger.Error("Failed to create token issuer", "error", err)
		os.Exit(1)
	}

	// Events are optional; an unset AMQP_URL leaves the publisher nil.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		events = client
		logger.Info("Transaction events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP_URL not set, transaction events disabled")
	}

	if cfg.SeedDemo {
		if seeded, err := services.SeedDemo(ctx, store, time.Now()); err != nil {
			logger.Error("Failed to seed demo data", "error", err)
			os.Exit(1)
		} else if seeded {
			logger.Info("Demo user created", "email", services.DemoEmail)
		}
	}

	reports := cache.NewLRU[any](reportCacheSize, cfg.ReportCacheTTL)
	janitor := cache.NewJanitor(logger.WithComponent(applog.ComponentCache).Logger, reports)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           cfg.Addr(),
		AppName:        cfg.AppName,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		Logger:         logger.WithComponent(applog.ComponentHTTP),
	},
		services.NewAccountService(store, tokens),
		services.NewLedgerService(store, reports, events),
		store,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "addr", srv.Addr, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return srv.RateLimiter().Run(gctx, maintenanceEvery)
	})
	g.Go(func() error {
		janitor.Run(gctx, maintenanceEvery)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

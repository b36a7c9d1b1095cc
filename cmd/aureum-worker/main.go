package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"aureum/internal/amqp"
	"aureum/internal/backend"
	"aureum/internal/cli"
	"aureum/internal/config"
	applog "aureum/internal/log"
	"aureum/internal/sheets"
	"aureum/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting aureum-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	store := cli.OpenStore(ctx, logger, cfg)
	defer store.Close()

	mirror, err := openMirror(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize transaction mirror", "error", err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewMirrorWorker(store, mirror)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeTransactionEvents(gctx, w.Handle)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func openMirror(ctx context.Context, logger *applog.Logger, cfg *config.Config) (sheets.TransactionMirror, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger.WithComponent(applog.ComponentSheets).Logger).CreateMirror(ctx, bcfg)
}

package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"opsdesk/internal/amqp"
	"opsdesk/internal/cli"
	"opsdesk/internal/config"
	applog "opsdesk/internal/log"
	"opsdesk/internal/worker"
)

const housekeepingInterval = 15 * time.Minute

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig((*config.Config).ValidateWorker)
	logger = logger.WithComponent(applog.ComponentWorker)
	logger.Info("Starting audit worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	w := worker.NewAuditWorker(repo, logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, client)
	})
	g.Go(func() error {
		w.RunHousekeeping(gctx, housekeepingInterval)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Audit worker stopped", applog.FieldError, err.Error())
		os.Exit(1)
	}

	if ctx.Err() != nil {
		cli.WaitForShutdown(ctx, done)
	}
	stored, duplicates := w.Stats()
	logger.Info("Audit worker stopped", "stored", stored, "duplicates", duplicates)
}

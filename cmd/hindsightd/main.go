package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hindsight/internal/catalog"
	"hindsight/internal/config"
	"hindsight/internal/daemon"
	"hindsight/internal/logging"
	"hindsight/internal/preflight"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	results := preflight.RunAll(ctx, cfg)
	for _, result := range results {
		if !result.Passed {
			logger.Warn("preflight check failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
		}
	}
	if preflight.AllPassed(results) {
		logger.Info("preflight checks passed", logging.Int("checks", len(results)))
	}

	store, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open clip catalog", logging.Error(err))
		os.Exit(1)
	}

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("hindsightd shutting down")
}

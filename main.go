// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soothill/tariff-engine/app"
	"github.com/soothill/tariff-engine/config"
	"github.com/soothill/tariff-engine/octopus"
	"github.com/soothill/tariff-engine/pkg/interfaces"
	"github.com/soothill/tariff-engine/pkg/logger"
	"github.com/soothill/tariff-engine/storage"
	"github.com/soothill/tariff-engine/tariff"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	validateOnly := flag.Bool("validate-config", false, "Validate configuration and exit")
	flag.Parse()

	if *validateOnly {
		if err := config.ValidateWithSchema(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration is valid")
		return
	}

	if err := config.ValidateWithSchema(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(cfg.Logging.Level)
	logger.Info().Str("config", *configPath).Msg("Starting tariff engine")

	if err := run(cfg, *configPath); err != nil {
		logger.Fatal().Err(err).Msg("Tariff engine exited with error")
	}
}

func run(cfg *config.Config, configPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := octopus.New(octopus.Config{
		APIKey:       cfg.Octopus.APIKey,
		AccountID:    cfg.Octopus.AccountID,
		Mpan:         cfg.Octopus.Mpan,
		SerialNumber: cfg.Octopus.SerialNumber,
	})
	if err != nil {
		return fmt.Errorf("octopus client: %w", err)
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("calculation store: %w", err)
	}

	engine := tariff.NewEngine(client, client)
	cache := storage.NewCalculationCache(store)
	service := app.NewService(engine, cache, client, client, cfg.Billing.Day)
	server := app.NewServer(service, cfg.Server.Port)

	// Hot reload applies the settings that are safe to change live;
	// credential and cache-directory changes still need a restart.
	watcher := config.NewWatcher(configPath, func(newCfg *config.Config) {
		logger.Initialize(newCfg.Logging.Level)
		service.SetBillingDay(newCfg.Billing.Day)
		logger.Info().
			Str("level", newCfg.Logging.Level).
			Int("billing_day", newCfg.Billing.Day).
			Msg("Applied reloaded configuration")
	})
	watcher.Start(ctx)
	defer watcher.Stop()

	setupDebugSignals(ctx, store)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("Shutdown complete")
	return nil
}

func buildStore(cfg *config.Config) (interfaces.CalculationStore, error) {
	if cfg.Cache.InMemory {
		return storage.NewMemoryStore(), nil
	}
	return storage.NewFileStore(cfg.Cache.Directory)
}

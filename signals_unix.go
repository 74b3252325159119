// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

//go:build !windows

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/soothill/tariff-engine/pkg/interfaces"
	"github.com/soothill/tariff-engine/pkg/logger"
)

// setupDebugSignals dumps cache statistics on SIGUSR1.
func setupDebugSignals(ctx context.Context, store interfaces.CalculationStore) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1)

	go func() {
		for {
			select {
			case <-ctx.Done():
				signal.Stop(sigChan)
				return
			case <-sigChan:
				logger.Info().Int("cached_entries", store.Len()).Msg("Cache statistics")
			}
		}
	}()
}

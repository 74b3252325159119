// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

//go:build windows

package main

import (
	"context"

	"github.com/soothill/tariff-engine/pkg/interfaces"
)

// setupDebugSignals is a no-op on Windows, which has no SIGUSR1.
func setupDebugSignals(ctx context.Context, store interfaces.CalculationStore) {
}

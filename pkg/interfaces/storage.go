// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package interfaces defines abstract interfaces for core system
// components. This package promotes loose coupling and testability by
// allowing dependency injection and easy mocking in tests.
package interfaces

import (
	"context"
	"fmt"
	"time"

	"github.com/soothill/tariff-engine/tariff"
)

// Key identifies a cached period calculation. Cache keys always carry
// the nominal period bounds, even when the computation behind them was
// clamped to the available data coverage.
type Key struct {
	TariffCode  string
	Interval    tariff.Interval
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// String renders the key in a stable, filesystem-safe form.
func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%s_%s",
		k.TariffCode, k.Interval,
		k.PeriodStart.UTC().Format("20060102T150405Z"),
		k.PeriodEnd.UTC().Format("20060102T150405Z"))
}

// Entry is a persisted period calculation.
type Entry struct {
	TariffCode  string             `json:"tariff_code"`
	Interval    tariff.Interval    `json:"interval"`
	Calculation tariff.Calculation `json:"calculation"`
	ComputedAt  time.Time          `json:"computed_at"`
}

// CalculationStore defines the persistence contract for period
// calculations: exact-match get/put by composite key. Entries are never
// mutated in place; a put for an existing key supersedes the old entry.
type CalculationStore interface {
	// Get retrieves the entry for key, or nil if absent.
	Get(ctx context.Context, key Key) (*Entry, error)

	// Put persists the entry under key, overwriting any previous entry.
	Put(ctx context.Context, key Key, entry *Entry) error

	// Len returns the number of persisted entries.
	Len() int
}

// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package storage

import (
	"context"
	"time"

	"github.com/soothill/tariff-engine/pkg/interfaces"
	"github.com/soothill/tariff-engine/pkg/logger"
	"github.com/soothill/tariff-engine/pkg/metrics"
	"github.com/soothill/tariff-engine/tariff"
	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces a period calculation on a cache miss.
type ComputeFunc func(ctx context.Context) (*tariff.Calculation, error)

// CalculationCache wraps a CalculationStore with get-or-compute
// semantics. A period counts as closed once the consumption data
// coverage reaches its end; closed periods are served from the store
// and computed at most once. A period the data has not caught up with
// is recomputed on every request and its entry overwritten as more
// consumption arrives. At most one computation is in flight per key:
// concurrent callers for the same key await the single in-flight
// computation instead of duplicating work.
//
// A failed computation never writes an entry, so errors cannot poison
// the cache.
type CalculationCache struct {
	store interfaces.CalculationStore
	group singleflight.Group
}

// NewCalculationCache creates a cache over the given store.
func NewCalculationCache(store interfaces.CalculationStore) *CalculationCache {
	return &CalculationCache{store: store}
}

// Get performs an exact-match lookup without computing anything.
func (c *CalculationCache) Get(ctx context.Context, key interfaces.Key) (*interfaces.Entry, error) {
	return c.store.Get(ctx, key)
}

// GetOrCompute returns the cached calculation for key, or invokes
// compute and persists the result. dataMax is the latest known
// consumption timestamp: the period is closed, and its cached entry
// reusable, only once dataMax reaches the period end. Entries written
// while the data lagged cover a shorter range and are recomputed when
// the data catches up. now stamps freshly computed entries; force
// bypasses the cached entry (used for explicit refresh).
//
// Cancellation is advisory. The computation runs on the context of the
// caller that started the flight, so cancelling that caller aborts the
// flight for every waiter; a waiter whose own context expires returns
// its context error while the flight carries on for the rest.
func (c *CalculationCache) GetOrCompute(ctx context.Context, key interfaces.Key, now, dataMax time.Time, force bool, compute ComputeFunc) (*tariff.Calculation, error) {
	closed := !key.PeriodEnd.After(dataMax)

	if closed && !force {
		entry, err := c.store.Get(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Str("key", key.String()).Msg("Cache read failed, recomputing")
		} else if entry != nil && coversPeriod(entry, key) {
			metrics.CacheHits.Inc()
			return &entry.Calculation, nil
		}
	}
	metrics.CacheMisses.Inc()

	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.computeAndStore(ctx, key, now, closed, force, compute)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*tariff.Calculation), nil
	}
}

func (c *CalculationCache) computeAndStore(ctx context.Context, key interfaces.Key, now time.Time, closed, force bool, compute ComputeFunc) (*tariff.Calculation, error) {
	// A flight that lost the race to a just-finished one finds the entry
	// already present; don't compute a closed period twice.
	if closed && !force {
		if entry, err := c.store.Get(ctx, key); err == nil && entry != nil && coversPeriod(entry, key) {
			return &entry.Calculation, nil
		}
	}

	start := time.Now()
	calc, err := compute(ctx)
	metrics.CalculationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CalculationErrors.Inc()
		return nil, err
	}
	metrics.CalculationsTotal.WithLabelValues(string(key.Interval)).Inc()

	entry := &interfaces.Entry{
		TariffCode:  key.TariffCode,
		Interval:    key.Interval,
		Calculation: *calc,
		ComputedAt:  now,
	}
	if err := c.store.Put(ctx, key, entry); err != nil {
		// The calculation itself is good; persistence failure only costs
		// a recompute next time.
		logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to persist calculation entry")
	} else {
		metrics.CacheEntries.Set(float64(c.store.Len()))
	}

	logger.Debug().
		Str("key", key.String()).
		Bool("closed", closed).
		Bool("forced", force).
		Dur("took", time.Since(start)).
		Msg("Computed and cached period calculation")

	return calc, nil
}

// coversPeriod reports whether the stored entry was computed over the
// full nominal period. An entry persisted while consumption data lagged
// carries a shorter calculation range and must not be served as the
// final figure for the period.
func coversPeriod(entry *interfaces.Entry, key interfaces.Key) bool {
	return !entry.Calculation.PeriodEnd.Before(key.PeriodEnd)
}

// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soothill/tariff-engine/pkg/interfaces"
	"github.com/soothill/tariff-engine/tariff"
)

func testKey(tariffCode string, start time.Time) interfaces.Key {
	return interfaces.Key{
		TariffCode:  tariffCode,
		Interval:    tariff.IntervalDaily,
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, 0, 1),
	}
}

func testEntry(key interfaces.Key, costIncVAT float64) *interfaces.Entry {
	return &interfaces.Entry{
		TariffCode: key.TariffCode,
		Interval:   key.Interval,
		Calculation: tariff.Calculation{
			PeriodStart: key.PeriodStart,
			PeriodEnd:   key.PeriodEnd,
			TotalKWh:    24,
			CostIncVAT:  costIncVAT,
		},
		ComputedAt: time.Date(2024, 2, 15, 8, 0, 0, 0, time.UTC),
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key := testKey("E-1R-VAR-22-11-01-C", time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC))
	entry := testEntry(key, 630)

	require.NoError(t, store.Put(context.Background(), key, entry))

	got, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.TariffCode, got.TariffCode)
	assert.Equal(t, entry.Calculation.CostIncVAT, got.Calculation.CostIncVAT)
	assert.True(t, entry.ComputedAt.Equal(got.ComputedAt))
	assert.Equal(t, 1, store.Len())
}

func TestFileStoreMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	got, err := store.Get(context.Background(), testKey("E-1R-VAR-22-11-01-C", time.Now()))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStorePutSupersedes(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key := testKey("E-1R-VAR-22-11-01-C", time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.Put(context.Background(), key, testEntry(key, 100)))
	require.NoError(t, store.Put(context.Background(), key, testEntry(key, 200)))

	got, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 200.0, got.Calculation.CostIncVAT)
	assert.Equal(t, 1, store.Len())
}

func TestFileStoreDistinctKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	day := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	keyA := testKey("E-1R-VAR-22-11-01-C", day)
	keyB := testKey("E-1R-VAR-22-11-01-C", day.AddDate(0, 0, 1))

	require.NoError(t, store.Put(context.Background(), keyA, testEntry(keyA, 100)))
	require.NoError(t, store.Put(context.Background(), keyB, testEntry(keyB, 200)))

	assert.Equal(t, 2, store.Len())

	got, err := store.Get(context.Background(), keyA)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100.0, got.Calculation.CostIncVAT)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	key := testKey("E-1R-VAR-22-11-01-C", time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC))

	got, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Put(context.Background(), key, testEntry(key, 630)))

	got, err = store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 630.0, got.Calculation.CostIncVAT)
	assert.Equal(t, 1, store.Len())
}

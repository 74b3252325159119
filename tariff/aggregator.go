// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package tariff

import (
	"context"
	"sort"
	"time"

	"github.com/soothill/tariff-engine/pkg/logger"
)

// ConsumptionAggregator sums metered consumption over time ranges from a
// ConsumptionSource. It never interpolates: a gap in metering data is a
// gap in the result.
type ConsumptionAggregator struct {
	source ConsumptionSource
}

// NewConsumptionAggregator creates an aggregator over the given source.
func NewConsumptionAggregator(source ConsumptionSource) *ConsumptionAggregator {
	return &ConsumptionAggregator{source: source}
}

// ConsumptionFor returns the consumption records overlapping
// [start, end), ordered by IntervalStart ascending.
func (a *ConsumptionAggregator) ConsumptionFor(ctx context.Context, start, end time.Time) ([]ConsumptionRecord, error) {
	fetched, err := a.source.FetchConsumption(ctx, start, end)
	if err != nil {
		return nil, err
	}

	records := make([]ConsumptionRecord, 0, len(fetched))
	for _, rec := range fetched {
		if rec.IntervalStart.Before(end) && rec.IntervalEnd.After(start) {
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].IntervalStart.Before(records[j].IntervalStart)
	})

	logger.Debug().
		Int("records", len(records)).
		Time("range_start", start).
		Time("range_end", end).
		Msg("Aggregated consumption records")

	return records, nil
}

// Coverage returns the known min/max bounds of available consumption
// data. Callers clamp requested period ends against Coverage.Max to
// calculate partially-covered periods.
func (a *ConsumptionAggregator) Coverage(ctx context.Context) (Coverage, error) {
	return a.source.Coverage(ctx)
}

// TotalKWh sums the consumption across records.
func TotalKWh(records []ConsumptionRecord) float64 {
	var total float64
	for _, rec := range records {
		total += rec.KWh
	}
	return total
}

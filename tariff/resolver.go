// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package tariff

import (
	"context"
	"sort"
	"time"

	apperrors "github.com/soothill/tariff-engine/pkg/errors"
	"github.com/soothill/tariff-engine/pkg/logger"
)

// RateResolver selects the applicable rates for a tariff over a time
// range from a RatesSource.
type RateResolver struct {
	source RatesSource
}

// NewRateResolver creates a resolver over the given source.
func NewRateResolver(source RatesSource) *RateResolver {
	return &RateResolver{source: source}
}

// RatesFor returns the unit rates for tariffCode whose validity windows
// overlap [start, end), ordered by ValidFrom ascending. A tariff with no
// overlapping rates yields ErrNoRatesFound.
func (r *RateResolver) RatesFor(ctx context.Context, tariffCode string, start, end time.Time) ([]Rate, error) {
	fetched, err := r.source.FetchRates(ctx, tariffCode, start, end)
	if err != nil {
		return nil, apperrors.NewRateError("fetch unit rates", tariffCode, err)
	}

	rates := make([]Rate, 0, len(fetched))
	for _, rate := range fetched {
		if rate.Overlaps(start, end) {
			rates = append(rates, rate)
		}
	}

	if len(rates) == 0 {
		return nil, apperrors.NewRateError("resolve unit rates", tariffCode, apperrors.ErrNoRatesFound)
	}

	sort.Slice(rates, func(i, j int) bool {
		return rates[i].ValidFrom.Before(rates[j].ValidFrom)
	})

	logger.Debug().
		Str("tariff_code", tariffCode).
		Int("rates", len(rates)).
		Time("range_start", start).
		Time("range_end", end).
		Msg("Resolved unit rates")

	return rates, nil
}

// LatestStandingCharge returns the standing charge in force at asOf. A
// tariff without a standing charge yields a zero charge, not an error.
func (r *RateResolver) LatestStandingCharge(ctx context.Context, tariffCode string, asOf time.Time) (StandingCharge, error) {
	charge, err := r.source.FetchLatestStandingCharge(ctx, tariffCode, asOf)
	if err != nil {
		return StandingCharge{}, apperrors.NewRateError("fetch standing charge", tariffCode, err)
	}
	return charge, nil
}

// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package tariff

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/soothill/tariff-engine/pkg/errors"
	"github.com/soothill/tariff-engine/pkg/logger"
)

// Engine combines rate resolution and consumption aggregation into a
// single cost/usage summary for a period. It is a pure computation over
// its two read-only collaborators and owns no storage.
type Engine struct {
	rates       *RateResolver
	consumption *ConsumptionAggregator
}

// NewEngine creates an engine over the given data sources.
func NewEngine(rates RatesSource, consumption ConsumptionSource) *Engine {
	return &Engine{
		rates:       NewRateResolver(rates),
		consumption: NewConsumptionAggregator(consumption),
	}
}

// subRange is a slice of the requested period covered by one agreement.
type subRange struct {
	start      time.Time
	end        time.Time
	tariffCode string
}

// Calculate computes the cost/usage summary for the half-open period
// [period.Start, period.End) across the given agreements. The period is
// split at agreement boundaries; each sub-range is costed on its own
// tariff and the results are summed. The calculation is all-or-nothing:
// any sub-range failure fails the whole call so a partial sum can never
// be mistaken for a complete one.
//
// Callers wanting a partially-covered period clamp period.End to the
// consumption coverage max before calling.
func (e *Engine) Calculate(ctx context.Context, period Boundary, agreements []Agreement) (*Calculation, error) {
	if !period.End.After(period.Start) {
		return nil, apperrors.NewCalculationError("calculate", "", period.Start, period.End,
			apperrors.ErrNoConsumptionData)
	}

	subs := splitByAgreements(period.Start, period.End, agreements)
	if len(subs) == 0 {
		return nil, apperrors.NewCalculationError("split agreements", "", period.Start, period.End,
			apperrors.ErrNoRatesFound)
	}

	result := &Calculation{PeriodStart: period.Start, PeriodEnd: period.End}
	totalRecords := 0

	for _, sub := range subs {
		fetched, err := e.consumption.ConsumptionFor(ctx, sub.start, sub.end)
		if err != nil {
			return nil, apperrors.NewCalculationError("fetch consumption", sub.tariffCode, sub.start, sub.end, err)
		}
		records := clipToRange(fetched, sub.start, sub.end)
		totalRecords += len(records)
		subKWh := TotalKWh(records)

		rates, err := e.rates.RatesFor(ctx, sub.tariffCode, sub.start, sub.end)
		if err != nil {
			// A tariff with no rates only fails the calculation when there
			// is consumption to cost against it.
			if !errors.Is(err, apperrors.ErrNoRatesFound) || subKWh > 0 {
				return nil, apperrors.NewCalculationError("resolve rates", sub.tariffCode, sub.start, sub.end, err)
			}
			rates = nil
		}

		for _, rec := range records {
			exc, inc := costForRecord(rec, rates)
			result.CostExcVAT += exc
			result.CostIncVAT += inc
		}
		result.TotalKWh += subKWh

		chargeExc, chargeInc, err := e.standingChargeForRange(ctx, sub)
		if err != nil {
			return nil, apperrors.NewCalculationError("resolve standing charge", sub.tariffCode, sub.start, sub.end, err)
		}
		result.StandingChargeExcVAT += chargeExc
		result.StandingChargeIncVAT += chargeInc
	}

	if totalRecords == 0 {
		return nil, apperrors.NewCalculationError("calculate", subs[0].tariffCode, period.Start, period.End,
			apperrors.ErrNoConsumptionData)
	}

	result.CostExcVAT += result.StandingChargeExcVAT
	result.CostIncVAT += result.StandingChargeIncVAT

	if result.TotalKWh > 0 {
		result.AverageUnitRateExcVAT = (result.CostExcVAT - result.StandingChargeExcVAT) / result.TotalKWh
		result.AverageUnitRateIncVAT = (result.CostIncVAT - result.StandingChargeIncVAT) / result.TotalKWh
	}

	logger.Debug().
		Time("period_start", period.Start).
		Time("period_end", period.End).
		Int("sub_ranges", len(subs)).
		Float64("total_kwh", result.TotalKWh).
		Float64("cost_inc_vat", result.CostIncVAT).
		Msg("Calculated period summary")

	return result, nil
}

// CalculateTariff computes the summary for a single tariff code with no
// agreement history, e.g. a manual or hypothetical tariff.
func (e *Engine) CalculateTariff(ctx context.Context, period Boundary, tariffCode string) (*Calculation, error) {
	return e.Calculate(ctx, period, []Agreement{{TariffCode: tariffCode}})
}

// splitByAgreements slices [start, end) at every agreement boundary that
// falls strictly inside it, pairing each sub-range with its tariff code.
// Parts of the range covered by no agreement are dropped.
func splitByAgreements(start, end time.Time, agreements []Agreement) []subRange {
	var subs []subRange
	for _, ag := range agreements {
		if !ag.Overlaps(start, end) {
			continue
		}
		sub := subRange{start: start, end: end, tariffCode: ag.TariffCode}
		if !ag.ValidFrom.IsZero() && ag.ValidFrom.After(start) {
			sub.start = ag.ValidFrom
		}
		if !ag.ValidTo.IsZero() && ag.ValidTo.Before(end) {
			sub.end = ag.ValidTo
		}
		subs = append(subs, sub)
	}
	// Agreement sources return agreements ordered by ValidFrom, and
	// windows do not overlap, so subs are already ordered.
	return subs
}

// clipToRange clips records to the half-open range [start, end),
// scaling each record's kWh by the clipped fraction of its slot. A slot
// straddling an agreement boundary is thereby costed partly in each
// sub-range instead of being counted twice.
func clipToRange(records []ConsumptionRecord, start, end time.Time) []ConsumptionRecord {
	clipped := make([]ConsumptionRecord, 0, len(records))
	for _, rec := range records {
		slotDuration := rec.IntervalEnd.Sub(rec.IntervalStart)
		if slotDuration <= 0 {
			continue
		}
		clipStart := rec.IntervalStart
		if clipStart.Before(start) {
			clipStart = start
		}
		clipEnd := rec.IntervalEnd
		if clipEnd.After(end) {
			clipEnd = end
		}
		if !clipEnd.After(clipStart) {
			continue
		}
		if clipStart.Equal(rec.IntervalStart) && clipEnd.Equal(rec.IntervalEnd) {
			clipped = append(clipped, rec)
			continue
		}
		clipped = append(clipped, ConsumptionRecord{
			IntervalStart: clipStart,
			IntervalEnd:   clipEnd,
			KWh:           rec.KWh * float64(clipEnd.Sub(clipStart)) / float64(slotDuration),
		})
	}
	return clipped
}

// costForRecord costs one consumption slot against the resolved rates.
// A slot that spans a rate change has its kWh split proportionally by
// overlap duration, each share costed at its own rate. Portions of a
// slot covered by no rate are not charged.
func costForRecord(rec ConsumptionRecord, rates []Rate) (excVAT, incVAT float64) {
	slotDuration := rec.IntervalEnd.Sub(rec.IntervalStart)
	if slotDuration <= 0 {
		return 0, 0
	}

	for _, rate := range rates {
		if !rate.Overlaps(rec.IntervalStart, rec.IntervalEnd) {
			continue
		}
		overlapStart := rec.IntervalStart
		if !rate.ValidFrom.IsZero() && rate.ValidFrom.After(overlapStart) {
			overlapStart = rate.ValidFrom
		}
		overlapEnd := rec.IntervalEnd
		if !rate.ValidTo.IsZero() && rate.ValidTo.Before(overlapEnd) {
			overlapEnd = rate.ValidTo
		}
		share := rec.KWh * float64(overlapEnd.Sub(overlapStart)) / float64(slotDuration)
		excVAT += share * rate.UnitRateExcVAT
		incVAT += share * rate.UnitRateIncVAT
	}
	return excVAT, incVAT
}

// standingChargeForRange applies one daily charge per calendar day of the
// sub-range, each day using the charge in force on that day. A partial
// final day counts as a full day, so proration across agreement
// boundaries happens by day count.
func (e *Engine) standingChargeForRange(ctx context.Context, sub subRange) (excVAT, incVAT float64, err error) {
	loc := sub.start.Location()
	day := time.Date(sub.start.Year(), sub.start.Month(), sub.start.Day(), 0, 0, 0, 0, loc)

	for day.Before(sub.end) {
		asOf := day
		if asOf.Before(sub.start) {
			asOf = sub.start
		}
		charge, chargeErr := e.rates.LatestStandingCharge(ctx, sub.tariffCode, asOf)
		if chargeErr != nil {
			return 0, 0, chargeErr
		}
		excVAT += charge.ExcVAT
		incVAT += charge.IncVAT
		day = day.AddDate(0, 0, 1)
	}
	return excVAT, incVAT, nil
}

// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package tariff implements the tariff cost calculation core: reporting
// interval boundaries, rate resolution, consumption aggregation and the
// calculation engine that combines them into period cost summaries.
//
// All monetary values are pence. Unit rates are pence per kWh, standing
// charges are pence per day. Time ranges are half-open: [start, end).
package tariff

import (
	"context"
	"time"
)

// Interval is the reporting granularity of a cost summary.
type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

// Valid reports whether the interval is one of the supported values.
func (i Interval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly:
		return true
	}
	return false
}

// Rate is a unit rate valid for a window of time on a single tariff.
// A zero ValidFrom means the rate has no lower bound; a zero ValidTo
// means the rate is open-ended.
type Rate struct {
	TariffCode     string    `json:"tariff_code"`
	ValidFrom      time.Time `json:"valid_from"`
	ValidTo        time.Time `json:"valid_to"`
	UnitRateExcVAT float64   `json:"unit_rate_exc_vat"`
	UnitRateIncVAT float64   `json:"unit_rate_inc_vat"`
}

// Overlaps reports whether the rate's validity window intersects the
// half-open range [start, end).
func (r Rate) Overlaps(start, end time.Time) bool {
	return (r.ValidFrom.IsZero() || r.ValidFrom.Before(end)) &&
		(r.ValidTo.IsZero() || r.ValidTo.After(start))
}

// StandingCharge is a daily charge on a tariff. A zero value is valid:
// some tariffs carry no standing charge.
type StandingCharge struct {
	ExcVAT float64 `json:"exc_vat"`
	IncVAT float64 `json:"inc_vat"`
}

// ConsumptionRecord is a metered consumption slot, usually half-hourly.
type ConsumptionRecord struct {
	IntervalStart time.Time `json:"interval_start"`
	IntervalEnd   time.Time `json:"interval_end"`
	KWh           float64   `json:"kwh"`
}

// Agreement binds an account to a tariff for a window of time. Accounts
// that switched tariff carry several non-overlapping agreements. Zero
// ValidFrom/ValidTo mean unbounded.
type Agreement struct {
	TariffCode string    `json:"tariff_code"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidTo    time.Time `json:"valid_to"`
}

// Overlaps reports whether the agreement covers any part of [start, end).
func (a Agreement) Overlaps(start, end time.Time) bool {
	return (a.ValidFrom.IsZero() || a.ValidFrom.Before(end)) &&
		(a.ValidTo.IsZero() || a.ValidTo.After(start))
}

// Coverage describes the span of consumption data known to exist.
type Coverage struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// Calculation is the cost/usage summary for a single period.
type Calculation struct {
	PeriodStart           time.Time `json:"period_start"`
	PeriodEnd             time.Time `json:"period_end"`
	TotalKWh              float64   `json:"total_kwh"`
	CostExcVAT            float64   `json:"cost_exc_vat"`
	CostIncVAT            float64   `json:"cost_inc_vat"`
	AverageUnitRateExcVAT float64   `json:"average_unit_rate_exc_vat"`
	AverageUnitRateIncVAT float64   `json:"average_unit_rate_inc_vat"`
	StandingChargeExcVAT  float64   `json:"standing_charge_exc_vat"`
	StandingChargeIncVAT  float64   `json:"standing_charge_inc_vat"`
}

// RatesSource supplies tariff rates. Implementations are read-only from
// the engine's perspective; ingestion pipelines live elsewhere.
type RatesSource interface {
	// FetchRates returns the unit rates for tariffCode whose validity
	// windows overlap [start, end), in no particular order.
	FetchRates(ctx context.Context, tariffCode string, start, end time.Time) ([]Rate, error)

	// FetchLatestStandingCharge returns the standing charge in force at
	// asOf. Implementations return a zero charge (not an error) when the
	// tariff has none.
	FetchLatestStandingCharge(ctx context.Context, tariffCode string, asOf time.Time) (StandingCharge, error)
}

// ConsumptionSource supplies metered consumption.
type ConsumptionSource interface {
	// FetchConsumption returns the consumption records overlapping
	// [start, end). Gaps in metering data are simply absent records.
	FetchConsumption(ctx context.Context, start, end time.Time) ([]ConsumptionRecord, error)

	// Coverage returns the earliest and latest instants for which
	// consumption data is known to exist.
	Coverage(ctx context.Context) (Coverage, error)
}

// AgreementSource supplies the ordered tariff agreements for an account,
// or a single synthetic agreement for a manual tariff.
type AgreementSource interface {
	Agreements(ctx context.Context) ([]Agreement, error)
}

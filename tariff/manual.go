// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package tariff

import (
	"context"
	"time"
)

// ManualTariff is a synthetic flat-rate tariff, used for hypothetical
// "what would tariff X cost me" calculations that run through the same
// engine as real account tariffs. It acts as both the rates source and
// the agreement source; consumption still comes from the real meter.
type ManualTariff struct {
	Code                 string
	UnitRateExcVAT       float64 // pence per kWh
	UnitRateIncVAT       float64
	StandingChargeExcVAT float64 // pence per day
	StandingChargeIncVAT float64
}

var (
	_ RatesSource     = ManualTariff{}
	_ AgreementSource = ManualTariff{}
)

// FetchRates returns a single open-ended flat rate.
func (m ManualTariff) FetchRates(_ context.Context, _ string, _, _ time.Time) ([]Rate, error) {
	return []Rate{{
		TariffCode:     m.Code,
		UnitRateExcVAT: m.UnitRateExcVAT,
		UnitRateIncVAT: m.UnitRateIncVAT,
	}}, nil
}

// FetchLatestStandingCharge returns the flat daily charge.
func (m ManualTariff) FetchLatestStandingCharge(_ context.Context, _ string, _ time.Time) (StandingCharge, error) {
	return StandingCharge{ExcVAT: m.StandingChargeExcVAT, IncVAT: m.StandingChargeIncVAT}, nil
}

// Agreements returns a single unbounded agreement on the manual tariff.
func (m ManualTariff) Agreements(_ context.Context) ([]Agreement, error) {
	return []Agreement{{TariffCode: m.Code}}, nil
}

// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package octopus implements the tariff data-source interfaces against
// the Octopus Energy REST API.
package octopus

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	httptransport "github.com/go-openapi/runtime/client"
	"github.com/go-openapi/strfmt"
	octoapi "github.com/mgazza/go-octopus-energy/client"
	"github.com/mgazza/go-octopus-energy/client/accounts"
	"github.com/mgazza/go-octopus-energy/client/electricity_meter_points"
	"github.com/mgazza/go-octopus-energy/client/products"
	"github.com/sony/gobreaker"

	"github.com/soothill/tariff-engine/pkg/logger"
	"github.com/soothill/tariff-engine/pkg/metrics"
	"github.com/soothill/tariff-engine/tariff"
)

const (
	ratesPageSize       = 672 // two weeks of half-hour rate slots per page
	consumptionPageSize = 336 // two weeks of half-hour readings per page

	// Standing charges change rarely; a one-year lookback window around
	// the reference time is enough to find the charge in force.
	standingChargeLookback = 365 * 24 * time.Hour

	breakerConsecutiveFailures = 5
	breakerResetTimeout        = 30 * time.Second
)

// Config configures the Octopus API client.
type Config struct {
	APIKey       string
	AccountID    string
	Mpan         string
	SerialNumber string
	Transport    http.RoundTripper // nil means http.DefaultTransport
}

// Client talks to the Octopus Energy REST API and implements
// tariff.RatesSource, tariff.ConsumptionSource and
// tariff.AgreementSource for a single import meter. All calls run
// through a shared circuit breaker so a flapping upstream fails fast
// instead of piling up requests.
type Client struct {
	api       *octoapi.OctopusEnergyRESTAPI
	breaker   *gobreaker.CircuitBreaker
	accountID string
	mpan      string
	serial    string
}

var (
	_ tariff.RatesSource       = (*Client)(nil)
	_ tariff.ConsumptionSource = (*Client)(nil)
	_ tariff.AgreementSource   = (*Client)(nil)
)

// New creates a client with pre-configured basic authentication.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("octopus API key is required")
	}
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("octopus account ID is required")
	}

	rt := cfg.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}

	tc := octoapi.DefaultTransportConfig()
	transport := httptransport.New(tc.Host, tc.BasePath, tc.Schemes)
	transport.Transport = rt
	transport.DefaultAuthentication = httptransport.BasicAuth(cfg.APIKey, "")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "octopus-api",
		Timeout: breakerResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	})

	return &Client{
		api:       octoapi.New(transport, strfmt.Default),
		breaker:   breaker,
		accountID: cfg.AccountID,
		mpan:      cfg.Mpan,
		serial:    cfg.SerialNumber,
	}, nil
}

// execute runs fn through the circuit breaker, recording metrics.
func (c *Client) execute(operation string, fn func() error) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	metrics.UpstreamRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues(operation).Inc()
	}
	return err
}

// Agreements returns the account's import-meter tariff agreements,
// ordered by start time. The first call also learns the meter point's
// MPAN and serial number when they were not configured.
func (c *Client) Agreements(ctx context.Context) ([]tariff.Agreement, error) {
	var result []tariff.Agreement

	err := c.execute("get_account", func() error {
		params := accounts.NewGetAccountParams().
			WithAccountID(c.accountID).
			WithContext(ctx)
		response, err := c.api.Accounts.GetAccount(params, nil)
		if err != nil {
			return fmt.Errorf("failed to fetch account details: %w", err)
		}

		if len(response.Payload.Properties) < 1 {
			return fmt.Errorf("no properties found on account %s", c.accountID)
		}
		property := response.Payload.Properties[0]

		for _, meterPoint := range property.ElectricityMeterPoints {
			if meterPoint.IsExport || len(meterPoint.Meters) < 1 {
				continue
			}
			if c.mpan != "" && meterPoint.Mpan != c.mpan {
				continue
			}

			if c.mpan == "" {
				c.mpan = meterPoint.Mpan
			}
			if c.serial == "" {
				c.serial = meterPoint.Meters[0].SerialNumber
			}

			for _, ag := range meterPoint.Agreements {
				agreement := tariff.Agreement{TariffCode: ag.TariffCode}
				agreement.ValidFrom = time.Time(ag.ValidFrom)
				agreement.ValidTo = time.Time(ag.ValidTo)
				result = append(result, agreement)
			}
			break
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no import meter agreements found on account %s", c.accountID)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ValidFrom.Before(result[j].ValidFrom)
	})

	logger.Debug().Int("agreements", len(result)).Str("mpan", c.mpan).Msg("Fetched account agreements")
	return result, nil
}

// FetchRates returns the standard unit rates for tariffCode overlapping
// [start, end), fetched with pagination.
func (c *Client) FetchRates(ctx context.Context, tariffCode string, start, end time.Time) ([]tariff.Rate, error) {
	var rates []tariff.Rate

	err := c.execute("list_unit_rates", func() error {
		pageSize := int64(ratesPageSize)
		page := int64(1)

		params := products.NewListElectricityTariffStandardUnitRatesParams().
			WithProductCode(ProductCodeFromTariff(tariffCode)).
			WithTariffCode(tariffCode).
			WithPeriodFrom((*strfmt.DateTime)(&start)).
			WithPeriodTo((*strfmt.DateTime)(&end)).
			WithPageSize(&pageSize).
			WithContext(ctx)

		for {
			params.WithPage(&page)
			response, err := c.api.Products.ListElectricityTariffStandardUnitRates(params, nil)
			if err != nil {
				return fmt.Errorf("failed to fetch unit rates: %w", err)
			}

			for _, rate := range response.Payload.Results {
				r := tariff.Rate{
					TariffCode:     tariffCode,
					UnitRateExcVAT: rate.ValueExcVat,
					UnitRateIncVAT: rate.ValueIncVat,
				}
				if rate.ValidFrom != nil {
					r.ValidFrom = time.Time(*rate.ValidFrom)
				}
				if rate.ValidTo != nil {
					r.ValidTo = time.Time(*rate.ValidTo)
				}
				rates = append(rates, r)
			}

			if response.Payload.Next == nil {
				break
			}
			page++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("tariff_code", tariffCode).Int("rates", len(rates)).Msg("Fetched unit rates")
	return rates, nil
}

// FetchLatestStandingCharge returns the standing charge in force at
// asOf, or a zero charge when the tariff has none.
func (c *Client) FetchLatestStandingCharge(ctx context.Context, tariffCode string, asOf time.Time) (tariff.StandingCharge, error) {
	var charge tariff.StandingCharge
	var chargeFrom time.Time
	found := false

	err := c.execute("list_standing_charges", func() error {
		from := asOf.Add(-standingChargeLookback)
		pageSize := int64(ratesPageSize)
		page := int64(1)

		params := products.NewListElectricityTariffStandingChargesParams().
			WithProductCode(ProductCodeFromTariff(tariffCode)).
			WithTariffCode(tariffCode).
			WithPeriodFrom((*strfmt.DateTime)(&from)).
			WithPeriodTo((*strfmt.DateTime)(&asOf)).
			WithPageSize(&pageSize).
			WithContext(ctx)

		for {
			params.WithPage(&page)
			response, err := c.api.Products.ListElectricityTariffStandingCharges(params, nil)
			if err != nil {
				return fmt.Errorf("failed to fetch standing charges: %w", err)
			}

			for _, sc := range response.Payload.Results {
				var validFrom time.Time
				if sc.ValidFrom != nil {
					validFrom = time.Time(*sc.ValidFrom)
				}
				if validFrom.After(asOf) {
					continue
				}
				if !found || validFrom.After(chargeFrom) {
					charge = tariff.StandingCharge{ExcVAT: sc.ValueExcVat, IncVAT: sc.ValueIncVat}
					chargeFrom = validFrom
					found = true
				}
			}

			if response.Payload.Next == nil {
				break
			}
			page++
		}
		return nil
	})
	if err != nil {
		return tariff.StandingCharge{}, err
	}

	// Some tariffs carry no standing charge; the zero value is correct.
	return charge, nil
}

// FetchConsumption returns the meter's half-hourly consumption records
// overlapping [start, end), fetched with pagination.
func (c *Client) FetchConsumption(ctx context.Context, start, end time.Time) ([]tariff.ConsumptionRecord, error) {
	var records []tariff.ConsumptionRecord

	err := c.execute("list_consumption", func() error {
		pageSize := int64(consumptionPageSize)
		page := int64(1)

		params := electricity_meter_points.NewListConsumptionForAnElectricityMeterParams().
			WithMpan(c.mpan).
			WithSerialNumber(c.serial).
			WithPeriodFrom((*strfmt.DateTime)(&start)).
			WithPeriodTo((*strfmt.DateTime)(&end)).
			WithPageSize(&pageSize).
			WithContext(ctx)

		for {
			params.WithPage(&page)
			response, err := c.api.ElectricityMeterPoints.ListConsumptionForAnElectricityMeter(params, nil)
			if err != nil {
				return fmt.Errorf("error querying consumption: %w", err)
			}

			for _, r := range response.Payload.Results {
				rec := tariff.ConsumptionRecord{KWh: r.Consumption}
				if r.IntervalStart != nil {
					rec.IntervalStart = time.Time(*r.IntervalStart).Truncate(30 * time.Minute)
				}
				if r.IntervalEnd != nil {
					rec.IntervalEnd = time.Time(*r.IntervalEnd)
				} else {
					rec.IntervalEnd = rec.IntervalStart.Add(30 * time.Minute)
				}
				records = append(records, rec)
			}

			if response.Payload.Next == nil {
				break
			}
			page++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug().Int("records", len(records)).Msg("Fetched consumption records")
	return records, nil
}

// Coverage returns the earliest and latest instants for which the meter
// has consumption data, each found with a single page-size-one query.
func (c *Client) Coverage(ctx context.Context) (tariff.Coverage, error) {
	var cov tariff.Coverage

	err := c.execute("coverage_bounds", func() error {
		latest, err := c.edgeReading(ctx, "-period")
		if err != nil {
			return err
		}
		earliest, err := c.edgeReading(ctx, "period")
		if err != nil {
			return err
		}
		if latest == nil || earliest == nil {
			return fmt.Errorf("meter %s has no consumption data", c.mpan)
		}
		cov = tariff.Coverage{Min: earliest.IntervalStart, Max: latest.IntervalEnd}
		return nil
	})
	if err != nil {
		return tariff.Coverage{}, err
	}

	logger.Debug().Time("min", cov.Min).Time("max", cov.Max).Msg("Consumption coverage bounds")
	return cov, nil
}

// edgeReading fetches the single first record under the given ordering.
func (c *Client) edgeReading(ctx context.Context, orderBy string) (*tariff.ConsumptionRecord, error) {
	pageSize := int64(1)
	params := electricity_meter_points.NewListConsumptionForAnElectricityMeterParams().
		WithMpan(c.mpan).
		WithSerialNumber(c.serial).
		WithOrderBy(&orderBy).
		WithPageSize(&pageSize).
		WithContext(ctx)

	response, err := c.api.ElectricityMeterPoints.ListConsumptionForAnElectricityMeter(params, nil)
	if err != nil {
		return nil, fmt.Errorf("error querying consumption bounds: %w", err)
	}
	if len(response.Payload.Results) == 0 {
		return nil, nil
	}

	r := response.Payload.Results[0]
	rec := &tariff.ConsumptionRecord{KWh: r.Consumption}
	if r.IntervalStart != nil {
		rec.IntervalStart = time.Time(*r.IntervalStart)
	}
	if r.IntervalEnd != nil {
		rec.IntervalEnd = time.Time(*r.IntervalEnd)
	} else {
		rec.IntervalEnd = rec.IntervalStart.Add(30 * time.Minute)
	}
	return rec, nil
}

// ProductCodeFromTariff derives a product code from a tariff code by
// dropping the energy/register prefix and the regional suffix, e.g.
// "E-1R-VAR-22-11-01-C" becomes "VAR-22-11-01".
func ProductCodeFromTariff(tariffCode string) string {
	parts := strings.Split(tariffCode, "-")
	if len(parts) < 4 {
		return tariffCode
	}
	return strings.Join(parts[2:len(parts)-1], "-")
}

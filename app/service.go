// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package app wires the calculation engine, data sources and cache into
// the service exposed over HTTP.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/soothill/tariff-engine/pkg/errors"
	"github.com/soothill/tariff-engine/pkg/interfaces"
	"github.com/soothill/tariff-engine/pkg/logger"
	"github.com/soothill/tariff-engine/storage"
	"github.com/soothill/tariff-engine/tariff"
	"golang.org/x/time/rate"
)

// refreshPerMinute bounds forced recomputes so a refresh button cannot
// hammer the upstream API.
const refreshPerMinute = 2

// Summary is a period cost summary decorated with presentation fields.
type Summary struct {
	Label      string          `json:"label"`
	Interval   tariff.Interval `json:"interval"`
	TariffCode string          `json:"tariff_code"`

	// Partial is set when the period extends beyond the available
	// consumption data and the figures cover only the known part.
	Partial bool `json:"partial"`

	// Navigation guards for stepping between periods.
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`

	tariff.Calculation
}

// Service answers period summary requests. It owns the reference clock
// and the refresh throttle; everything else is injected.
type Service struct {
	engine         *tariff.Engine
	cache          *storage.CalculationCache
	consumption    tariff.ConsumptionSource
	agreements     tariff.AgreementSource
	refreshLimiter *rate.Limiter
	now            func() time.Time

	mu         sync.RWMutex
	billingDay int
}

// NewService creates the summary service.
func NewService(engine *tariff.Engine, cache *storage.CalculationCache,
	consumption tariff.ConsumptionSource, agreements tariff.AgreementSource, billingDay int) *Service {
	return &Service{
		engine:         engine,
		cache:          cache,
		consumption:    consumption,
		agreements:     agreements,
		billingDay:     billingDay,
		refreshLimiter: rate.NewLimiter(rate.Every(time.Minute/refreshPerMinute), refreshPerMinute),
		now:            time.Now,
	}
}

// SetBillingDay changes the monthly anchor day for subsequent queries,
// applied on configuration reload.
func (s *Service) SetBillingDay(day int) {
	s.mu.Lock()
	s.billingDay = day
	s.mu.Unlock()
}

func (s *Service) currentBillingDay() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.billingDay
}

// SummaryFor returns the cost summary for the reporting interval
// containing date, served from cache when the period is closed.
func (s *Service) SummaryFor(ctx context.Context, date time.Time, interval tariff.Interval) (*Summary, error) {
	return s.summaryFor(ctx, date, interval, false)
}

// Refresh forces a recompute of the period containing date, bypassing
// any cached entry. Calls beyond the throttle budget are rejected with
// ErrRefreshThrottled.
func (s *Service) Refresh(ctx context.Context, date time.Time, interval tariff.Interval) (*Summary, error) {
	if !s.refreshLimiter.Allow() {
		return nil, apperrors.ErrRefreshThrottled
	}
	return s.summaryFor(ctx, date, interval, true)
}

func (s *Service) summaryFor(ctx context.Context, date time.Time, interval tariff.Interval, force bool) (*Summary, error) {
	if !interval.Valid() {
		return nil, apperrors.NewValidationError("interval", string(interval), "unknown reporting interval")
	}

	billingDay := s.currentBillingDay()
	period, err := tariff.ComputeBoundary(date, interval, billingDay)
	if err != nil {
		return nil, err
	}

	coverage, err := s.consumption.Coverage(ctx)
	if err != nil {
		return nil, mapTimeout(err)
	}
	if period.IsAfterData(coverage.Max) {
		return nil, apperrors.NewCalculationError("summary", "", period.Start, period.End,
			apperrors.ErrNoConsumptionData)
	}

	agreements, err := s.agreements.Agreements(ctx)
	if err != nil {
		return nil, mapTimeout(err)
	}

	// A period the data has not caught up with is costed only up to the
	// data we have; the cache key keeps the nominal bounds so the entry
	// is found (and superseded) as more data arrives.
	computePeriod := period
	partial := false
	if coverage.Max.Before(period.End) {
		computePeriod.End = coverage.Max
		partial = true
	}

	key := interfaces.Key{
		TariffCode:  tariffCodeAt(agreements, period.Start),
		Interval:    interval,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
	}

	calc, err := s.cache.GetOrCompute(ctx, key, s.now(), coverage.Max, force, func(ctx context.Context) (*tariff.Calculation, error) {
		return s.engine.Calculate(ctx, computePeriod, agreements)
	})
	if err != nil {
		return nil, mapTimeout(err)
	}

	return &Summary{
		Label:       period.Label(),
		Interval:    interval,
		TariffCode:  key.TariffCode,
		Partial:     partial,
		HasPrevious: s.hasPrevious(period, interval, billingDay, coverage),
		HasNext:     s.hasNext(period, interval, billingDay, coverage),
		Calculation: *calc,
	}, nil
}

// Ready reports whether the upstream data sources are reachable.
func (s *Service) Ready(ctx context.Context) error {
	if _, err := s.consumption.Coverage(ctx); err != nil {
		logger.Warn().Err(err).Msg("Readiness probe failed")
		return err
	}
	return nil
}

// hasPrevious reports whether the period before this one overlaps the
// known data.
func (s *Service) hasPrevious(period tariff.Boundary, interval tariff.Interval, billingDay int, coverage tariff.Coverage) bool {
	prev, err := tariff.ComputeBoundary(period.Start.AddDate(0, 0, -1), interval, billingDay)
	if err != nil {
		return false
	}
	return prev.OverlapsData(coverage.Min, coverage.Max)
}

// hasNext reports whether the period after this one starts within the
// known data. period.End is the start of the next period.
func (s *Service) hasNext(period tariff.Boundary, interval tariff.Interval, billingDay int, coverage tariff.Coverage) bool {
	next, err := tariff.ComputeBoundary(period.End, interval, billingDay)
	if err != nil {
		return false
	}
	return !next.IsAfterData(coverage.Max)
}

// tariffCodeAt returns the code of the agreement in force at t, falling
// back to the last known agreement when t is past the end of the
// history.
func tariffCodeAt(agreements []tariff.Agreement, t time.Time) string {
	for _, ag := range agreements {
		if ag.Overlaps(t, t.Add(time.Nanosecond)) {
			return ag.TariffCode
		}
	}
	if len(agreements) > 0 {
		return agreements[len(agreements)-1].TariffCode
	}
	return ""
}

// mapTimeout translates context deadline expiry into the service-level
// timeout error so callers see one kind regardless of which source
// timed out.
func mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.ErrTimeout
	}
	return err
}

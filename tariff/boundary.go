// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package tariff

import (
	"fmt"
	"time"

	apperrors "github.com/soothill/tariff-engine/pkg/errors"
)

// Boundary is the half-open [Start, End) span of a reporting interval.
type Boundary struct {
	Start time.Time
	End   time.Time
}

// ComputeBoundary returns the boundary of the reporting interval that
// contains date.
//
// Daily boundaries run midnight to midnight in date's location. Weekly
// boundaries run Monday to Monday (ISO weeks). Monthly boundaries are
// anchored on billingDay: if date's day-of-month is on or after the
// anchor the period starts in date's month, otherwise in the previous
// month. An anchor day beyond the length of a month clamps to that
// month's last day.
func ComputeBoundary(date time.Time, interval Interval, billingDay int) (Boundary, error) {
	if billingDay < 1 || billingDay > 31 {
		return Boundary{}, &apperrors.ValidationError{
			Field: "billing_day", Value: billingDay,
			Reason: "must be between 1 and 31",
			Err:    apperrors.ErrInvalidBillingDay,
		}
	}

	loc := date.Location()

	switch interval {
	case IntervalDaily:
		start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
		return Boundary{Start: start, End: start.AddDate(0, 0, 1)}, nil

	case IntervalWeekly:
		start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
		// time.Weekday makes Sunday 0; shift so Monday is 0.
		offset := (int(start.Weekday()) + 6) % 7
		start = start.AddDate(0, 0, -offset)
		return Boundary{Start: start, End: start.AddDate(0, 0, 7)}, nil

	case IntervalMonthly:
		anchor := monthAnchor(date.Year(), date.Month(), billingDay, loc)
		var start time.Time
		if !date.Before(anchor) {
			start = anchor
		} else {
			start = monthAnchor(date.Year(), date.Month()-1, billingDay, loc)
		}
		end := monthAnchor(start.Year(), start.Month()+1, billingDay, loc)
		return Boundary{Start: start, End: end}, nil

	default:
		return Boundary{}, apperrors.NewValidationError("interval", string(interval), "unknown reporting interval")
	}
}

// monthAnchor returns midnight on the anchor day of the given month,
// clamping the day to the month's length. time.Date normalises
// out-of-range months, so callers may pass month-1 or month+1 directly.
func monthAnchor(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Contains reports whether t falls within the boundary, inclusive of
// Start and exclusive of End.
func (b Boundary) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// OverlapsData reports whether the boundary intersects the closed data
// range [minData, maxData]. Used to decide whether navigating to a
// neighbouring period would show anything.
func (b Boundary) OverlapsData(minData, maxData time.Time) bool {
	return !b.Start.After(maxData) && b.End.After(minData)
}

// IsAfterData reports whether the boundary starts beyond the latest
// known data, blocking forward navigation.
func (b Boundary) IsAfterData(maxData time.Time) bool {
	return b.Start.After(maxData)
}

// Label formats the boundary for display. Single-day boundaries render
// as one date; longer spans render as a range, repeating the year only
// when the period crosses a year boundary. The exclusive End is shown
// as the last day included.
func (b Boundary) Label() string {
	lastDay := b.End.AddDate(0, 0, -1)
	if lastDay.Equal(b.Start) || lastDay.Before(b.Start) {
		return b.Start.Format("Mon 2 Jan 2006")
	}
	if b.Start.Year() != lastDay.Year() {
		return fmt.Sprintf("%s – %s", b.Start.Format("2 Jan 2006"), lastDay.Format("2 Jan 2006"))
	}
	return fmt.Sprintf("%s – %s", b.Start.Format("2 Jan"), lastDay.Format("2 Jan 2006"))
}

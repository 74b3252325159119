// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package errors provides structured error types for the tariff engine.
//
// The sentinel errors distinguish the recoverable calculation outcomes
// (no consumption data, no rates) from programmer errors (invalid billing
// day) and transient conditions (timeout). Structured types carry the
// operation and tariff context for logging and inspection with
// errors.Is/errors.As.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for calculation outcomes.
var (
	// ErrNoConsumptionData indicates the requested range has no
	// overlapping consumption records at all. Callers typically render
	// this as an empty state, not a failure.
	ErrNoConsumptionData = errors.New("no consumption data for range")

	// ErrNoRatesFound indicates a tariff code has no rate intervals
	// covering the queried range.
	ErrNoRatesFound = errors.New("no rates found for tariff")

	// ErrTimeout indicates a caller-imposed deadline expired while
	// waiting on a data source.
	ErrTimeout = errors.New("operation timeout")

	// ErrInvalidBillingDay indicates a billing anchor day outside [1, 31].
	ErrInvalidBillingDay = errors.New("invalid billing day")

	// ErrRefreshThrottled indicates a forced recompute was rejected by
	// the refresh rate limiter.
	ErrRefreshThrottled = errors.New("refresh throttled")
)

// RateError represents a failure resolving rates for a tariff.
type RateError struct {
	Op         string // operation being performed (e.g. "fetch unit rates")
	TariffCode string
	Err        error
}

func (e *RateError) Error() string {
	if e.TariffCode != "" {
		return fmt.Sprintf("rates %s (tariff=%s): %v", e.Op, e.TariffCode, e.Err)
	}
	return fmt.Sprintf("rates %s: %v", e.Op, e.Err)
}

func (e *RateError) Unwrap() error {
	return e.Err
}

// NewRateError creates a new rate resolution error.
func NewRateError(op, tariffCode string, err error) *RateError {
	return &RateError{Op: op, TariffCode: tariffCode, Err: err}
}

// IsRateError checks if an error is a RateError.
func IsRateError(err error) bool {
	var re *RateError
	return errors.As(err, &re)
}

// CalculationError represents a failure computing a period summary.
// A calculation is all-or-nothing: the error covers the whole period
// even when only one agreement sub-range failed.
type CalculationError struct {
	Op          string
	TariffCode  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Err         error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculation %s (tariff=%s, period=%s to %s): %v",
		e.Op, e.TariffCode,
		e.PeriodStart.Format(time.RFC3339), e.PeriodEnd.Format(time.RFC3339), e.Err)
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}

// NewCalculationError creates a new calculation error.
func NewCalculationError(op, tariffCode string, start, end time.Time, err error) *CalculationError {
	return &CalculationError{Op: op, TariffCode: tariffCode, PeriodStart: start, PeriodEnd: end, Err: err}
}

// IsCalculationError checks if an error is a CalculationError.
func IsCalculationError(err error) bool {
	var ce *CalculationError
	return errors.As(err, &ce)
}

// StoreError represents a failure reading or writing the calculation
// repository.
type StoreError struct {
	Op  string // operation being performed (e.g. "get", "put")
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s (key=%s): %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new store error.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

// IsStoreError checks if an error is a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// ValidationError represents an invalid input value, rejected at an
// entry point rather than detected mid-calculation.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
	Err    error // underlying sentinel, optional
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field %q with value %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error.
func NewValidationError(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

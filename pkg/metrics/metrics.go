// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package metrics provides Prometheus metrics for the tariff engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CalculationsTotal tracks completed period calculations per interval type
	CalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_calculations_total",
		Help: "Total number of completed period cost calculations",
	}, []string{"interval"})

	// CalculationErrors tracks failed period calculations
	CalculationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_calculation_errors_total",
		Help: "Total number of failed period cost calculations",
	})

	// CalculationDuration tracks how long a period calculation takes
	CalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tariff_calculation_duration_seconds",
		Help:    "Duration of period cost calculations in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// CacheHits tracks calculation cache hits
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_cache_hits_total",
		Help: "Total number of calculation cache hits",
	})

	// CacheMisses tracks calculation cache misses
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_cache_misses_total",
		Help: "Total number of calculation cache misses",
	})

	// CacheEntries tracks the number of persisted calculation entries
	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tariff_cache_entries",
		Help: "Number of persisted calculation cache entries",
	})

	// UpstreamRequestDuration tracks Octopus API request latency per operation
	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tariff_upstream_request_duration_seconds",
		Help:    "Duration of upstream data source requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// UpstreamErrors tracks failed upstream data source requests per operation
	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_upstream_errors_total",
		Help: "Total number of failed upstream data source requests",
	}, []string{"operation"})
)

// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	apperrors "github.com/soothill/tariff-engine/pkg/errors"
	"github.com/soothill/tariff-engine/pkg/logger"
	"github.com/soothill/tariff-engine/tariff"
	"golang.org/x/time/rate"
)

const (
	requestTimeout = 30 * time.Second

	// Overall request budget, independent of the refresh throttle.
	requestsPerSecond = 10
	requestBurst      = 20
)

// Server exposes the summary service over HTTP.
type Server struct {
	service    *Service
	httpServer *http.Server
	limiter    *rate.Limiter
}

// NewServer creates the HTTP server on the given port.
func NewServer(service *Service, port string) *Server {
	s := &Server{
		service: service,
		limiter: rate.NewLimiter(requestsPerSecond, requestBurst),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/summary", s.withLimit(s.handleSummary))
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
	}
	return s
}

// Start runs the server until it fails or Shutdown is called.
func (s *Server) Start() error {
	logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) withLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// handleSummary serves GET /summary?date=YYYY-MM-DD&interval=daily|weekly|monthly.
// date defaults to today, interval to daily. refresh=1 forces a
// recompute of the period.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			writeError(w, apperrors.NewValidationError("date", raw, "expected YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	interval := tariff.IntervalDaily
	if raw := r.URL.Query().Get("interval"); raw != "" {
		interval = tariff.Interval(raw)
	}

	refresh := r.URL.Query().Get("refresh") == "1" || r.URL.Query().Get("refresh") == "true"

	var (
		summary *Summary
		err     error
	)
	if refresh {
		summary, err = s.service.Refresh(ctx, date, interval)
	} else {
		summary, err = s.service.SummaryFor(ctx, date, interval)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.service.Ready(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusForError maps service errors onto HTTP statuses. Empty-data
// outcomes are 404 so clients can render an empty state; timeouts are
// 504 because the upstream, not this service, ran out of time.
func statusForError(err error) int {
	switch {
	case apperrors.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrRefreshThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, apperrors.ErrNoConsumptionData), errors.Is(err, apperrors.ErrNoRatesFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ClassifierCallsTotal counts single classifier calls by photo mode and result.
	ClassifierCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cleanplate",
		Subsystem: "classifier",
		Name:      "calls_total",
		Help:      "Total number of vision classifier calls, labeled by mode and result.",
	}, []string{"mode", "result"})

	// ClassifierCallDurationSeconds is wall time per classifier call.
	ClassifierCallDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cleanplate",
		Subsystem: "classifier",
		Name:      "call_duration_seconds",
		Help:      "Time spent in a single vision classifier call.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"mode"})

	// RetryAttemptsTotal counts attempts made through the retry policy.
	RetryAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cleanplate",
		Subsystem: "reveal",
		Name:      "retry_attempts_total",
		Help:      "Total number of retry-policy attempts, labeled by outcome (success, retry, exhausted).",
	}, []string{"outcome"})

	// RevealsTotal counts finished reveal cycles by result.
	RevealsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cleanplate",
		Subsystem: "reveal",
		Name:      "cycles_total",
		Help:      "Total number of reveal cycles, labeled by result.",
	}, []string{"result"})

	// RevealDurationSeconds is end-to-end time of a reveal cycle.
	RevealDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cleanplate",
		Subsystem: "reveal",
		Name:      "cycle_duration_seconds",
		Help:      "Time from reveal trigger to persisted snapshot.",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	// RoomsAnalyzing is the number of rooms with a reveal in progress.
	RoomsAnalyzing = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cleanplate",
		Subsystem: "reveal",
		Name:      "rooms_analyzing",
		Help:      "Current number of rooms whose reveal cycle is running.",
	})

	// HTTPRequestsTotal counts API requests by route pattern and status code.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cleanplate",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests by method, route pattern and status code.",
	}, []string{"method", "route", "code"})

	// LiveSubscribers is the number of open websocket status subscriptions.
	LiveSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cleanplate",
		Subsystem: "live",
		Name:      "subscribers",
		Help:      "Current number of websocket status subscribers.",
	})
)

// Register registers metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ClassifierCallsTotal,
			ClassifierCallDurationSeconds,
			RetryAttemptsTotal,
			RevealsTotal,
			RevealDurationSeconds,
			RoomsAnalyzing,
			LiveSubscribers,
			HTTPRequestsTotal,
		)
	})
}

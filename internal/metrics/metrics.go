// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

// Package metrics declares the Prometheus instruments for Authwatch and thin
// helpers to record them. Everything registers with the default registry via
// promauto and is exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event store
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_ingested_total",
			Help: "Total number of login events appended to the event store",
		},
		[]string{"outcome"},
	)

	EventsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_evicted_total",
			Help: "Total number of events dropped because the store was at capacity",
		},
	)

	EventStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_store_size",
			Help: "Current number of events retained in the event store",
		},
	)

	// Metrics history
	WindowsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metrics_windows_recorded_total",
			Help: "Total number of per-identity window metrics recorded",
		},
	)

	HistoryIdentities = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metrics_history_identities",
			Help: "Current number of identities with at least one recorded window",
		},
	)

	// Periodic loops
	LoopPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loop_passes_total",
			Help: "Total number of periodic loop passes by loop and result",
		},
		[]string{"loop", "result"}, // result: "success", "error", "panic"
	)

	LoopPassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loop_pass_duration_seconds",
			Help:    "Duration of a single periodic loop pass in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"loop"},
	)

	LoopRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loop_running",
			Help: "Whether a periodic loop is running (1) or stopped (0)",
		},
		[]string{"loop"},
	)

	// Baseline model
	ModelTrainings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baseline_trainings_total",
			Help: "Total number of baseline training attempts",
		},
		[]string{"result"}, // "success", "insufficient_data"
	)

	ModelSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "baseline_training_samples",
			Help: "Number of samples in the active baseline",
		},
	)

	// Detection log
	DetectionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detections_recorded_total",
			Help: "Total number of detection records appended",
		},
		[]string{"suspicious"},
	)

	DetectionLogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "detection_log_size",
			Help: "Current number of detection records retained",
		},
	)

	// Notifications
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of suspicious-identity notifications by notifier and result",
		},
		[]string{"notifier", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordEventIngested counts one appended event. evicted is true when the
// append pushed out the oldest event.
func RecordEventIngested(outcome string, evicted bool, size int) {
	EventsIngested.WithLabelValues(outcome).Inc()
	if evicted {
		EventsEvicted.Inc()
	}
	EventStoreSize.Set(float64(size))
}

// RecordLoopPass records the outcome and duration of one loop pass.
func RecordLoopPass(loop, result string, duration time.Duration) {
	LoopPasses.WithLabelValues(loop, result).Inc()
	LoopPassDuration.WithLabelValues(loop).Observe(duration.Seconds())
}

// SetLoopRunning flips the running gauge for a loop.
func SetLoopRunning(loop string, running bool) {
	v := 0.0
	if running {
		v = 1
	}
	LoopRunning.WithLabelValues(loop).Set(v)
}

// RecordTraining records a training attempt; samples is ignored on failure.
func RecordTraining(err error, samples int) {
	if err != nil {
		ModelTrainings.WithLabelValues("insufficient_data").Inc()
		return
	}
	ModelTrainings.WithLabelValues("success").Inc()
	ModelSamples.Set(float64(samples))
}

// RecordDetection counts one appended detection record.
func RecordDetection(suspicious bool, size int) {
	DetectionsRecorded.WithLabelValues(strconv.FormatBool(suspicious)).Inc()
	DetectionLogSize.Set(float64(size))
}

// RecordNotification counts one notifier delivery attempt.
func RecordNotification(notifier string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	NotificationsSent.WithLabelValues(notifier, result).Inc()
}

// RecordBreakerTransition records a circuit breaker state change. States
// are "closed", "half-open" and "open".
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	var v float64
	switch to {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(v)
}

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

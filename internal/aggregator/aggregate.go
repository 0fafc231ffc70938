// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

// Package aggregator turns raw authentication events into per-identity
// window metrics and keeps a bounded history of them.
package aggregator

import (
	"sort"
	"time"

	"github.com/tomtom215/authwatch/internal/events"
)

// MetricsRecord is the behavior of one identity over one window.
type MetricsRecord struct {
	Identity           string    `json:"identity"`
	WindowStart        time.Time `json:"window_start"`
	WindowEnd          time.Time `json:"window_end"`
	RequestsPerMinute  float64   `json:"requests_per_minute"`
	ErrorRatio         float64   `json:"error_ratio"`
	AvgInterArrivalMs  float64   `json:"avg_inter_arrival_ms"`
	TotalRequests      int       `json:"total_requests"`
	FailedRequests     int       `json:"failed_requests"`
	SuccessfulRequests int       `json:"successful_requests"`
}

// Aggregate computes one MetricsRecord per identity with at least one event
// in [windowStart, windowEnd]. Events outside the window are ignored. A
// non-positive window yields an empty map.
//
// Aggregate is pure: the input slice is not modified and the same input
// always produces the same output.
func Aggregate(evs []events.Event, windowStart, windowEnd time.Time) map[string]MetricsRecord {
	out := make(map[string]MetricsRecord)
	window := windowEnd.Sub(windowStart)
	if window <= 0 {
		return out
	}

	groups := make(map[string][]time.Time)
	failed := make(map[string]int)
	for i := range evs {
		e := &evs[i]
		if e.Timestamp.Before(windowStart) || e.Timestamp.After(windowEnd) {
			continue
		}
		groups[e.Identity] = append(groups[e.Identity], e.Timestamp)
		if e.Failed() {
			failed[e.Identity]++
		}
	}

	minutes := window.Minutes()
	for identity, stamps := range groups {
		total := len(stamps)
		nFailed := failed[identity]
		out[identity] = MetricsRecord{
			Identity:           identity,
			WindowStart:        windowStart,
			WindowEnd:          windowEnd,
			RequestsPerMinute:  float64(total) / minutes,
			ErrorRatio:         ratio(nFailed, total),
			AvgInterArrivalMs:  avgInterArrivalMs(stamps),
			TotalRequests:      total,
			FailedRequests:     nFailed,
			SuccessfulRequests: total - nFailed,
		}
	}
	return out
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// avgInterArrivalMs sorts stamps in place and returns the mean gap between
// consecutive attempts, or 0 for fewer than two.
func avgInterArrivalMs(stamps []time.Time) float64 {
	if len(stamps) < 2 {
		return 0
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	span := stamps[len(stamps)-1].Sub(stamps[0])
	return float64(span) / float64(time.Millisecond) / float64(len(stamps)-1)
}

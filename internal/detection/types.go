// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

// Package detection scores recent window metrics against the baseline,
// keeps the resulting verdicts and notifies external channels about
// suspicious identities.
package detection

import (
	"context"
	"time"

	"github.com/tomtom215/authwatch/internal/aggregator"
)

// TimeRange is a closed interval during which an identity was suspicious.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Record is one detection verdict for one identity.
type Record struct {
	Identity             string                   `json:"identity"`
	Timestamp            time.Time                `json:"timestamp"`
	IsSuspicious         bool                     `json:"is_suspicious"`
	AnomalyScore         float64                  `json:"anomaly_score"`
	Metrics              aggregator.MetricsRecord `json:"metrics"`
	SuspiciousTimeRanges []TimeRange              `json:"suspicious_time_ranges"`
}

// clone returns a deep copy so callers cannot alias log storage.
func (r *Record) clone() Record {
	cp := *r
	cp.SuspiciousTimeRanges = append([]TimeRange(nil), r.SuspiciousTimeRanges...)
	if cp.SuspiciousTimeRanges == nil {
		cp.SuspiciousTimeRanges = []TimeRange{}
	}
	return cp
}

// Filter selects records by detection timestamp. Nil bounds are
// unconstrained; bounds are inclusive.
type Filter struct {
	Start *time.Time
	End   *time.Time
}

func (f *Filter) match(r *Record) bool {
	if f.Start != nil && r.Timestamp.Before(*f.Start) {
		return false
	}
	return f.End == nil || !r.Timestamp.After(*f.End)
}

func (f *Filter) empty() bool {
	return f.Start != nil && f.End != nil && f.Start.After(*f.End)
}

// RunResult summarizes one detection pass.
type RunResult struct {
	Analyzed   int `json:"analyzed"`
	Suspicious int `json:"suspicious"`
}

// Notifier delivers suspicious detection records to an external channel.
type Notifier interface {
	// Send delivers one record.
	Send(ctx context.Context, record *Record) error

	// Name identifies the notifier in logs and metrics.
	Name() string

	// Enabled reports whether the notifier should receive records.
	Enabled() bool
}

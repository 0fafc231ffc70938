// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

// Package events holds the bounded in-memory log of authentication events.
package events

import "time"

// Outcome is the result of one authentication attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one authentication attempt. Events are immutable once appended.
type Event struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Timestamp time.Time `json:"timestamp"`
	Outcome   Outcome   `json:"outcome"`
	Subject   string    `json:"subject,omitempty"`
	LatencyMs float64   `json:"latency_ms"`
}

// Failed reports whether the attempt was rejected.
func (e *Event) Failed() bool {
	return e.Outcome == OutcomeFailure
}

// Filter selects events. Nil bounds and an empty identity are unconstrained;
// bounds are inclusive.
type Filter struct {
	Start    *time.Time
	End      *time.Time
	Identity string
}

// Match reports whether e passes the filter.
func (f *Filter) Match(e *Event) bool {
	if f.Start != nil && e.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && e.Timestamp.After(*f.End) {
		return false
	}
	return f.Identity == "" || e.Identity == f.Identity
}

// Empty reports whether the range is inverted and can match nothing.
func (f *Filter) Empty() bool {
	return f.Start != nil && f.End != nil && f.Start.After(*f.End)
}

// Stats summarizes the events currently retained.
type Stats struct {
	TotalAttempts      int `json:"total_attempts"`
	SuccessfulAttempts int `json:"successful_attempts"`
	FailedAttempts     int `json:"failed_attempts"`
	UniqueIdentities   int `json:"unique_identities"`
}

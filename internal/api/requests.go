// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package api

import "time"

// RecordEventRequest is the body of POST /events.
//
// Fields:
//   - ID: optional caller-supplied event ID (generated when empty)
//   - Identity: the source being tracked, usually a client IP
//   - Outcome: "success" or "failure"
//   - Timestamp: optional RFC3339 time of the attempt (now when omitted)
//   - Subject: optional account name the attempt targeted
//   - LatencyMs: optional observed response time
type RecordEventRequest struct {
	ID        string     `json:"id" validate:"omitempty,max=128"`
	Identity  string     `json:"identity" validate:"required,max=256,identity"`
	Outcome   string     `json:"outcome" validate:"required,oneof=success failure"`
	Timestamp *time.Time `json:"timestamp"`
	Subject   string     `json:"subject" validate:"max=256"`
	LatencyMs float64    `json:"latency_ms" validate:"gte=0"`
}

// DetectionsQuery is the query string of GET /detections. An inverted range
// is accepted and yields an empty list.
type DetectionsQuery struct {
	Start string `json:"start" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	End   string `json:"end" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// SuspiciousQuery is the query string of GET /detections/suspicious.
// Zero selects the default limit.
type SuspiciousQuery struct {
	Limit int `json:"limit" validate:"gte=0,lte=1000"`
}

// IdentityRequest carries an identity taken from a path or query parameter.
type IdentityRequest struct {
	Identity string `json:"identity" validate:"required,max=256,identity"`
}

// MetricsHistoryQuery is the query string of GET /metrics/history.
type MetricsHistoryQuery struct {
	Identity string `json:"identity" validate:"omitempty,max=256,identity"`
}

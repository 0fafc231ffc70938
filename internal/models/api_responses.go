// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

// Package models holds the HTTP wire envelope shared by every Authwatch
// endpoint.
package models

import (
	"time"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Common error codes.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeNotTrained       = "MODEL_NOT_TRAINED"
	ErrCodeInsufficient     = "INSUFFICIENT_DATA"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// APIResponse is the standard wrapper for all HTTP responses.
//
//	{
//	  "status": "success",
//	  "data": {"analyzed": 12, "suspicious": 1},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 3}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries server time and handler latency.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a machine-readable error code plus a human message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewSuccess wraps data in a success envelope stamped with the current time.
func NewSuccess(data interface{}, started time.Time) *APIResponse {
	now := time.Now()
	return &APIResponse{
		Status: StatusSuccess,
		Data:   data,
		Metadata: Metadata{
			Timestamp:   now,
			QueryTimeMS: now.Sub(started).Milliseconds(),
		},
	}
}

// NewError builds an error envelope.
func NewError(code, message string, details map[string]interface{}) *APIResponse {
	return &APIResponse{
		Status:   StatusError,
		Metadata: Metadata{Timestamp: time.Now()},
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/authwatch/internal/collector"
	"github.com/tomtom215/authwatch/internal/detection"
	"github.com/tomtom215/authwatch/internal/models"
)

// HealthStatus summarizes process and loop state.
type HealthStatus struct {
	Status        string           `json:"status"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	Collector     collector.Status `json:"collector"`
	Detector      detection.Status `json:"detector"`
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respondJSON(w, http.StatusOK, models.NewSuccess(HealthStatus{
		Status:        "healthy",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Collector:     h.pipeline.CollectorStatus(),
		Detector:      h.pipeline.DetectorStatus(),
	}, start))
}

// HealthLive handles GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respondJSON(w, http.StatusOK, models.NewSuccess(map[string]string{"status": "alive"}, start))
}

// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/authwatch/internal/events"
	"github.com/tomtom215/authwatch/internal/logging"
	"github.com/tomtom215/authwatch/internal/models"
	"github.com/tomtom215/authwatch/internal/pipeline"
)

// RecordEvent handles POST /api/v1/events
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req RecordEventRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, models.NewError(models.ErrCodeValidation, err.Error(), nil))
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	in := pipeline.EventInput{
		ID:        req.ID,
		Identity:  req.Identity,
		Outcome:   events.Outcome(req.Outcome),
		Subject:   req.Subject,
		LatencyMs: req.LatencyMs,
	}
	if req.Timestamp != nil {
		in.Timestamp = *req.Timestamp
	}

	ev := h.pipeline.RecordEvent(in)
	respondJSON(w, http.StatusCreated, models.NewSuccess(ev, start))
}

// ClearData handles POST /api/v1/data/clear
func (h *Handler) ClearData(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.pipeline.ClearAll()
	logging.Ctx(r.Context()).Info().Msg("Data cleared via API")
	respondJSON(w, http.StatusOK, models.NewSuccess(map[string]string{
		"message": "All data cleared successfully",
	}, start))
}

// Stats handles GET /api/v1/stats
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respondJSON(w, http.StatusOK, models.NewSuccess(h.pipeline.Stats(), start))
}

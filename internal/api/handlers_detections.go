// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/authwatch/internal/detection"
	"github.com/tomtom215/authwatch/internal/models"
)

// DetectionsResponse is a list of detection records.
type DetectionsResponse struct {
	Identity   string             `json:"identity,omitempty"`
	Detections []detection.Record `json:"detections"`
	Count      int                `json:"count"`
}

// Detections handles GET /api/v1/detections
func (h *Handler) Detections(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q := r.URL.Query()
	req := DetectionsQuery{Start: q.Get("start"), End: q.Get("end")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	var f detection.Filter
	if req.Start != "" {
		t, _ := time.Parse(time.RFC3339, req.Start)
		f.Start = &t
	}
	if req.End != "" {
		t, _ := time.Parse(time.RFC3339, req.End)
		f.End = &t
	}

	records := h.pipeline.GetDetections(f)
	respondJSON(w, http.StatusOK, models.NewSuccess(DetectionsResponse{
		Detections: records,
		Count:      len(records),
	}, start))
}

// SuspiciousIdentities handles GET /api/v1/detections/suspicious
func (h *Handler) SuspiciousIdentities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := SuspiciousQuery{Limit: getIntParam(r, "limit", detection.DefaultSuspiciousLimit)}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	records := h.pipeline.GetSuspicious(req.Limit)
	respondJSON(w, http.StatusOK, models.NewSuccess(DetectionsResponse{
		Detections: records,
		Count:      len(records),
	}, start))
}

// IdentityHistory handles GET /api/v1/detections/history/{identity}
func (h *Handler) IdentityHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	identity, err := url.PathUnescape(chi.URLParam(r, "identity"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, models.NewError(models.ErrCodeValidation, "identity is not a valid path segment", nil))
		return
	}
	req := IdentityRequest{Identity: identity}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	records := h.pipeline.GetHistory(req.Identity)
	respondJSON(w, http.StatusOK, models.NewSuccess(DetectionsResponse{
		Identity:   req.Identity,
		Detections: records,
		Count:      len(records),
	}, start))
}

// getIntParam extracts an integer query parameter with a default value.
// Unparseable values become -1 so validation rejects them.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}

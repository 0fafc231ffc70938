// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/tomtom215/authwatch/internal/aggregator"
	"github.com/tomtom215/authwatch/internal/models"
)

// IdentityMetrics is one identity's metrics series.
type IdentityMetrics struct {
	Identity string                     `json:"identity"`
	Metrics  []aggregator.MetricsRecord `json:"metrics"`
	Count    int                        `json:"count"`
}

// MetricsHistoryResponse is returned when no identity is requested.
type MetricsHistoryResponse struct {
	Identities      []IdentityMetrics `json:"identities"`
	TotalIdentities int               `json:"total_identities"`
}

// CollectResponse reports the records produced by a manual collection.
type CollectResponse struct {
	Metrics []aggregator.MetricsRecord `json:"metrics"`
	Count   int                        `json:"count"`
}

// MetricsHistory handles GET /api/v1/metrics/history
func (h *Handler) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := MetricsHistoryQuery{Identity: r.URL.Query().Get("identity")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if req.Identity != "" {
		series := h.pipeline.GetMetrics(req.Identity)
		respondJSON(w, http.StatusOK, models.NewSuccess(IdentityMetrics{
			Identity: req.Identity,
			Metrics:  series,
			Count:    len(series),
		}, start))
		return
	}

	all := h.pipeline.GetAllMetrics()
	out := MetricsHistoryResponse{Identities: make([]IdentityMetrics, 0, len(all))}
	for id, series := range all {
		out.Identities = append(out.Identities, IdentityMetrics{Identity: id, Metrics: series, Count: len(series)})
	}
	sort.Slice(out.Identities, func(i, j int) bool {
		return out.Identities[i].Identity < out.Identities[j].Identity
	})
	out.TotalIdentities = len(out.Identities)
	respondJSON(w, http.StatusOK, models.NewSuccess(out, start))
}

// CollectMetrics handles POST /api/v1/metrics/collect
func (h *Handler) CollectMetrics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	records, err := h.pipeline.CollectNow(r.Context())
	if err != nil {
		respondPipelineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccess(CollectResponse{Metrics: records, Count: len(records)}, start))
}

// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/authwatch/internal/logging"
	"github.com/tomtom215/authwatch/internal/models"
)

// LoopControlResponse reports a start or stop request. Changed is false when
// the loop was already in the requested state.
type LoopControlResponse struct {
	Changed bool        `json:"changed"`
	Message string      `json:"message"`
	Status  interface{} `json:"status"`
}

func loopMessage(name string, changed, starting bool) string {
	switch {
	case starting && changed:
		return name + " started"
	case starting:
		return name + " already running"
	case changed:
		return name + " stopped"
	default:
		return name + " not running"
	}
}

// CollectorStatus handles GET /api/v1/collector/status
func (h *Handler) CollectorStatus(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respondJSON(w, http.StatusOK, models.NewSuccess(h.pipeline.CollectorStatus(), start))
}

// CollectorStart handles POST /api/v1/collector/start
func (h *Handler) CollectorStart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	changed := h.pipeline.CollectorStart()
	logging.Ctx(r.Context()).Info().Bool("changed", changed).Msg("Collector start requested")
	respondJSON(w, http.StatusOK, models.NewSuccess(LoopControlResponse{
		Changed: changed,
		Message: loopMessage("Collector", changed, true),
		Status:  h.pipeline.CollectorStatus(),
	}, start))
}

// CollectorStop handles POST /api/v1/collector/stop
func (h *Handler) CollectorStop(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	changed := h.pipeline.CollectorStop()
	logging.Ctx(r.Context()).Info().Bool("changed", changed).Msg("Collector stop requested")
	respondJSON(w, http.StatusOK, models.NewSuccess(LoopControlResponse{
		Changed: changed,
		Message: loopMessage("Collector", changed, false),
		Status:  h.pipeline.CollectorStatus(),
	}, start))
}

// DetectorStatus handles GET /api/v1/detector/status
func (h *Handler) DetectorStatus(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respondJSON(w, http.StatusOK, models.NewSuccess(h.pipeline.DetectorStatus(), start))
}

// DetectorStart handles POST /api/v1/detector/start
func (h *Handler) DetectorStart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	changed := h.pipeline.DetectorStart()
	logging.Ctx(r.Context()).Info().Bool("changed", changed).Msg("Detector start requested")
	respondJSON(w, http.StatusOK, models.NewSuccess(LoopControlResponse{
		Changed: changed,
		Message: loopMessage("Detector", changed, true),
		Status:  h.pipeline.DetectorStatus(),
	}, start))
}

// DetectorStop handles POST /api/v1/detector/stop
func (h *Handler) DetectorStop(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	changed := h.pipeline.DetectorStop()
	logging.Ctx(r.Context()).Info().Bool("changed", changed).Msg("Detector stop requested")
	respondJSON(w, http.StatusOK, models.NewSuccess(LoopControlResponse{
		Changed: changed,
		Message: loopMessage("Detector", changed, false),
		Status:  h.pipeline.DetectorStatus(),
	}, start))
}

// TrainModel handles POST /api/v1/detector/train
func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := h.pipeline.TrainModel()
	if err != nil {
		respondPipelineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccess(res, start))
}

// RunDetection handles POST /api/v1/detector/run
func (h *Handler) RunDetection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := h.pipeline.RunDetectionOnce(r.Context())
	if err != nil {
		respondPipelineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccess(res, start))
}

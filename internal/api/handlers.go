// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package api

import (
	"context"
	"time"

	"github.com/tomtom215/authwatch/internal/aggregator"
	"github.com/tomtom215/authwatch/internal/collector"
	"github.com/tomtom215/authwatch/internal/detection"
	"github.com/tomtom215/authwatch/internal/events"
	"github.com/tomtom215/authwatch/internal/pipeline"
)

// Pipeline is the subset of pipeline.Service the handlers call.
type Pipeline interface {
	RecordEvent(in pipeline.EventInput) events.Event
	ClearAll()
	Stats() pipeline.Stats

	GetMetrics(identity string) []aggregator.MetricsRecord
	GetAllMetrics() map[string][]aggregator.MetricsRecord
	CollectNow(ctx context.Context) ([]aggregator.MetricsRecord, error)

	GetDetections(f detection.Filter) []detection.Record
	GetSuspicious(limit int) []detection.Record
	GetHistory(identity string) []detection.Record

	CollectorStart() bool
	CollectorStop() bool
	CollectorStatus() collector.Status
	DetectorStart() bool
	DetectorStop() bool
	DetectorStatus() detection.Status
	TrainModel() (pipeline.TrainResult, error)
	RunDetectionOnce(ctx context.Context) (detection.RunResult, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_events.go: ingestion, clear and stats
//   - handlers_metrics.go: metrics history and manual collection
//   - handlers_loops.go: collector and detector lifecycle, training
//   - handlers_detections.go: detection queries
//   - handlers_health.go: health endpoints
type Handler struct {
	pipeline  Pipeline
	startTime time.Time
}

// NewHandler creates a handler over p.
func NewHandler(p Pipeline) *Handler {
	return &Handler{
		pipeline:  p,
		startTime: time.Now(),
	}
}

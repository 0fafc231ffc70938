// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package services

import (
	"context"

	"github.com/tomtom215/authwatch/internal/logging"
)

// LoopController is satisfied by *pipeline.Service.
type LoopController interface {
	CollectorStart() bool
	CollectorStop() bool
	DetectorStart() bool
	DetectorStop() bool
}

// PipelineService starts the background loops configured to auto-start and
// stops both when the supervisor shuts down. Loops stay individually
// controllable through the API while the service runs.
type PipelineService struct {
	loops         LoopController
	autoCollector bool
	autoDetector  bool
	name          string
}

// NewPipelineService wraps loops.
func NewPipelineService(loops LoopController, autoCollector, autoDetector bool) *PipelineService {
	return &PipelineService{
		loops:         loops,
		autoCollector: autoCollector,
		autoDetector:  autoDetector,
		name:          "pipeline",
	}
}

// Serve implements suture.Service.
func (p *PipelineService) Serve(ctx context.Context) error {
	logger := logging.WithComponent(p.name)
	if p.autoCollector {
		p.loops.CollectorStart()
	}
	if p.autoDetector {
		p.loops.DetectorStart()
	}
	logger.Info().
		Bool("collector", p.autoCollector).
		Bool("detector", p.autoDetector).
		Msg("Pipeline service started")

	<-ctx.Done()

	// Stop waits for any in-flight pass, so shutdown is bounded by one pass.
	p.loops.CollectorStop()
	p.loops.DetectorStop()
	logger.Info().Msg("Pipeline service stopped")
	return ctx.Err()
}

// String implements fmt.Stringer; suture uses it in log messages.
func (p *PipelineService) String() string {
	return p.name
}

// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

// Package pipeline wires the event store, metrics history, baseline model,
// detection log and both background loops into one facade. Every external
// caller (HTTP handlers, the supervisor, tests) goes through Service.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/authwatch/internal/aggregator"
	"github.com/tomtom215/authwatch/internal/baseline"
	"github.com/tomtom215/authwatch/internal/collector"
	"github.com/tomtom215/authwatch/internal/detection"
	"github.com/tomtom215/authwatch/internal/events"
)

// Config sizes the stores and sets the loop periods. Zero values fall back
// to the package defaults of each component.
type Config struct {
	MaxEvents         int
	MaxHistory        int
	MaxDetections     int
	CollectorInterval time.Duration
	DetectorInterval  time.Duration
	NotifyTimeout     time.Duration
}

// EventInput is one authentication attempt as reported by a caller. A zero
// Timestamp means now; an empty ID is replaced by a generated UUID.
type EventInput struct {
	ID        string
	Identity  string
	Timestamp time.Time
	Outcome   events.Outcome
	Subject   string
	LatencyMs float64
}

// Stats summarizes retained events and detections.
type Stats struct {
	events.Stats
	SuspiciousIdentities int `json:"suspicious_identities"`
	TotalDetections      int `json:"total_detections"`
}

// TrainResult describes a successful training run.
type TrainResult struct {
	SamplesTrained int           `json:"samples_trained"`
	ModelInfo      baseline.Info `json:"model_info"`
}

// Option customizes a Service.
type Option func(*options)

type options struct {
	now       func() time.Time
	notifiers []detection.Notifier
}

// WithClock overrides time.Now for ingestion and both loops.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithNotifiers registers detection notifiers.
func WithNotifiers(ns ...detection.Notifier) Option {
	return func(o *options) { o.notifiers = append(o.notifiers, ns...) }
}

// Service is the pipeline facade.
type Service struct {
	store     *events.Store
	history   *aggregator.History
	model     *baseline.Model
	log       *detection.Log
	collector *collector.Collector
	detector  *detection.Detector
	now       func() time.Time
	logger    zerolog.Logger

	// Loops outlive the request that started them, so they run on a
	// service-scoped context cancelled by Close.
	baseCtx   context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New builds every component. Both loops start stopped.
func New(cfg Config, logger *zerolog.Logger, opts ...Option) *Service {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Service{
		store:   events.New(cfg.MaxEvents),
		history: aggregator.NewHistory(cfg.MaxHistory),
		model:   baseline.New(),
		log:     detection.NewLog(cfg.MaxDetections),
		now:     o.now,
		logger:  logger.With().Str("component", "pipeline").Logger(),
	}
	s.collector = collector.New(s.store, s.history, cfg.CollectorInterval, logger,
		collector.WithClock(o.now))

	detOpts := []detection.Option{
		detection.WithClock(o.now),
		detection.WithNotifiers(o.notifiers...),
	}
	if cfg.NotifyTimeout > 0 {
		detOpts = append(detOpts, detection.WithNotifyTimeout(cfg.NotifyTimeout))
	}
	s.detector = detection.NewDetector(s.history, s.model, s.log, cfg.DetectorInterval, logger, detOpts...)

	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	return s
}

// AddNotifier registers a notifier after construction.
func (s *Service) AddNotifier(n detection.Notifier) {
	s.detector.AddNotifier(n)
}

// RecordEvent stores one authentication attempt and returns it as stored.
func (s *Service) RecordEvent(in EventInput) events.Event {
	ev := events.Event{
		ID:        in.ID,
		Identity:  in.Identity,
		Timestamp: in.Timestamp,
		Outcome:   in.Outcome,
		Subject:   in.Subject,
		LatencyMs: in.LatencyMs,
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}
	s.store.Append(ev)
	return ev
}

// ClearAll drops every event, metrics record and detection. The trained
// baseline and loop states are left as they are.
func (s *Service) ClearAll() {
	s.store.Clear()
	s.history.Clear()
	s.log.Clear()
	s.logger.Info().Msg("All data cleared")
}

// Stats summarizes retained data.
func (s *Service) Stats() Stats {
	return Stats{
		Stats:                s.store.Stats(),
		SuspiciousIdentities: s.log.SuspiciousIdentityCount(),
		TotalDetections:      s.log.Len(),
	}
}

// Events returns retained events matching f.
func (s *Service) Events(f events.Filter) []events.Event {
	return s.store.Query(f)
}

// GetMetrics returns one identity's metrics history, oldest first.
func (s *Service) GetMetrics(identity string) []aggregator.MetricsRecord {
	return s.history.Get(identity)
}

// GetAllMetrics returns every identity's metrics history.
func (s *Service) GetAllMetrics() map[string][]aggregator.MetricsRecord {
	return s.history.GetAll()
}

// CollectNow runs one collection pass synchronously.
func (s *Service) CollectNow(ctx context.Context) ([]aggregator.MetricsRecord, error) {
	return s.collector.CollectOnce(ctx)
}

// GetDetections returns detection records in f's range, oldest first.
func (s *Service) GetDetections(f detection.Filter) []detection.Record {
	return s.log.Query(f)
}

// GetSuspicious returns the top suspicious identities.
func (s *Service) GetSuspicious(limit int) []detection.Record {
	return s.log.Suspicious(limit)
}

// GetHistory returns one identity's detection records, newest first.
func (s *Service) GetHistory(identity string) []detection.Record {
	return s.log.History(identity)
}

// CollectorStart starts the collector; false means it was already running.
func (s *Service) CollectorStart() bool {
	return s.collector.Start(s.baseCtx)
}

// CollectorStop stops the collector; false means it was not running.
func (s *Service) CollectorStop() bool {
	return s.collector.Stop()
}

// CollectorStatus reports collector state.
func (s *Service) CollectorStatus() collector.Status {
	return s.collector.Status()
}

// DetectorStart starts the detector; false means it was already running.
func (s *Service) DetectorStart() bool {
	return s.detector.Start(s.baseCtx)
}

// DetectorStop stops the detector; false means it was not running.
func (s *Service) DetectorStop() bool {
	return s.detector.Stop()
}

// DetectorStatus reports detector and model state.
func (s *Service) DetectorStatus() detection.Status {
	return s.detector.Status()
}

// TrainModel fits the baseline on all retained metrics.
func (s *Service) TrainModel() (TrainResult, error) {
	snap, err := s.detector.Train()
	if err != nil {
		return TrainResult{}, err
	}
	info, _ := s.model.Info()
	return TrainResult{SamplesTrained: snap.SampleCount, ModelInfo: info}, nil
}

// RunDetectionOnce runs one detection pass synchronously.
func (s *Service) RunDetectionOnce(ctx context.Context) (detection.RunResult, error) {
	return s.detector.RunOnce(ctx)
}

// Close stops both loops and waits for pending notifications. It is safe to
// call more than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.collector.Stop()
		s.cancel()
		s.detector.Close()
	})
}

// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package detection

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/authwatch/internal/aggregator"
	"github.com/tomtom215/authwatch/internal/baseline"
	"github.com/tomtom215/authwatch/internal/metrics"
	"github.com/tomtom215/authwatch/internal/scheduler"
)

// DefaultInterval is the detection period and freshness window.
const DefaultInterval = time.Minute

// defaultNotifyTimeout bounds a single notifier delivery.
const defaultNotifyTimeout = 30 * time.Second

// MetricsSource is the read side of the metrics history.
type MetricsSource interface {
	Samples() []aggregator.MetricsRecord
	LatestSince(cutoff time.Time) map[string]aggregator.MetricsRecord
}

// Status is the detector's externally visible state.
type Status struct {
	IsRunning    bool           `json:"is_running"`
	ModelTrained bool           `json:"model_trained"`
	IntervalMs   int64          `json:"interval_ms"`
	ModelInfo    *baseline.Info `json:"model_info"`
}

// Detector evaluates every identity with fresh metrics against the baseline
// on each tick and appends the verdicts to the Log.
type Detector struct {
	source   MetricsSource
	model    *baseline.Model
	log      *Log
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
	loop     *scheduler.Loop

	notifyTimeout time.Duration
	mu            sync.RWMutex
	notifiers     []Notifier
	closed        bool
	inflight      sync.WaitGroup
}

// Option customizes a Detector.
type Option func(*Detector)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithNotifiers registers notifiers at construction.
func WithNotifiers(ns ...Notifier) Option {
	return func(d *Detector) { d.notifiers = append(d.notifiers, ns...) }
}

// WithNotifyTimeout bounds each notifier delivery.
func WithNotifyTimeout(timeout time.Duration) Option {
	return func(d *Detector) { d.notifyTimeout = timeout }
}

// NewDetector creates a stopped detector.
func NewDetector(source MetricsSource, model *baseline.Model, log *Log, interval time.Duration, logger *zerolog.Logger, opts ...Option) *Detector {
	if interval <= 0 {
		interval = DefaultInterval
	}
	d := &Detector{
		source:        source,
		model:         model,
		log:           log,
		interval:      interval,
		now:           time.Now,
		logger:        logger.With().Str("component", "detector").Logger(),
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.loop = scheduler.New("detector", interval, d.pass, logger)
	return d
}

// AddNotifier registers a notifier for subsequent suspicious records.
func (d *Detector) AddNotifier(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers = append(d.notifiers, n)
}

// Start begins detection; false means it was already running.
func (d *Detector) Start(ctx context.Context) bool {
	return d.loop.Start(ctx)
}

// Stop halts detection; false means it was not running.
func (d *Detector) Stop() bool {
	return d.loop.Stop()
}

// Status reports loop and model state.
func (d *Detector) Status() Status {
	st := Status{
		IsRunning:  d.loop.IsRunning(),
		IntervalMs: d.interval.Milliseconds(),
	}
	if info, ok := d.model.Info(); ok {
		st.ModelTrained = true
		st.ModelInfo = &info
	}
	return st
}

// Train fits the baseline on every retained metrics record.
func (d *Detector) Train() (*baseline.Snapshot, error) {
	samples := d.source.Samples()
	snap, err := d.model.Train(TrainingSet(samples))
	metrics.RecordTraining(err, len(samples))
	if err != nil {
		d.logger.Warn().Err(err).Int("samples", len(samples)).Msg("Baseline training failed")
		return nil, err
	}
	d.logger.Info().Int("samples", snap.SampleCount).Msg("Baseline trained")
	return snap, nil
}

// RunOnce runs one detection pass synchronously.
func (d *Detector) RunOnce(ctx context.Context) (RunResult, error) {
	var res RunResult
	err := d.loop.Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = d.detect(ctx)
		return err
	})
	return res, err
}

// Wait blocks until every in-flight notification has finished.
func (d *Detector) Wait() {
	d.inflight.Wait()
}

// Close stops the loop, refuses further notifications and waits for the
// in-flight ones. Passes run after Close still record verdicts.
func (d *Detector) Close() {
	d.loop.Stop()
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.inflight.Wait()
}

func (d *Detector) pass(ctx context.Context) error {
	_, err := d.detect(ctx)
	return err
}

func (d *Detector) detect(ctx context.Context) (RunResult, error) {
	if !d.model.Trained() {
		d.logger.Info().Msg("Baseline not trained, training now")
		if _, err := d.Train(); err != nil {
			return RunResult{}, fmt.Errorf("detection skipped: %w", err)
		}
	}
	snap := d.model.Snapshot()

	now := d.now()
	latest := d.source.LatestSince(now.Add(-d.interval))
	if len(latest) == 0 {
		d.logger.Debug().Msg("No recent metrics to analyze")
		return RunResult{}, nil
	}

	identities := make([]string, 0, len(latest))
	for id := range latest {
		identities = append(identities, id)
	}
	sort.Strings(identities)

	res := RunResult{Analyzed: len(identities)}
	var flagged []Record
	for _, id := range identities {
		m := latest[id]
		ev := snap.Evaluate(Features(&m))
		rec := d.log.RecordDetection(id, m, ev.Suspicious, ev.Score, now)
		if !ev.Suspicious {
			continue
		}
		res.Suspicious++
		flagged = append(flagged, rec)
		d.logger.Warn().
			Str("identity", id).
			Float64("score", ev.Score).
			Float64("requests_per_minute", m.RequestsPerMinute).
			Float64("error_ratio", m.ErrorRatio).
			Msg("Suspicious identity detected")
	}

	d.notify(ctx, flagged)
	d.logger.Info().
		Int("analyzed", res.Analyzed).
		Int("suspicious", res.Suspicious).
		Msg("Anomaly detection completed")
	return res, nil
}

// notify fans records out to every enabled notifier without blocking the pass.
func (d *Detector) notify(ctx context.Context, records []Record) {
	if len(records) == 0 {
		return
	}

	// Add happens under the lock so it cannot race with Close's Wait.
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.logger.Warn().Int("records", len(records)).Msg("Detector closed, notifications dropped")
		return
	}
	notifiers := make([]Notifier, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		if n.Enabled() {
			notifiers = append(notifiers, n)
		}
	}
	d.inflight.Add(len(records) * len(notifiers))
	d.mu.RUnlock()

	base := context.WithoutCancel(ctx)
	for i := range records {
		rec := &records[i]
		for _, n := range notifiers {
			go func(n Notifier, r *Record) {
				defer d.inflight.Done()
				sendCtx, cancel := context.WithTimeout(base, d.notifyTimeout)
				defer cancel()

				err := n.Send(sendCtx, r)
				metrics.RecordNotification(n.Name(), err)
				if err != nil {
					d.logger.Error().Err(err).Str("notifier", n.Name()).Str("identity", r.Identity).Msg("Failed to send detection")
				}
			}(n, rec)
		}
	}
}

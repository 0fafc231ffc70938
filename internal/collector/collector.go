// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

// Package collector periodically aggregates recent events into window
// metrics and appends them to the metrics history.
package collector

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/authwatch/internal/aggregator"
	"github.com/tomtom215/authwatch/internal/events"
	"github.com/tomtom215/authwatch/internal/scheduler"
)

// DefaultInterval is both the tick period and the aggregation window.
const DefaultInterval = time.Minute

// EventSource is the read side of the event store.
type EventSource interface {
	Query(f events.Filter) []events.Event
}

// MetricsSink receives aggregated window metrics.
type MetricsSink interface {
	Record(m aggregator.MetricsRecord)
}

// Status is the collector's externally visible state.
type Status struct {
	IsRunning  bool  `json:"is_running"`
	IntervalMs int64 `json:"interval_ms"`
}

// Collector runs Aggregate over [now-interval, now] on every tick.
type Collector struct {
	source   EventSource
	sink     MetricsSink
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
	loop     *scheduler.Loop
}

// Option customizes a Collector.
type Option func(*Collector)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// New creates a stopped collector.
func New(source EventSource, sink MetricsSink, interval time.Duration, logger *zerolog.Logger, opts ...Option) *Collector {
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &Collector{
		source:   source,
		sink:     sink,
		interval: interval,
		now:      time.Now,
		logger:   logger.With().Str("component", "collector").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.loop = scheduler.New("collector", interval, c.pass, logger)
	return c
}

// Start begins collecting; false means it was already running.
func (c *Collector) Start(ctx context.Context) bool {
	return c.loop.Start(ctx)
}

// Stop halts collection; false means it was not running.
func (c *Collector) Stop() bool {
	return c.loop.Stop()
}

// Status reports whether the loop is running and its interval.
func (c *Collector) Status() Status {
	return Status{
		IsRunning:  c.loop.IsRunning(),
		IntervalMs: c.interval.Milliseconds(),
	}
}

// CollectOnce runs one pass synchronously and returns the records it
// produced, ordered by identity.
func (c *Collector) CollectOnce(ctx context.Context) ([]aggregator.MetricsRecord, error) {
	var out []aggregator.MetricsRecord
	err := c.loop.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.collect(ctx)
		return err
	})
	return out, err
}

func (c *Collector) pass(ctx context.Context) error {
	_, err := c.collect(ctx)
	return err
}

// collect aggregates the window ending now and records every result.
func (c *Collector) collect(_ context.Context) ([]aggregator.MetricsRecord, error) {
	windowEnd := c.now()
	windowStart := windowEnd.Add(-c.interval)

	evs := c.source.Query(events.Filter{Start: &windowStart, End: &windowEnd})
	if len(evs) == 0 {
		c.logger.Debug().Time("window_start", windowStart).Msg("No events in window")
		return []aggregator.MetricsRecord{}, nil
	}

	byIdentity := aggregator.Aggregate(evs, windowStart, windowEnd)
	out := make([]aggregator.MetricsRecord, 0, len(byIdentity))
	for _, m := range byIdentity {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })

	for i := range out {
		c.sink.Record(out[i])
		c.logger.Debug().
			Str("identity", out[i].Identity).
			Float64("requests_per_minute", out[i].RequestsPerMinute).
			Float64("error_ratio", out[i].ErrorRatio).
			Msg("Collected window metrics")
	}

	c.logger.Info().
		Int("events", len(evs)).
		Int("identities", len(out)).
		Msg("Metrics collection completed")
	return out, nil
}

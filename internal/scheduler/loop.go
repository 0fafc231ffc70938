// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

// Package scheduler runs a unit of work immediately and then on a fixed
// interval until stopped.
//
// A Loop has two states, stopped and running. Start and Stop are idempotent:
// starting a running loop or stopping a stopped one is logged and ignored.
// Stop waits for the loop goroutine to exit, so no pass begins after it
// returns; a pass already in progress runs to completion.
//
// A pass that returns an error or panics is logged and counted. The loop
// keeps ticking regardless of the previous pass's outcome.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/authwatch/internal/metrics"
)

// PassFunc performs one unit of periodic work.
type PassFunc func(ctx context.Context) error

// ErrPassPanicked wraps a recovered panic.
var ErrPassPanicked = errors.New("pass panicked")

// Loop drives a PassFunc on a ticker.
type Loop struct {
	name     string
	interval time.Duration
	pass     PassFunc
	logger   zerolog.Logger

	lifecycle sync.Mutex // serializes Start and Stop
	passMu    sync.Mutex // one pass at a time, scheduled or manual
	running   atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a stopped loop. A non-positive interval falls back to one minute.
func New(name string, interval time.Duration, pass PassFunc, logger *zerolog.Logger) *Loop {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Loop{
		name:     name,
		interval: interval,
		pass:     pass,
		logger:   logger.With().Str("component", name).Logger(),
	}
}

// Name returns the loop name used in logs and metrics.
func (l *Loop) Name() string {
	return l.name
}

// Interval returns the tick period.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// IsRunning reports whether the loop goroutine is active.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Start launches the loop and runs the first pass immediately. ctx bounds
// the loop's lifetime; cancelling it stops the loop as Stop would. Start
// reports false when the loop was already running.
func (l *Loop) Start(ctx context.Context) bool {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	if l.running.Load() {
		l.logger.Info().Msg("Already running")
		return false
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	l.stopCh, l.doneCh = stopCh, doneCh
	l.running.Store(true)
	metrics.SetLoopRunning(l.name, true)

	l.logger.Info().Dur("interval", l.interval).Msg("Starting")
	go l.run(ctx, stopCh, doneCh)
	return true
}

// Stop halts the loop and waits for its goroutine to exit. It reports false
// when the loop was not running.
func (l *Loop) Stop() bool {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	if !l.running.Load() {
		l.logger.Debug().Msg("Stop requested while not running")
		return false
	}

	close(l.stopCh)
	<-l.doneCh

	l.logger.Info().Msg("Stopped")
	return true
}

// RunOnce executes a single pass synchronously, outside the ticker. It is
// safe to call whether or not the loop is running.
func (l *Loop) RunOnce(ctx context.Context) error {
	return l.Do(ctx, l.pass)
}

// Do runs fn as a pass of this loop: serialized with scheduled passes, with
// the same panic recovery, logging and metrics. Callers use it for manual
// passes that need to return more than an error.
func (l *Loop) Do(ctx context.Context, fn PassFunc) error {
	return l.execute(ctx, fn)
}

func (l *Loop) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer func() {
		l.running.Store(false)
		metrics.SetLoopRunning(l.name, false)
		close(doneCh)
	}()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	_ = l.execute(ctx, l.pass)

	for {
		select {
		case <-ticker.C:
			// Stop may have raced the tick; prefer stopping.
			select {
			case <-stopCh:
				return
			default:
			}
			_ = l.execute(ctx, l.pass)
		case <-stopCh:
			return
		case <-ctx.Done():
			l.logger.Info().Msg("Context cancelled, stopping")
			return
		}
	}
}

// execute runs one pass with panic recovery, logging and metrics.
func (l *Loop) execute(ctx context.Context, fn PassFunc) (err error) {
	l.passMu.Lock()
	defer l.passMu.Unlock()

	start := time.Now()
	result := "success"
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPassPanicked, r)
			result = "panic"
		}
		duration := time.Since(start)
		metrics.RecordLoopPass(l.name, result, duration)
		if err != nil {
			l.logger.Error().Err(err).Dur("duration", duration).Msg("Pass failed")
			return
		}
		l.logger.Debug().Dur("duration", duration).Msg("Pass completed")
	}()

	if err = fn(ctx); err != nil {
		result = "error"
	}
	return err
}

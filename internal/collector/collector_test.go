// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package collector

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/authwatch/internal/aggregator"
	"github.com/tomtom215/authwatch/internal/events"
)

// recordingSink captures everything the collector records.
type recordingSink struct {
	mu      sync.Mutex
	records []aggregator.MetricsRecord
}

func (s *recordingSink) Record(m aggregator.MetricsRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, m)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var now = time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)

func newTestCollector(store *events.Store, sink MetricsSink) *Collector {
	logger := zerolog.Nop()
	return New(store, sink, time.Minute, &logger, WithClock(func() time.Time { return now }))
}

func TestCollectOnce_TwentyEventScenario(t *testing.T) {
	t.Parallel()

	store := events.New(100)
	windowStart := now.Add(-time.Minute)
	for i := 0; i < 20; i++ {
		outcome := events.OutcomeSuccess
		if i%4 == 0 {
			outcome = events.OutcomeFailure
		}
		store.Append(events.Event{
			Identity:  "A",
			Timestamp: windowStart.Add(time.Duration(i) * 3 * time.Second),
			Outcome:   outcome,
		})
	}

	sink := &recordingSink{}
	c := newTestCollector(store, sink)

	got, err := c.CollectOnce(context.Background())
	if err != nil {
		t.Fatalf("CollectOnce() error = %v", err)
	}
	if len(got) != 1 || sink.count() != 1 {
		t.Fatalf("CollectOnce() produced %d records (sink %d), want 1", len(got), sink.count())
	}

	m := got[0]
	if m.Identity != "A" {
		t.Errorf("Identity = %q, want A", m.Identity)
	}
	if m.TotalRequests != 20 || m.FailedRequests != 5 || m.SuccessfulRequests != 15 {
		t.Errorf("counts = %d/%d/%d, want 20/5/15", m.TotalRequests, m.FailedRequests, m.SuccessfulRequests)
	}
	if math.Abs(m.ErrorRatio-0.25) > 1e-9 {
		t.Errorf("ErrorRatio = %v, want 0.25", m.ErrorRatio)
	}
	if math.Abs(m.RequestsPerMinute-20.0) > 1e-9 {
		t.Errorf("RequestsPerMinute = %v, want 20.0", m.RequestsPerMinute)
	}
	if math.Abs(m.AvgInterArrivalMs-3000) > 1e-9 {
		t.Errorf("AvgInterArrivalMs = %v, want 3000", m.AvgInterArrivalMs)
	}
}

func TestCollectOnce_NoEventsIsNoop(t *testing.T) {
	t.Parallel()

	store := events.New(10)
	store.Append(events.Event{Identity: "old", Timestamp: now.Add(-time.Hour), Outcome: events.OutcomeSuccess})

	sink := &recordingSink{}
	got, err := newTestCollector(store, sink).CollectOnce(context.Background())
	if err != nil {
		t.Fatalf("CollectOnce() error = %v", err)
	}
	if len(got) != 0 || sink.count() != 0 {
		t.Errorf("expected no records for an empty window, got %d", len(got))
	}
}

func TestCollectOnce_SortedByIdentity(t *testing.T) {
	t.Parallel()

	store := events.New(10)
	for _, id := range []string{"c", "a", "b"} {
		store.Append(events.Event{Identity: id, Timestamp: now.Add(-time.Second), Outcome: events.OutcomeSuccess})
	}

	got, _ := newTestCollector(store, &recordingSink{}).CollectOnce(context.Background())
	if len(got) != 3 || got[0].Identity != "a" || got[2].Identity != "c" {
		t.Errorf("CollectOnce() order = %+v", got)
	}
}

func TestCollector_StartStopStatus(t *testing.T) {
	t.Parallel()

	store := events.New(10)
	store.Append(events.Event{Identity: "a", Timestamp: now, Outcome: events.OutcomeSuccess})
	sink := &recordingSink{}
	c := newTestCollector(store, sink)

	if st := c.Status(); st.IsRunning || st.IntervalMs != 60000 {
		t.Errorf("initial Status() = %+v", st)
	}

	if !c.Start(context.Background()) {
		t.Fatal("Start() = false")
	}
	if c.Start(context.Background()) {
		t.Error("second Start() = true, want false")
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sink.count() != 1 {
		t.Errorf("sink received %d records after start, want 1 from the immediate pass", sink.count())
	}
	if !c.Status().IsRunning {
		t.Error("Status().IsRunning = false while running")
	}

	if !c.Stop() {
		t.Error("Stop() = false")
	}
	if c.Stop() {
		t.Error("second Stop() = true, want false")
	}
	if c.Status().IsRunning {
		t.Error("Status().IsRunning = true after Stop")
	}
}

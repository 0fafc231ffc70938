// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// countingService counts Serve calls and fails the first failures of them.
type countingService struct {
	name     string
	failures int32
	starts   atomic.Int32
	stops    atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	s.stops.Add(1)
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}

func TestNewSupervisorTreeDefaults(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("Root() is nil")
	}
	want := DefaultTreeConfig()
	if tree.config != want {
		t.Errorf("config = %+v, want %+v", tree.config, want)
	}

	custom, err := NewSupervisorTree(quietLogger(), TreeConfig{FailureBackoff: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if custom.config.FailureBackoff != time.Second {
		t.Errorf("FailureBackoff = %v, want 1s", custom.config.FailureBackoff)
	}
	if custom.config.FailureThreshold != want.FailureThreshold {
		t.Errorf("FailureThreshold = %v, want default", custom.config.FailureThreshold)
	}
}

func TestSupervisorTreeRunsAllLayers(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}

	broker := &countingService{name: "broker"}
	pipeline := &countingService{name: "pipeline"}
	api := &countingService{name: "api"}
	tree.AddMessagingService(broker)
	tree.AddPipelineService(pipeline)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool {
		return broker.starts.Load() == 1 && pipeline.starts.Load() == 1 && api.starts.Load() == 1
	})

	cancel()
	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}

	for _, s := range []*countingService{broker, pipeline, api} {
		if s.stops.Load() != 1 {
			t.Errorf("%s stopped %d times, want 1", s.name, s.stops.Load())
		}
	}
	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport: %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}

func TestSupervisorTreeRestartsFailedService(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}

	flaky := &countingService{name: "flaky", failures: 2}
	steady := &countingService{name: "steady"}
	tree.AddMessagingService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool { return flaky.starts.Load() >= 3 })

	if got := steady.starts.Load(); got != 1 {
		t.Errorf("steady service started %d times, want 1", got)
	}

	cancel()
	<-errCh
}

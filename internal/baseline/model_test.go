// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package baseline

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

func repeat(v Vector, n int) []Vector {
	out := make([]Vector, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestTrain_InsufficientData(t *testing.T) {
	t.Parallel()

	m := New()
	for _, n := range []int{0, 1, MinSamples - 1} {
		if _, err := m.Train(repeat(Vector{1, 0, 1, 1}, n)); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("Train(%d samples) error = %v, want ErrInsufficientData", n, err)
		}
	}
	if m.Trained() {
		t.Error("model should remain untrained after failed training")
	}
}

func TestScore_NotTrained(t *testing.T) {
	t.Parallel()

	m := New()
	if _, err := m.Score(Vector{}); !errors.Is(err, ErrModelNotTrained) {
		t.Errorf("Score() error = %v, want ErrModelNotTrained", err)
	}
	if _, err := m.Classify(Vector{}); !errors.Is(err, ErrModelNotTrained) {
		t.Errorf("Classify() error = %v, want ErrModelNotTrained", err)
	}
	if _, ok := m.Info(); ok {
		t.Error("Info() ok = true for untrained model")
	}
	if m.Snapshot() != nil {
		t.Error("Snapshot() should be nil for untrained model")
	}
}

func TestTrain_IdenticalSamples(t *testing.T) {
	t.Parallel()

	v := Vector{3, 0.25, 20, 3}
	m := New()
	snap, err := m.Train(repeat(v, MinSamples))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	for i := range snap.StdDevs {
		if snap.StdDevs[i] != 1 {
			t.Errorf("StdDevs[%d] = %v, want 1 (zero clamped)", i, snap.StdDevs[i])
		}
		if snap.Means[i] != v[i] {
			t.Errorf("Means[%d] = %v, want %v", i, snap.Means[i], v[i])
		}
	}

	score, err := m.Score(v)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	want := 1 / (1 + math.Exp(1.25))
	if math.Abs(score-want) > 1e-12 || math.Abs(score-0.2227) > 1e-4 {
		t.Errorf("Score() = %v, want %v", score, want)
	}

	suspicious, _ := m.Classify(v)
	if suspicious {
		t.Error("Classify() = true for a training sample, want false")
	}
}

func TestTrain_PopulationStdDev(t *testing.T) {
	t.Parallel()

	samples := repeat(Vector{5, 0.1, 10, 5}, 9)
	samples = append(samples, Vector{50, 0.1, 10, 5})

	m := New()
	snap, err := m.Train(samples)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if math.Abs(snap.Means[0]-9.5) > 1e-9 {
		t.Errorf("Means[0] = %v, want 9.5", snap.Means[0])
	}
	if math.Abs(snap.StdDevs[0]-13.5) > 1e-9 {
		t.Errorf("StdDevs[0] = %v, want 13.5 (population, divide by n)", snap.StdDevs[0])
	}
	if snap.SampleCount != 10 {
		t.Errorf("SampleCount = %d, want 10", snap.SampleCount)
	}
}

func TestEvaluate_OutlierDivergesFromScore(t *testing.T) {
	t.Parallel()

	samples := repeat(Vector{5, 0.1, 10, 5}, 9)
	samples = append(samples, Vector{50, 0.1, 10, 5})
	m := New()
	if _, err := m.Train(samples); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	ev, err := m.Evaluate(Vector{50, 0.1, 10, 5})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if math.Abs(ev.ZScores[0]-3.0) > 1e-9 {
		t.Errorf("ZScores[0] = %v, want 3.0", ev.ZScores[0])
	}
	if !ev.Suspicious {
		t.Error("Suspicious = false, want true (z 3.0 > 2.5)")
	}
	// combined = (0.75 + 3) / 2 = 1.875, below the threshold, so the score
	// stays under 0.5 even though the vector is classified suspicious.
	want := 1 / (1 + math.Exp(-0.5*(1.875-2.5)))
	if math.Abs(ev.Score-want) > 1e-12 {
		t.Errorf("Score = %v, want %v", ev.Score, want)
	}
	if ev.Score >= 0.5 {
		t.Errorf("Score = %v, expected below 0.5", ev.Score)
	}
}

func TestEvaluate_ScoreMonotonic(t *testing.T) {
	t.Parallel()

	m := New()
	samples := make([]Vector, 0, 20)
	for i := 0; i < 20; i++ {
		samples = append(samples, Vector{float64(i), 0.1 * float64(i%3), 10, float64(i)})
	}
	if _, err := m.Train(samples); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	prev := -1.0
	for _, x := range []float64{10, 20, 40, 80, 160} {
		s, _ := m.Score(Vector{x, 0.1, 10, x})
		if s <= prev {
			t.Errorf("Score(%v) = %v not greater than previous %v", x, s, prev)
		}
		if s <= 0 || s >= 1 {
			t.Errorf("Score(%v) = %v outside (0, 1)", x, s)
		}
		prev = s
	}
}

func TestTrain_ReplacesSnapshot(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	m := &Model{now: func() time.Time { return now }}

	if _, err := m.Train(repeat(Vector{1, 1, 1, 1}, 10)); err != nil {
		t.Fatal(err)
	}
	now = now.Add(time.Hour)
	if _, err := m.Train(repeat(Vector{2, 2, 2, 2}, 12)); err != nil {
		t.Fatal(err)
	}

	info, ok := m.Info()
	if !ok {
		t.Fatal("Info() ok = false after training")
	}
	if info.SampleCount != 12 || info.Means[0] != 2 || info.FeatureCount != FeatureCount {
		t.Errorf("Info() = %+v, want second snapshot", info)
	}
	if !info.TrainedAt.Equal(now) {
		t.Errorf("TrainedAt = %v, want %v", info.TrainedAt, now)
	}

	// A failed retrain keeps the previous snapshot.
	if _, err := m.Train(nil); err == nil {
		t.Fatal("expected error")
	}
	if snap := m.Snapshot(); snap == nil || snap.SampleCount != 12 {
		t.Errorf("Snapshot() = %+v, want previous snapshot retained", snap)
	}
}

func TestModel_ConcurrentTrainAndScore(t *testing.T) {
	t.Parallel()

	m := New()
	if _, err := m.Train(repeat(Vector{1, 1, 1, 1}, 10)); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, _ = m.Train(repeat(Vector{float64(w), 1, 1, float64(i)}, 10))
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				ev, err := m.Evaluate(Vector{1, 1, 1, 1})
				if err != nil {
					t.Error(err)
					return
				}
				if ev.Score <= 0 || ev.Score >= 1 {
					t.Errorf("Score %v out of range", ev.Score)
					return
				}
			}
		}()
	}
	wg.Wait()
}

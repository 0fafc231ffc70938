// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

// Package baseline fits a per-feature mean and standard deviation to
// historical window metrics and scores new windows against it.
//
// The model is deliberately small: four features, population statistics and
// a z-score test. The trained state is an immutable Snapshot swapped
// atomically on retraining, so concurrent scorers always see one whole
// baseline.
package baseline

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// FeatureCount is the dimensionality of every Vector.
const FeatureCount = 4

// Model constants.
const (
	MinSamples = 10
	Threshold  = 2.5
	scoreSlope = 0.5
)

// FeatureNames labels Vector positions in order.
var FeatureNames = [FeatureCount]string{
	"requests_per_minute",
	"error_ratio",
	"avg_inter_arrival_seconds",
	"total_requests",
}

var (
	// ErrInsufficientData is returned by Train with fewer than MinSamples samples.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrModelNotTrained is returned when scoring before any successful Train.
	ErrModelNotTrained = errors.New("model not trained")
)

// Vector is one sample in FeatureNames order.
type Vector [FeatureCount]float64

// Snapshot is a trained baseline. StdDevs are always positive.
type Snapshot struct {
	Means       Vector    `json:"means"`
	StdDevs     Vector    `json:"std_devs"`
	SampleCount int       `json:"sample_count"`
	TrainedAt   time.Time `json:"trained_at"`
}

// Evaluation is the full verdict for one vector against one snapshot.
type Evaluation struct {
	ZScores    Vector  `json:"z_scores"`
	Score      float64 `json:"score"`
	Suspicious bool    `json:"suspicious"`
}

// Info summarizes the active snapshot for status payloads.
type Info struct {
	SampleCount  int       `json:"sample_count"`
	FeatureCount int       `json:"feature_count"`
	TrainedAt    time.Time `json:"trained_at"`
	Means        Vector    `json:"means"`
	StdDevs      Vector    `json:"std_devs"`
}

// Model holds the current snapshot. The zero value is untrained and usable.
type Model struct {
	snap atomic.Pointer[Snapshot]
	now  func() time.Time
}

// New creates an untrained model.
func New() *Model {
	return &Model{now: time.Now}
}

// Train fits a new snapshot and installs it. The previous snapshot stays
// active when training fails.
func (m *Model) Train(samples []Vector) (*Snapshot, error) {
	n := len(samples)
	if n < MinSamples {
		return nil, fmt.Errorf("need at least %d samples, got %d: %w", MinSamples, n, ErrInsufficientData)
	}

	var s Snapshot
	for _, v := range samples {
		for i := range v {
			s.Means[i] += v[i]
		}
	}
	for i := range s.Means {
		s.Means[i] /= float64(n)
	}

	for _, v := range samples {
		for i := range v {
			d := v[i] - s.Means[i]
			s.StdDevs[i] += d * d
		}
	}
	for i := range s.StdDevs {
		s.StdDevs[i] = math.Sqrt(s.StdDevs[i] / float64(n))
		if s.StdDevs[i] == 0 {
			s.StdDevs[i] = 1
		}
	}

	s.SampleCount = n
	s.TrainedAt = m.clock()
	m.snap.Store(&s)
	return &s, nil
}

// Score returns the anomaly score in (0, 1).
func (m *Model) Score(v Vector) (float64, error) {
	ev, err := m.Evaluate(v)
	if err != nil {
		return 0, err
	}
	return ev.Score, nil
}

// Classify reports whether any single feature's z-score exceeds Threshold.
// It is independent of Score: a vector can be suspicious with a score below
// 0.5 and vice versa.
func (m *Model) Classify(v Vector) (bool, error) {
	ev, err := m.Evaluate(v)
	if err != nil {
		return false, err
	}
	return ev.Suspicious, nil
}

// Evaluate computes z-scores, score and classification from one snapshot read.
func (m *Model) Evaluate(v Vector) (Evaluation, error) {
	s := m.snap.Load()
	if s == nil {
		return Evaluation{}, ErrModelNotTrained
	}
	return s.Evaluate(v), nil
}

// Evaluate scores v against this snapshot.
func (s *Snapshot) Evaluate(v Vector) Evaluation {
	var ev Evaluation
	var sum, maxZ float64
	for i := range v {
		z := math.Abs(v[i]-s.Means[i]) / s.StdDevs[i]
		ev.ZScores[i] = z
		sum += z
		if z > maxZ {
			maxZ = z
		}
		if z > Threshold {
			ev.Suspicious = true
		}
	}
	combined := (sum/FeatureCount + maxZ) / 2
	ev.Score = 1 / (1 + math.Exp(-scoreSlope*(combined-Threshold)))
	return ev
}

// Trained reports whether a snapshot is installed.
func (m *Model) Trained() bool {
	return m.snap.Load() != nil
}

// Snapshot returns a copy of the active snapshot, or nil when untrained.
func (m *Model) Snapshot() *Snapshot {
	s := m.snap.Load()
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// Info describes the active snapshot; ok is false when untrained.
func (m *Model) Info() (info Info, ok bool) {
	s := m.snap.Load()
	if s == nil {
		return Info{}, false
	}
	return Info{
		SampleCount:  s.SampleCount,
		FeatureCount: FeatureCount,
		TrainedAt:    s.TrainedAt,
		Means:        s.Means,
		StdDevs:      s.StdDevs,
	}, true
}

func (m *Model) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package aggregator

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/authwatch/internal/metrics"
)

// DefaultHistoryCapacity keeps one day of one-minute windows per identity.
const DefaultHistoryCapacity = 1440

// History keeps a bounded, chronologically ordered series of MetricsRecords
// per identity. Every read returns a copy taken under a single lock.
type History struct {
	mu       sync.RWMutex
	series   map[string][]MetricsRecord
	capacity int
}

// NewHistory creates an empty history keeping at most capacity records per identity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		series:   make(map[string][]MetricsRecord),
		capacity: capacity,
	}
}

// Record appends m to its identity's series, dropping the oldest record
// when the series is full.
func (h *History) Record(m MetricsRecord) {
	h.mu.Lock()
	s := append(h.series[m.Identity], m)
	if len(s) > h.capacity {
		s = append(s[:0:0], s[len(s)-h.capacity:]...)
	}
	h.series[m.Identity] = s
	identities := len(h.series)
	h.mu.Unlock()

	metrics.WindowsRecorded.Inc()
	metrics.HistoryIdentities.Set(float64(identities))
}

// Get returns the identity's series, oldest first. Unknown identities yield
// an empty slice.
func (h *History) Get(identity string) []MetricsRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := h.series[identity]
	out := make([]MetricsRecord, len(s))
	copy(out, s)
	return out
}

// GetAll returns every identity's series.
func (h *History) GetAll() map[string][]MetricsRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string][]MetricsRecord, len(h.series))
	for id, s := range h.series {
		cp := make([]MetricsRecord, len(s))
		copy(cp, s)
		out[id] = cp
	}
	return out
}

// LatestSince returns, per identity, the most recent record whose WindowEnd
// is at or after cutoff. Identities with no such record are omitted.
func (h *History) LatestSince(cutoff time.Time) map[string]MetricsRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]MetricsRecord)
	for id, s := range h.series {
		for i := len(s) - 1; i >= 0; i-- {
			if !s[i].WindowEnd.Before(cutoff) {
				out[id] = s[i]
				break
			}
		}
	}
	return out
}

// Samples returns every retained record across all identities, ordered by
// identity and then chronologically, for baseline training.
func (h *History) Samples() []MetricsRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.series))
	n := 0
	for id, s := range h.series {
		ids = append(ids, id)
		n += len(s)
	}
	sort.Strings(ids)

	out := make([]MetricsRecord, 0, n)
	for _, id := range ids {
		out = append(out, h.series[id]...)
	}
	return out
}

// Identities returns the number of identities with at least one record.
func (h *History) Identities() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.series)
}

// Clear drops every series.
func (h *History) Clear() {
	h.mu.Lock()
	h.series = make(map[string][]MetricsRecord)
	h.mu.Unlock()

	metrics.HistoryIdentities.Set(0)
}

// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package events

import (
	"sync"

	"github.com/tomtom215/authwatch/internal/metrics"
)

// DefaultCapacity is the retention cap used when New is given a non-positive one.
const DefaultCapacity = 100000

// Store is an append-only ring buffer of events. Once full, each Append
// overwrites the oldest event so Len never exceeds the capacity.
//
// All methods are safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	buf  []Event
	head int // index of the oldest event once the buffer is full
	cap  int
}

// New creates an empty store retaining at most capacity events.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{cap: capacity}
}

// Append adds e as the newest event. It never fails.
func (s *Store) Append(e Event) {
	s.mu.Lock()
	evicted := false
	if len(s.buf) < s.cap {
		s.buf = append(s.buf, e)
	} else {
		s.buf[s.head] = e
		s.head = (s.head + 1) % s.cap
		evicted = true
	}
	size := len(s.buf)
	s.mu.Unlock()

	metrics.RecordEventIngested(string(e.Outcome), evicted, size)
}

// Query returns a copy of every event matching f, oldest first.
func (s *Store) Query(f Filter) []Event {
	if f.Empty() {
		return []Event{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0)
	s.each(func(e *Event) {
		if f.Match(e) {
			out = append(out, *e)
		}
	})
	return out
}

// Clear drops every event.
func (s *Store) Clear() {
	s.mu.Lock()
	s.buf = nil
	s.head = 0
	s.mu.Unlock()

	metrics.EventStoreSize.Set(0)
}

// Len returns the number of retained events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}

// Capacity returns the retention cap.
func (s *Store) Capacity() int {
	return s.cap
}

// Stats counts the retained events by outcome and distinct identity.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	identities := make(map[string]struct{})
	s.each(func(e *Event) {
		st.TotalAttempts++
		if e.Failed() {
			st.FailedAttempts++
		} else {
			st.SuccessfulAttempts++
		}
		identities[e.Identity] = struct{}{}
	})
	st.UniqueIdentities = len(identities)
	return st
}

// each visits events oldest first. Caller must hold mu.
func (s *Store) each(fn func(*Event)) {
	n := len(s.buf)
	for i := 0; i < n; i++ {
		fn(&s.buf[(s.head+i)%n])
	}
}

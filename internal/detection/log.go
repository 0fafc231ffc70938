// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package detection

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/authwatch/internal/aggregator"
	"github.com/tomtom215/authwatch/internal/metrics"
)

// DefaultLogCapacity is the global retention cap for detection records.
const DefaultLogCapacity = 100000

// DefaultSuspiciousLimit is used by Suspicious when limit is not positive.
const DefaultSuspiciousLimit = 10

// Log is the append-only, globally capped record of detection verdicts.
//
// A record's SuspiciousTimeRanges starts with its own window when it is
// suspicious, followed by every range of every retained suspicious record
// for the same identity, newest record first. Ranges are never merged or
// deduplicated: each carried record already repeats its own ancestry, so
// the list roughly doubles with every suspicious verdict until older
// records fall out of retention.
type Log struct {
	mu       sync.RWMutex
	records  []Record
	firstSeq uint64              // sequence number of records[0]
	flagged  map[string][]uint64 // sequence numbers of suspicious records, oldest first
	capacity int
}

// NewLog creates an empty log retaining at most capacity records.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &Log{
		flagged:  make(map[string][]uint64),
		capacity: capacity,
	}
}

// RecordDetection builds and appends a record, returning a copy of it.
func (l *Log) RecordDetection(identity string, m aggregator.MetricsRecord, suspicious bool, score float64, at time.Time) Record {
	l.mu.Lock()

	var ranges []TimeRange
	if suspicious {
		ranges = append(ranges, TimeRange{Start: m.WindowStart, End: m.WindowEnd})
	}
	seqs := l.retained(identity)
	for i := len(seqs) - 1; i >= 0; i-- {
		ranges = append(ranges, l.records[seqs[i]-l.firstSeq].SuspiciousTimeRanges...)
	}
	if ranges == nil {
		ranges = []TimeRange{}
	}

	rec := Record{
		Identity:             identity,
		Timestamp:            at,
		IsSuspicious:         suspicious,
		AnomalyScore:         score,
		Metrics:              m,
		SuspiciousTimeRanges: ranges,
	}

	seq := l.firstSeq + uint64(len(l.records))
	l.records = append(l.records, rec)
	if suspicious {
		l.flagged[identity] = append(seqs, seq)
	}

	if over := len(l.records) - l.capacity; over > 0 {
		l.records = l.records[over:]
		l.firstSeq += uint64(over)
	}
	size := len(l.records)
	out := rec.clone()
	l.mu.Unlock()

	metrics.RecordDetection(suspicious, size)
	return out
}

// retained drops evicted sequence numbers for identity and returns the rest.
// Callers hold l.mu for writing.
func (l *Log) retained(identity string) []uint64 {
	seqs := l.flagged[identity]
	n := 0
	for n < len(seqs) && seqs[n] < l.firstSeq {
		n++
	}
	if n == 0 {
		return seqs
	}
	if n == len(seqs) {
		delete(l.flagged, identity)
		return nil
	}
	seqs = seqs[n:]
	l.flagged[identity] = seqs
	return seqs
}

// Query returns records whose timestamp falls in f, in insertion order.
func (l *Log) Query(f Filter) []Record {
	if f.empty() {
		return []Record{}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, 0)
	for i := range l.records {
		if f.match(&l.records[i]) {
			out = append(out, l.records[i].clone())
		}
	}
	return out
}

// Suspicious returns the latest suspicious record per identity, highest
// score first with ties broken by identity, truncated to limit.
func (l *Log) Suspicious(limit int) []Record {
	if limit <= 0 {
		limit = DefaultSuspiciousLimit
	}

	l.mu.RLock()
	latest := make(map[string]*Record)
	for i := range l.records {
		r := &l.records[i]
		if !r.IsSuspicious {
			continue
		}
		if cur, ok := latest[r.Identity]; !ok || !r.Timestamp.Before(cur.Timestamp) {
			latest[r.Identity] = r
		}
	}
	out := make([]Record, 0, len(latest))
	for _, r := range latest {
		out = append(out, r.clone())
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].AnomalyScore != out[j].AnomalyScore {
			return out[i].AnomalyScore > out[j].AnomalyScore
		}
		return out[i].Identity < out[j].Identity
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// History returns every record for identity, newest first. Records with
// equal timestamps keep reverse insertion order.
func (l *Log) History(identity string) []Record {
	l.mu.RLock()
	out := make([]Record, 0)
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Identity == identity {
			out = append(out, l.records[i].clone())
		}
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Len returns the number of retained records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// SuspiciousIdentityCount returns how many distinct identities have at
// least one retained suspicious record.
func (l *Log) SuspiciousIdentityCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[string]struct{})
	for i := range l.records {
		if l.records[i].IsSuspicious {
			seen[l.records[i].Identity] = struct{}{}
		}
	}
	return len(seen)
}

// Clear drops every record and all carried ranges.
func (l *Log) Clear() {
	l.mu.Lock()
	l.firstSeq += uint64(len(l.records))
	l.records = nil
	l.flagged = make(map[string][]uint64)
	l.mu.Unlock()

	metrics.DetectionLogSize.Set(0)
}

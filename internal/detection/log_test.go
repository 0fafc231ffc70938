// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package detection

import (
	"testing"
	"time"

	"github.com/tomtom215/authwatch/internal/aggregator"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func windowAt(identity string, minute int) aggregator.MetricsRecord {
	start := t0.Add(time.Duration(minute) * time.Minute)
	return aggregator.MetricsRecord{Identity: identity, WindowStart: start, WindowEnd: start.Add(time.Minute)}
}

func TestLog_RecordDetection_NonSuspiciousHasNoRanges(t *testing.T) {
	t.Parallel()

	l := NewLog(10)
	rec := l.RecordDetection("a", windowAt("a", 0), false, 0.2, t0)

	if rec.IsSuspicious {
		t.Error("IsSuspicious = true, want false")
	}
	if rec.SuspiciousTimeRanges == nil || len(rec.SuspiciousTimeRanges) != 0 {
		t.Errorf("SuspiciousTimeRanges = %v, want empty", rec.SuspiciousTimeRanges)
	}
}

func TestLog_SuspiciousRangeAccumulation(t *testing.T) {
	t.Parallel()

	l := NewLog(100)
	first := l.RecordDetection("a", windowAt("a", 0), true, 0.9, t0.Add(time.Minute))
	l.RecordDetection("b", windowAt("b", 0), true, 0.8, t0.Add(time.Minute))
	second := l.RecordDetection("a", windowAt("a", 1), true, 0.9, t0.Add(2*time.Minute))

	if len(first.SuspiciousTimeRanges) != 1 {
		t.Fatalf("first record ranges = %d, want 1", len(first.SuspiciousTimeRanges))
	}
	if len(second.SuspiciousTimeRanges) < 2 {
		t.Fatalf("second record ranges = %d, want at least 2", len(second.SuspiciousTimeRanges))
	}
	if !second.SuspiciousTimeRanges[0].Start.Equal(t0.Add(time.Minute)) {
		t.Errorf("first range should be the current window, got %+v", second.SuspiciousTimeRanges[0])
	}
	if !second.SuspiciousTimeRanges[1].Start.Equal(t0) {
		t.Errorf("second range should be carried from cycle 1, got %+v", second.SuspiciousTimeRanges[1])
	}

	// Every prior suspicious record contributes all of its ranges, newest
	// record first, with no dedup: [w2] + [w1 w0] + [w0].
	third := l.RecordDetection("a", windowAt("a", 2), true, 0.9, t0.Add(3*time.Minute))
	assertRangeStarts(t, "third", third.SuspiciousTimeRanges, 2, 1, 0, 0)

	// A clean verdict adds no window of its own but still carries
	// [w2 w1 w0 w0] + [w1 w0] + [w0].
	clean := l.RecordDetection("a", windowAt("a", 3), false, 0.1, t0.Add(4*time.Minute))
	assertRangeStarts(t, "clean", clean.SuspiciousTimeRanges, 2, 1, 0, 0, 1, 0, 0)

	// Clean records are not carried forward.
	fifth := l.RecordDetection("a", windowAt("a", 4), true, 0.9, t0.Add(5*time.Minute))
	if got := len(fifth.SuspiciousTimeRanges); got != 1+4+2+1 {
		t.Errorf("fifth record ranges = %d, want 8", got)
	}

	// Other identities are unaffected.
	if got := l.History("b")[0].SuspiciousTimeRanges; len(got) != 1 {
		t.Errorf("identity b ranges = %d, want 1", len(got))
	}
}

func assertRangeStarts(t *testing.T, label string, got []TimeRange, minutes ...int) {
	t.Helper()
	if len(got) != len(minutes) {
		t.Fatalf("%s ranges = %d, want %d", label, len(got), len(minutes))
	}
	for i, m := range minutes {
		if want := t0.Add(time.Duration(m) * time.Minute); !got[i].Start.Equal(want) {
			t.Errorf("%s range %d starts at %v, want %v", label, i, got[i].Start, want)
		}
	}
}

func TestLog_EvictionDropsOnlyEvictedAncestors(t *testing.T) {
	t.Parallel()

	l := NewLog(3)
	l.RecordDetection("a", windowAt("a", 0), true, 0.9, t0)
	l.RecordDetection("a", windowAt("a", 1), true, 0.9, t0.Add(time.Minute))
	l.RecordDetection("b", windowAt("b", 0), false, 0.1, t0.Add(time.Minute))
	l.RecordDetection("b", windowAt("b", 1), false, 0.1, t0.Add(time.Minute)) // evicts a's first record

	// Only the second record is retained; it still carries w0 itself.
	rec := l.RecordDetection("a", windowAt("a", 2), true, 0.9, t0.Add(2*time.Minute))
	assertRangeStarts(t, "after eviction", rec.SuspiciousTimeRanges, 2, 1, 0)
}

func TestLog_RetentionCap(t *testing.T) {
	t.Parallel()

	const capacity = 5
	l := NewLog(capacity)
	for i := 0; i < 12; i++ {
		l.RecordDetection("a", windowAt("a", i), false, float64(i), t0.Add(time.Duration(i)*time.Minute))
		if l.Len() > capacity {
			t.Fatalf("Len() = %d exceeds cap %d", l.Len(), capacity)
		}
	}

	all := l.Query(Filter{})
	if len(all) != capacity {
		t.Fatalf("Query() returned %d, want %d", len(all), capacity)
	}
	for i, r := range all {
		if r.AnomalyScore != float64(7+i) {
			t.Errorf("record %d score = %v, want %d (most recent, insertion order)", i, r.AnomalyScore, 7+i)
		}
	}
}

func TestLog_EvictedAncestryIsNotCarried(t *testing.T) {
	t.Parallel()

	l := NewLog(2)
	l.RecordDetection("a", windowAt("a", 0), true, 0.9, t0)
	l.RecordDetection("b", windowAt("b", 0), false, 0.1, t0)
	l.RecordDetection("b", windowAt("b", 1), false, 0.1, t0) // evicts a's record

	rec := l.RecordDetection("a", windowAt("a", 2), true, 0.9, t0)
	if len(rec.SuspiciousTimeRanges) != 1 {
		t.Errorf("ranges = %d, want 1 once the prior record was evicted", len(rec.SuspiciousTimeRanges))
	}
}

func TestLog_QueryByTimestamp(t *testing.T) {
	t.Parallel()

	l := NewLog(10)
	for i := 0; i < 5; i++ {
		l.RecordDetection("a", windowAt("a", i), false, 0, t0.Add(time.Duration(i)*time.Minute))
	}
	start, end := t0.Add(time.Minute), t0.Add(3*time.Minute)

	if got := l.Query(Filter{Start: &start, End: &end}); len(got) != 3 {
		t.Errorf("Query(range) = %d records, want 3 (inclusive)", len(got))
	}
	if got := l.Query(Filter{Start: &end}); len(got) != 2 {
		t.Errorf("Query(start only) = %d records, want 2", len(got))
	}
	if got := l.Query(Filter{Start: &end, End: &start}); got == nil || len(got) != 0 {
		t.Errorf("Query(inverted) = %v, want empty", got)
	}
}

func TestLog_Suspicious(t *testing.T) {
	t.Parallel()

	l := NewLog(100)
	l.RecordDetection("low", windowAt("low", 0), true, 0.3, t0)
	l.RecordDetection("high", windowAt("high", 0), true, 0.5, t0)
	l.RecordDetection("high", windowAt("high", 1), true, 0.95, t0.Add(time.Minute))
	l.RecordDetection("tie-b", windowAt("tie-b", 0), true, 0.6, t0)
	l.RecordDetection("tie-a", windowAt("tie-a", 0), true, 0.6, t0)
	l.RecordDetection("clean", windowAt("clean", 0), false, 0.99, t0)

	got := l.Suspicious(0)
	want := []string{"high", "tie-a", "tie-b", "low"}
	if len(got) != len(want) {
		t.Fatalf("Suspicious() returned %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].Identity != id {
			t.Errorf("Suspicious()[%d] = %q, want %q", i, got[i].Identity, id)
		}
	}
	if got[0].AnomalyScore != 0.95 {
		t.Errorf("high should report its latest record, score = %v", got[0].AnomalyScore)
	}

	if got := l.Suspicious(2); len(got) != 2 {
		t.Errorf("Suspicious(2) returned %d, want 2", len(got))
	}
	if n := l.SuspiciousIdentityCount(); n != 4 {
		t.Errorf("SuspiciousIdentityCount() = %d, want 4", n)
	}
}

func TestLog_SuspiciousDefaultLimit(t *testing.T) {
	t.Parallel()

	l := NewLog(100)
	for i := 0; i < 15; i++ {
		id := string(rune('a' + i))
		l.RecordDetection(id, windowAt(id, 0), true, 0.5, t0)
	}
	if got := l.Suspicious(-1); len(got) != DefaultSuspiciousLimit {
		t.Errorf("Suspicious(-1) returned %d, want %d", len(got), DefaultSuspiciousLimit)
	}
}

func TestLog_HistoryNewestFirst(t *testing.T) {
	t.Parallel()

	l := NewLog(10)
	for i := 0; i < 3; i++ {
		l.RecordDetection("a", windowAt("a", i), false, float64(i), t0.Add(time.Duration(i)*time.Minute))
	}
	l.RecordDetection("b", windowAt("b", 0), false, 0, t0)

	got := l.History("a")
	if len(got) != 3 {
		t.Fatalf("History(a) = %d records, want 3", len(got))
	}
	if got[0].AnomalyScore != 2 || got[2].AnomalyScore != 0 {
		t.Errorf("History(a) not newest first: %v, %v", got[0].AnomalyScore, got[2].AnomalyScore)
	}
	if got := l.History("unknown"); got == nil || len(got) != 0 {
		t.Errorf("History(unknown) = %v, want empty", got)
	}
}

func TestLog_ResultsAreCopies(t *testing.T) {
	t.Parallel()

	l := NewLog(10)
	l.RecordDetection("a", windowAt("a", 0), true, 0.9, t0)

	got := l.Query(Filter{})
	got[0].SuspiciousTimeRanges[0].Start = time.Time{}
	got[0].Identity = "mutated"

	again := l.Query(Filter{})
	if again[0].Identity != "a" || again[0].SuspiciousTimeRanges[0].Start.IsZero() {
		t.Error("log state was mutated through a query result")
	}
}

func TestLog_Clear(t *testing.T) {
	t.Parallel()

	l := NewLog(10)
	l.RecordDetection("a", windowAt("a", 0), true, 0.9, t0)
	l.Clear()

	if l.Len() != 0 || l.SuspiciousIdentityCount() != 0 {
		t.Error("Clear() left records behind")
	}
	rec := l.RecordDetection("a", windowAt("a", 1), true, 0.9, t0)
	if len(rec.SuspiciousTimeRanges) != 1 {
		t.Errorf("ranges after Clear = %d, want 1 (ancestry dropped)", len(rec.SuspiciousTimeRanges))
	}
}

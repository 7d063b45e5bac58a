package history

import (
	"testing"
	"time"
)

func str(s string) *string { return &s }

var t0 = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func sample() []Entry {
	return []Entry{
		{Field: FieldStatus, OldValue: str("analysis"), NewValue: str("development"), ChangedAt: t0.Add(48 * time.Hour)},
		{Field: FieldDue, OldValue: str("2024-03-10"), NewValue: str("2024-03-12T00:00:00Z"), ChangedAt: t0.Add(time.Hour)},
		{Field: FieldStatus, OldValue: str("new"), NewValue: str("analysis"), ChangedAt: t0},
		{Field: FieldStart, OldValue: nil, NewValue: str("2024-03-02"), ChangedAt: t0.Add(2 * time.Hour)},
		{Field: FieldStatus, OldValue: str("development"), NewValue: str("analysis"), ChangedAt: t0.Add(72 * time.Hour)},
	}
}

func TestStatusTimelineChainsSegments(t *testing.T) {
	segs := StatusTimeline(sample())
	if len(segs) != 3 {
		t.Fatalf("segments = %d, want 3", len(segs))
	}
	if !segs[0].Start.Equal(t0) || !segs[0].End.Equal(t0.Add(48*time.Hour)) {
		t.Fatalf("first segment = %+v", segs[0])
	}
	if segs[1].To != "development" || !segs[1].End.Equal(segs[2].Start) {
		t.Fatalf("second segment = %+v", segs[1])
	}
	if !segs[2].Open() {
		t.Fatal("last segment should be open")
	}
}

func TestTotalsAndLongest(t *testing.T) {
	now := t0.Add(96 * time.Hour)
	totals := Totals(StatusTimeline(sample()), now)
	if len(totals) != 2 {
		t.Fatalf("totals = %+v", totals)
	}
	if totals[0].Label != "analysis" || totals[0].Duration != 72*time.Hour {
		t.Fatalf("analysis total = %+v", totals[0])
	}
	if totals[1].Label != "development" || totals[1].Duration != 24*time.Hour {
		t.Fatalf("development total = %+v", totals[1])
	}
	longest, ok := Longest(totals)
	if !ok || longest.Label != "analysis" {
		t.Fatalf("longest = %+v", longest)
	}
	if _, ok := Longest(nil); ok {
		t.Fatal("expected no longest status without totals")
	}
}

func TestSharesHaveFloor(t *testing.T) {
	segs := []Segment{
		{Start: t0, End: t0.Add(time.Minute), To: "analysis"},
		{Start: t0.Add(time.Minute), End: t0.Add(100 * time.Hour), To: "done"},
	}
	shares := Shares(segs, t0)
	if shares[0].Percent != MinSharePercent {
		t.Fatalf("short share = %v, want %v", shares[0].Percent, MinSharePercent)
	}
	if shares[1].Percent < 99 {
		t.Fatalf("long share = %v", shares[1].Percent)
	}
	if shares[1].Color != "#059669" {
		t.Fatalf("color = %s", shares[1].Color)
	}

	zero := Shares([]Segment{{Start: t0, End: t0, To: "done"}}, t0)
	if zero[0].Percent != 0 {
		t.Fatalf("zero total share = %v", zero[0].Percent)
	}
}

func TestDateChangesNewestFirst(t *testing.T) {
	changes := DateChanges(sample())
	if len(changes) != 2 || changes[0].Field != FieldStart || changes[1].Field != FieldDue {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestAnalyze(t *testing.T) {
	r := Analyze(sample(), t0.Add(96*time.Hour))
	if r.Changes != 3 {
		t.Fatalf("changes = %d", r.Changes)
	}
	if len(r.Events) != 5 {
		t.Fatalf("events = %d", len(r.Events))
	}
	first := r.Events[0]
	if first.Kind != EventStatus || first.Title != "Status: analysis" || first.Duration != "1d" {
		t.Fatalf("first event = %+v", first)
	}
	var due Event
	for _, e := range r.Events {
		if e.Title == "Due date changed" {
			due = e
		}
	}
	if due.Detail != "2024-03-10 → 2024-03-12" {
		t.Fatalf("due detail = %q", due.Detail)
	}
	if empty := Analyze(nil, t0); empty.Longest.Label != "—" {
		t.Fatalf("empty longest = %+v", empty.Longest)
	}
}

func TestSince(t *testing.T) {
	got := Since(sample(), t0.Add(48*time.Hour))
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
}

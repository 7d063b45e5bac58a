// Package history turns a task's field-change log into status segments,
// per-status totals and a merged event feed.
package history

import (
	"sort"
	"time"

	"tableflip.dev/taskboard/pkg/task"
	"tableflip.dev/taskboard/pkg/timeutil"
)

// Field names the task attribute a log entry changed.
type Field string

const (
	FieldStatus Field = "status"
	FieldStart  Field = "start_at"
	FieldDue    Field = "due_at"
)

// MinSharePercent keeps very short segments visible in a proportional bar.
const MinSharePercent = 3.0

// Entry is one field change as reported by the API.
type Entry struct {
	Field     Field     `json:"field_name"`
	OldValue  *string   `json:"old_value"`
	NewValue  *string   `json:"new_value"`
	ChangedAt time.Time `json:"changed_at"`
}

// Old returns the previous value or "".
func (e Entry) Old() string {
	if e.OldValue == nil {
		return ""
	}
	return *e.OldValue
}

// New returns the new value or "".
func (e Entry) New() string {
	if e.NewValue == nil {
		return ""
	}
	return *e.NewValue
}

// Segment is the span a task spent in one status. End is zero while the
// status is still current.
type Segment struct {
	Start time.Time
	End   time.Time
	From  string
	To    string
}

// Open reports whether the segment has not ended.
func (s Segment) Open() bool {
	return s.End.IsZero()
}

// Label is the display label of the status the segment covers.
func (s Segment) Label() string {
	return task.NormalizeStatusLabel(s.To)
}

// Duration is how long the segment lasted, measured up to now while open.
func (s Segment) Duration(now time.Time) time.Duration {
	end := s.End
	if end.IsZero() {
		end = now
	}
	d := end.Sub(s.Start)
	if d < 0 {
		return 0
	}
	return d
}

// StatusTimeline orders the status entries oldest first and chains them into
// segments, each ending where the next begins.
func StatusTimeline(entries []Entry) []Segment {
	var status []Entry
	for _, e := range entries {
		if e.Field == FieldStatus {
			status = append(status, e)
		}
	}
	sort.SliceStable(status, func(i, j int) bool {
		return status[i].ChangedAt.Before(status[j].ChangedAt)
	})

	out := make([]Segment, 0, len(status))
	for i, e := range status {
		seg := Segment{Start: e.ChangedAt, From: e.Old(), To: e.New()}
		if i+1 < len(status) {
			seg.End = status[i+1].ChangedAt
		}
		out = append(out, seg)
	}
	return out
}

// DateChanges returns start and due date changes, newest first.
func DateChanges(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Field == FieldStart || e.Field == FieldDue {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChangedAt.After(out[j].ChangedAt)
	})
	return out
}

// ChangeCount is the number of status changes in the log.
func ChangeCount(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if e.Field == FieldStatus {
			n++
		}
	}
	return n
}

// Total is the time spent in one status across all its segments.
type Total struct {
	Label    string
	Duration time.Duration
}

// Totals sums segment durations per status label, in first-seen order.
func Totals(segments []Segment, now time.Time) []Total {
	index := map[string]int{}
	var out []Total
	for _, s := range segments {
		label := s.Label()
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, Total{Label: label})
		}
		out[i].Duration += s.Duration(now)
	}
	return out
}

// Sum adds up all totals.
func Sum(totals []Total) time.Duration {
	var d time.Duration
	for _, t := range totals {
		d += t.Duration
	}
	return d
}

// Longest returns the status with the largest total. Ties keep the first.
func Longest(totals []Total) (Total, bool) {
	var best Total
	found := false
	for _, t := range totals {
		if t.Duration > best.Duration {
			best = t
			found = true
		}
	}
	return best, found
}

// Share is a segment sized for a proportional bar.
type Share struct {
	Segment
	Duration time.Duration
	Percent  float64
	Color    string
}

// Shares sizes each segment relative to the total, never below
// MinSharePercent unless the total is zero.
func Shares(segments []Segment, now time.Time) []Share {
	total := Sum(Totals(segments, now))
	out := make([]Share, 0, len(segments))
	for _, s := range segments {
		d := s.Duration(now)
		pct := 0.0
		if total > 0 {
			pct = float64(d) / float64(total) * 100
			if pct < MinSharePercent {
				pct = MinSharePercent
			}
		}
		out = append(out, Share{
			Segment:  s,
			Duration: d,
			Percent:  pct,
			Color:    task.Status(s.Label()).Color(),
		})
	}
	return out
}

// EventKind distinguishes entries in the merged feed.
type EventKind string

const (
	EventStatus EventKind = "status"
	EventDate   EventKind = "date"
)

// Event is one line of the merged analytics feed.
type Event struct {
	Kind     EventKind
	At       time.Time
	Title    string
	Detail   string
	Duration string
}

// Events merges status segments and date changes, newest first.
func Events(entries []Entry, now time.Time) []Event {
	var out []Event
	for _, s := range StatusTimeline(entries) {
		out = append(out, Event{
			Kind:     EventStatus,
			At:       s.Start,
			Title:    "Status: " + s.Label(),
			Detail:   task.NormalizeStatusLabel(s.From) + " → " + task.NormalizeStatusLabel(s.To),
			Duration: timeutil.FormatSpan(s.Duration(now)),
		})
	}
	for _, e := range DateChanges(entries) {
		title := "Due date changed"
		if e.Field == FieldStart {
			title = "Start date changed"
		}
		out = append(out, Event{
			Kind:     EventDate,
			At:       e.ChangedAt,
			Title:    title,
			Detail:   formatDate(e.Old()) + " → " + formatDate(e.New()),
			Duration: "—",
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.After(out[j].At)
	})
	return out
}

func formatDate(raw string) string {
	if raw == "" {
		return "—"
	}
	d, err := task.ParseDate(raw)
	if err != nil {
		return "—"
	}
	return d.String()
}

// Report bundles everything the history views show for one task.
type Report struct {
	Segments []Share
	Totals   []Total
	Longest  Total
	Changes  int
	Dates    []Entry
	Events   []Event
}

// Analyze builds a report as of now.
func Analyze(entries []Entry, now time.Time) Report {
	segs := StatusTimeline(entries)
	totals := Totals(segs, now)
	longest, ok := Longest(totals)
	if !ok {
		longest = Total{Label: "—"}
	}
	return Report{
		Segments: Shares(segs, now),
		Totals:   totals,
		Longest:  longest,
		Changes:  ChangeCount(entries),
		Dates:    DateChanges(entries),
		Events:   Events(entries, now),
	}
}

// Since drops entries older than cutoff.
func Since(entries []Entry, cutoff time.Time) []Entry {
	var out []Entry
	for _, e := range entries {
		if !e.ChangedAt.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

package printers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/muesli/reflow/ansi"

	"tableflip.dev/taskboard/pkg/history"
	"tableflip.dev/taskboard/pkg/task"
)

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		if r == ansi.Marker {
			inEsc = true
			continue
		}
		if inEsc {
			if ansi.IsTerminator(r) {
				inEsc = false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dated(id int64, title, start, end string) task.Task {
	return task.Task{
		ID:        id,
		Title:     title,
		Status:    task.StatusDevelopment,
		Priority:  task.PriorityHigh,
		StartDate: task.MustDate(start).Ptr(),
		EndDate:   task.MustDate(end).Ptr(),
	}
}

func TestTasksGroupsByStatus(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{ShowID: true, Out: &buf}
	done := dated(10002, "Ship", "2024-01-20", "2024-01-21")
	done.Status = task.StatusDone
	done.Tags = []string{"release"}
	pp.Tasks([]task.Task{dated(10001, "Build", "2024-01-10", "2024-01-15"), done}, task.GroupStatus)

	out := stripANSI(buf.String())
	for _, want := range []string{"development - 1 task", "done - 1 task", "10001", "Build", "2024-01-10 → 2024-01-15 (6d)", "#release"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTasksEmpty(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}
	pp.Tasks(nil, task.GroupNone)
	if !strings.Contains(stripANSI(buf.String()), "none") {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestCalendarMarksToday(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}
	pp.Calendar(task.MustDate("2024-02-01"), task.MustDate("2024-02-14"),
		[]task.Task{dated(10001, "Build", "2024-01-30", "2024-02-03")})

	out := stripANSI(buf.String())
	if !strings.Contains(out, "February 2024") {
		t.Errorf("missing month header:\n%s", out)
	}
	if !strings.Contains(out, "29") {
		t.Errorf("missing leap day:\n%s", out)
	}
}

func TestHistoryReport(t *testing.T) {
	str := func(v string) *string { return &v }
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	r := history.Analyze([]history.Entry{
		{Field: history.FieldStatus, OldValue: str("new"), NewValue: str("in_progress"), ChangedAt: at},
	}, at.Add(48*time.Hour))

	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}
	pp.History(r)
	out := stripANSI(buf.String())
	for _, want := range []string{"Time in status", "Events - 1 event", "Status:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBar(t *testing.T) {
	tests := map[float64]int{0: 0, 50: 10, 100: 20, 140: 20}
	for pct, want := range tests {
		if got := strings.Count(bar(pct), "█"); got != want {
			t.Errorf("bar(%v) filled %d, want %d", pct, got, want)
		}
	}
}

func TestNextMonth(t *testing.T) {
	tests := map[string]string{
		"2024-01-31": "2024-02-01",
		"2024-02-29": "2024-03-01",
		"2024-12-15": "2025-01-01",
	}
	for in, want := range tests {
		if got := NextMonth(task.MustDate(in)).String(); got != want {
			t.Errorf("NextMonth(%s) = %s, want %s", in, got, want)
		}
	}
}

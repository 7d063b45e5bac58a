// Package timeline implements the Gantt timeline engine: the visible date
// range, the date to column mapping, the drag and resize state machine, the
// ruler/body scroll synchroniser and the grouped row layout and rendering.
//
// The engine is headless. Callers feed it pointer positions and scroll
// offsets in an abstract horizontal unit (pixels in the reference layout,
// terminal cells in the TUI) and it requests task updates through an
// Updater; it never mutates tasks itself.
package timeline

import (
	"tableflip.dev/taskboard/pkg/task"
)

// Padding is the number of days added on both sides of the task span.
const Padding = 7

// Range is the inclusive span of days the timeline shows.
type Range struct {
	Min task.Date
	Max task.Date
}

// Contains reports whether d falls within the range.
func (r Range) Contains(d task.Date) bool {
	return !d.Before(r.Min) && !d.After(r.Max)
}

// Days is the number of whole days from Min to Max.
func (r Range) Days() int {
	return r.Max.DaysSince(r.Min)
}

// ResolveRange computes the range for a set of visible tasks. Without tasks
// the range is today through one month out. Otherwise it spans the earliest
// start to the latest end, widened to include today, then padded by Padding
// days on each side. Tasks missing either date are ignored.
func ResolveRange(tasks []task.Task, today task.Date) Range {
	var (
		minDate, maxDate task.Date
		found            bool
	)
	for _, t := range tasks {
		if !t.HasDates() {
			continue
		}
		start, end := *t.StartDate, *t.EndDate
		if !found {
			minDate = task.MinDate(start, end)
			maxDate = task.MaxDate(start, end)
			found = true
			continue
		}
		minDate = task.MinDate(minDate, task.MinDate(start, end))
		maxDate = task.MaxDate(maxDate, task.MaxDate(start, end))
	}

	if !found {
		return Range{Min: today, Max: today.AddMonths(1)}
	}

	minDate = task.MinDate(minDate, today)
	maxDate = task.MaxDate(maxDate, today)

	return Range{
		Min: minDate.AddDays(-Padding),
		Max: maxDate.AddDays(Padding),
	}
}

// rangeKey identifies the inputs ResolveRange depends on so the engine can
// skip recomputation when nothing relevant changed.
func rangeKey(tasks []task.Task, today task.Date) string {
	b := make([]byte, 0, len(tasks)*22+10)
	b = append(b, today.String()...)
	for _, t := range tasks {
		if !t.HasDates() {
			continue
		}
		b = append(b, '|')
		b = append(b, t.StartDate.String()...)
		b = append(b, ',')
		b = append(b, t.EndDate.String()...)
	}
	return string(b)
}

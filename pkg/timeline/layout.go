package timeline

import (
	"tableflip.dev/taskboard/pkg/task"
)

// RowKind distinguishes group headers from task rows.
type RowKind int

const (
	RowGroup RowKind = iota
	RowTask
)

// Row is one line of the timeline body.
type Row struct {
	Kind  RowKind
	Group string
	// Count is the number of tasks under a group header.
	Count int
	Task  task.Task
	// Start and End are the body offsets [Start, End) of the task bar.
	Start int
	End   int
}

// Zone is the part of a row under the pointer.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneLabel
	ZoneLeftHandle
	ZoneBar
	ZoneRightHandle
	ZoneEmpty
)

func (z Zone) String() string {
	switch z {
	case ZoneLabel:
		return "label"
	case ZoneLeftHandle:
		return "left-handle"
	case ZoneBar:
		return "bar"
	case ZoneRightHandle:
		return "right-handle"
	case ZoneEmpty:
		return "empty"
	default:
		return "none"
	}
}

// Mode returns the drag mode a press in z starts, if any.
func (z Zone) Mode() (Mode, bool) {
	switch z {
	case ZoneBar:
		return ModeMove, true
	case ZoneLeftHandle:
		return ModeResizeLeft, true
	case ZoneRightHandle:
		return ModeResizeRight, true
	}
	return ModeMove, false
}

// Layout is the flattened, positioned list of rows for one render.
type Layout struct {
	Mapper Mapper
	Rows   []Row
}

// HandleWidth is the width of the resize handle at each end of a bar.
func HandleWidth(dayWidth int) int {
	w := dayWidth / 4
	if w < 1 {
		w = 1
	}
	return w
}

// BuildLayout positions the buckets' tasks. Grouping by none yields a flat
// list without a header; otherwise each bucket gets a header row followed
// by its tasks in the order given. Tasks without dates are skipped.
func BuildLayout(buckets []task.Bucket, by task.GroupBy, m Mapper) Layout {
	l := Layout{Mapper: m}
	headers := by != task.GroupNone && by != ""
	for _, b := range buckets {
		var rows []Row
		for _, t := range b.Tasks {
			if !t.HasDates() {
				continue
			}
			start, end := m.BarSpan(*t.StartDate, *t.EndDate)
			rows = append(rows, Row{
				Kind:  RowTask,
				Group: b.Name,
				Task:  t,
				Start: start,
				End:   end,
			})
		}
		if len(rows) == 0 {
			continue
		}
		if headers {
			l.Rows = append(l.Rows, Row{Kind: RowGroup, Group: b.Name, Count: len(rows)})
		}
		l.Rows = append(l.Rows, rows...)
	}
	return l
}

// TaskRows returns only the task rows.
func (l Layout) TaskRows() []Row {
	out := make([]Row, 0, len(l.Rows))
	for _, r := range l.Rows {
		if r.Kind == RowTask {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the index of the row showing the task with the given id.
func (l Layout) Find(id int64) (int, bool) {
	for i, r := range l.Rows {
		if r.Kind == RowTask && r.Task.ID == id {
			return i, true
		}
	}
	return -1, false
}

// HitTest resolves body offset x on row index row. Negative x falls in the
// label gutter.
func (l Layout) HitTest(x, row int) (Row, Zone) {
	if row < 0 || row >= len(l.Rows) {
		return Row{}, ZoneNone
	}
	r := l.Rows[row]
	if x < 0 {
		return r, ZoneLabel
	}
	if r.Kind != RowTask || x < r.Start || x >= r.End {
		return r, ZoneEmpty
	}
	hw := HandleWidth(l.Mapper.DayWidth)
	switch {
	case x < r.Start+hw:
		return r, ZoneLeftHandle
	case x >= r.End-hw:
		return r, ZoneRightHandle
	default:
		return r, ZoneBar
	}
}

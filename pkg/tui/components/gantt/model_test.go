package gantt

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/muesli/reflow/ansi"

	"tableflip.dev/taskboard/pkg/task"
	"tableflip.dev/taskboard/pkg/timeline"
	"tableflip.dev/taskboard/pkg/tui/events"
)

func stripANSI(s string) string {
	var b strings.Builder
	seq := false
	for _, r := range s {
		if r == ansi.Marker {
			seq = true
			continue
		}
		if seq {
			if ansi.IsTerminator(r) {
				seq = false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type board struct {
	tasks   []task.Task
	patches []task.Patch
}

func (b *board) UpdateTask(id int64, p task.Patch) {
	b.patches = append(b.patches, p)
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			b.tasks[i] = b.tasks[i].Apply(p)
		}
	}
}

func (b *board) list() []task.Task { return b.tasks }

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func editRequests(msgs []tea.Msg) []events.TaskEditRequestMsg {
	var out []events.TaskEditRequestMsg
	for _, m := range msgs {
		if e, ok := m.(events.TaskEditRequestMsg); ok {
			out = append(out, e)
		}
	}
	return out
}

// newTestModel lays out one task, 2024-01-10..14, with today 2024-01-12,
// four cells per day and a ten cell gutter. The range is 2024-01-03..21 and
// the body starts scrolled to offset 16 with today centred.
func newTestModel(t *testing.T) (*Model, *board) {
	t.Helper()
	b := &board{tasks: []task.Task{{
		ID:        1,
		Title:     "Design",
		Status:    task.StatusAnalysis,
		StartDate: task.MustDate("2024-01-10").Ptr(),
		EndDate:   task.MustDate("2024-01-14").Ptr(),
	}}}
	m := New(b, b.list, Options{
		DayWidth: 4,
		Gutter:   10,
		GroupBy:  task.GroupNone,
		Today:    func() task.Date { return task.MustDate("2024-01-12") },
	})
	m.SetSize(50, 10)
	m.Update(frameMsg{})
	if got := m.Engine().Scroll(timeline.PaneBody); got != 16 {
		t.Fatalf("expected today centred at offset 16, got %d", got)
	}
	return m, b
}

func TestDragMovesTask(t *testing.T) {
	m, b := newTestModel(t)

	// bar spans body offsets [28,48); column 32 is body offset 38.
	m.Update(tea.MouseClickMsg{X: 32, Y: 2, Button: tea.MouseLeft})
	if _, ok := m.Engine().Dragging(); !ok {
		t.Fatalf("expected a drag session")
	}
	m.Update(tea.MouseMotionMsg{X: 40, Y: 2, Button: tea.MouseLeft})
	cmd := m.Update(tea.MouseReleaseMsg{X: 40, Y: 2, Button: tea.MouseLeft})

	if len(b.patches) != 1 {
		t.Fatalf("expected one write, got %d", len(b.patches))
	}
	got := b.tasks[0]
	if got.StartDate.String() != "2024-01-12" || got.EndDate.String() != "2024-01-16" {
		t.Fatalf("unexpected dates %s..%s", got.StartDate, got.EndDate)
	}
	if reqs := editRequests(collect(cmd)); len(reqs) != 0 {
		t.Fatalf("a drag must not open the editor")
	}
	if m.Engine().Hub().Len() != 0 {
		t.Fatalf("expected pointer listeners to be released")
	}
}

func TestResizeRightHandle(t *testing.T) {
	m, b := newTestModel(t)

	// body offset 47 is the right handle.
	m.Update(tea.MouseClickMsg{X: 41, Y: 2, Button: tea.MouseLeft})
	m.Update(tea.MouseMotionMsg{X: 33, Y: 2, Button: tea.MouseLeft})
	m.Update(tea.MouseReleaseMsg{X: 33, Y: 2, Button: tea.MouseLeft})

	got := b.tasks[0]
	if got.StartDate.String() != "2024-01-10" || got.EndDate.String() != "2024-01-12" {
		t.Fatalf("unexpected dates %s..%s", got.StartDate, got.EndDate)
	}
}

func TestClickOpensEditor(t *testing.T) {
	tests := []struct {
		name string
		x    int
	}{
		{name: "bar", x: 32},
		{name: "label", x: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, b := newTestModel(t)
			press := m.Update(tea.MouseClickMsg{X: tt.x, Y: 2, Button: tea.MouseLeft})
			release := m.Update(tea.MouseReleaseMsg{X: tt.x, Y: 2, Button: tea.MouseLeft})

			reqs := editRequests(append(collect(press), collect(release)...))
			if len(reqs) != 1 {
				t.Fatalf("expected one edit request, got %d", len(reqs))
			}
			if reqs[0].Task.ID != 1 {
				t.Fatalf("expected task 1, got %d", reqs[0].Task.ID)
			}
			if len(b.patches) != 0 {
				t.Fatalf("a click must not write")
			}
		})
	}
}

func TestPressOnRulerIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tea.MouseClickMsg{X: 32, Y: 0, Button: tea.MouseLeft})
	if _, ok := m.Engine().Dragging(); ok {
		t.Fatalf("ruler presses must not start a drag")
	}
}

func TestWheelScrollsDays(t *testing.T) {
	m, _ := newTestModel(t)

	cmd := m.Update(tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	if got := m.Engine().Scroll(timeline.PaneBody); got != 20 {
		t.Fatalf("expected body offset 20, got %d", got)
	}
	if got := m.Engine().Scroll(timeline.PaneRuler); got != 20 {
		t.Fatalf("expected ruler to follow to 20, got %d", got)
	}
	if cmd == nil || !m.Engine().Syncing() {
		t.Fatalf("expected a frame tick while syncing")
	}
	m.Update(frameMsg{})
	if m.Engine().Syncing() {
		t.Fatalf("expected frame to end the sync")
	}
}

func TestFiltersAndGrouping(t *testing.T) {
	m, b := newTestModel(t)
	b.tasks = append(b.tasks, task.Task{
		ID:        2,
		Title:     "Ship",
		Status:    task.StatusDone,
		StartDate: task.MustDate("2024-01-15").Ptr(),
		EndDate:   task.MustDate("2024-01-16").Ptr(),
	})
	m.Refresh()
	if n := len(m.Engine().Layout().Rows); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}

	m.ToggleStatus(task.StatusDone)
	if rows := m.Engine().Layout().Rows; len(rows) != 1 || rows[0].Task.ID != 2 {
		t.Fatalf("expected only the done task, got %+v", rows)
	}
	m.ToggleStatus(task.StatusDone)
	if n := len(m.Engine().Layout().Rows); n != 2 {
		t.Fatalf("expected filter removed, got %d rows", n)
	}

	m.CycleGroupBy()
	if m.GroupBy() == task.GroupNone {
		t.Fatalf("expected grouping to change")
	}
}

func TestViewShowsLabelsAndEmptyState(t *testing.T) {
	m, b := newTestModel(t)
	view := stripANSI(m.View())
	if !strings.Contains(view, "Design") {
		t.Fatalf("expected task label in view:\n%s", view)
	}

	b.tasks = nil
	m.Refresh()
	view = stripANSI(m.View())
	if !strings.Contains(view, timeline.EmptyMessage) {
		t.Fatalf("expected empty message in view:\n%s", view)
	}
}

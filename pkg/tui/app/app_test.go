package teaui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/muesli/reflow/ansi"

	"tableflip.dev/taskboard/pkg/store"
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

type fakeBoard struct {
	st      *store.TaskStore
	synced  int
	patches []task.Patch
	saveErr error
	theme   string
}

func (f *fakeBoard) SetTheme(name string) error {
	f.theme = name
	return nil
}

func (f *fakeBoard) Refresh(ctx context.Context, board int64) error { return nil }
func (f *fakeBoard) LoadCached(board int64) error                   { return nil }
func (f *fakeBoard) Settings() (task.Settings, error)               { return task.Settings{}, nil }

func (f *fakeBoard) UpdateTask(ctx context.Context, id int64, p task.Patch) (task.Task, error) {
	if f.saveErr != nil {
		return task.Task{}, f.saveErr
	}
	f.patches = append(f.patches, p)
	if err := f.st.Update(id, p); err != nil {
		return task.Task{}, err
	}
	t, _ := f.st.Get(id)
	return t, nil
}

func (f *fakeBoard) Watch(ctx context.Context) (<-chan store.Event, error) {
	return nil, errors.New("watch disabled")
}

func (f *fakeBoard) SyncFromCache(board int64) (bool, error) {
	f.synced++
	return false, nil
}

// newTestModel lays out one task, 2024-01-10..14, with today 2024-01-12 in
// a 50x12 terminal: a one line header, ten timeline lines, one status line.
// The timeline body starts scrolled to offset 16 so the bar starts at
// column 22.
func newTestModel(t *testing.T) (*Model, *fakeBoard) {
	t.Helper()
	st := store.NewTaskStore(3, nil)
	t.Cleanup(st.Close)
	st.Replace(3, []task.Task{{
		ID:        1,
		Title:     "Design",
		Status:    task.StatusAnalysis,
		StartDate: task.MustDate("2024-01-10").Ptr(),
		EndDate:   task.MustDate("2024-01-14").Ptr(),
	}})
	fb := &fakeBoard{st: st}
	m := New(fb, st, Options{
		Board:    3,
		GroupBy:  task.GroupNone,
		DayWidth: 4,
		Gutter:   10,
		Today:    func() task.Date { return task.MustDate("2024-01-12") },
	})
	t.Cleanup(m.Close)

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 50, Height: 12})
	for _, msg := range collect(cmd) {
		m.Update(msg)
	}
	return m, fb
}

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
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func press(m *Model, key string) tea.Cmd {
	var msg tea.KeyPressMsg
	switch key {
	case "esc":
		msg = tea.KeyPressMsg{Code: tea.KeyEscape}
	case "enter":
		msg = tea.KeyPressMsg{Code: tea.KeyEnter}
	default:
		r := []rune(key)[0]
		msg = tea.KeyPressMsg{Code: r, Text: key}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func TestViewShowsHeaderTimelineAndFooter(t *testing.T) {
	m, _ := newTestModel(t)

	view := stripANSI(m.View())
	lines := strings.Split(view, "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 lines, got %d; view=%q", len(lines), view)
	}
	if !strings.Contains(lines[0], "Board #3") || !strings.Contains(lines[0], "group: none") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(view, "Design") {
		t.Fatalf("expected task label in view; view=%q", view)
	}
	if !strings.Contains(lines[11], "? help") {
		t.Fatalf("expected key hints in status bar, got %q", lines[11])
	}
}

func TestKeysChangeGroupingAndFilter(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, "g")
	if got := m.gantt.GroupBy(); got != task.GroupAssignee {
		t.Fatalf("expected grouping to cycle to assignee, got %q", got)
	}
	press(m, "2")
	if got := m.gantt.Statuses(); len(got) != 1 || got[0] != task.StatusAnalysis {
		t.Fatalf("expected analysis filter, got %v", got)
	}
	header := stripANSI(m.renderHeader())
	if !strings.Contains(header, "group: assignee") || !strings.Contains(header, "filter: analysis") {
		t.Fatalf("unexpected header %q", header)
	}
	press(m, "0")
	if got := m.gantt.Statuses(); len(got) != 0 {
		t.Fatalf("expected filter cleared, got %v", got)
	}
}

func TestScrollKeys(t *testing.T) {
	m, _ := newTestModel(t)

	before := m.gantt.Engine().Scroll(timeline.PaneBody)
	press(m, "l")
	after := m.gantt.Engine().Scroll(timeline.PaneBody)
	if after <= before {
		t.Fatalf("expected l to scroll forward from %d, got %d", before, after)
	}
	press(m, "h")
	if got := m.gantt.Engine().Scroll(timeline.PaneBody); got >= after {
		t.Fatalf("expected h to scroll back from %d, got %d", after, got)
	}
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t)

	cmd := press(m, "q")
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestDragThroughRootMovesTask(t *testing.T) {
	m, fb := newTestModel(t)

	// the bar row is the first timeline row below the two line ruler and
	// the one line header.
	m.Update(tea.MouseClickMsg{X: 32, Y: 3, Button: tea.MouseLeft})
	if _, ok := m.gantt.Engine().Dragging(); !ok {
		t.Fatalf("expected a drag session")
	}
	m.Update(tea.MouseMotionMsg{X: 40, Y: 3, Button: tea.MouseLeft})

	m.Update(watchEventMsg{event: store.Event{Type: store.EventTasksChanged, Board: 3}})
	if fb.synced != 0 {
		t.Fatalf("expected cache sync to wait for the drag to end")
	}

	m.Update(tea.MouseReleaseMsg{X: 40, Y: 3, Button: tea.MouseLeft})
	got, _ := fb.st.Get(1)
	if got.StartDate.String() != "2024-01-12" || got.EndDate.String() != "2024-01-16" {
		t.Fatalf("expected task moved to 2024-01-12..16, got %s..%s", got.StartDate, got.EndDate)
	}

	m.Update(watchEventMsg{event: store.Event{Type: store.EventTasksChanged, Board: 3}})
	if fb.synced != 1 {
		t.Fatalf("expected one cache sync after the drag, got %d", fb.synced)
	}
	m.Update(watchEventMsg{event: store.Event{Type: store.EventTasksChanged, Board: 9}})
	if fb.synced != 1 {
		t.Fatalf("expected events for other boards to be ignored")
	}
}

func TestEditRequestOpensEditor(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(events.TaskEditRequestMsg{Component: "gantt", Task: events.TaskRef{ID: 1}})
	if !m.pane.HasOverlay() {
		t.Fatalf("expected the task editor to open")
	}
	if view := stripANSI(m.View()); !strings.Contains(view, "Task #1") {
		t.Fatalf("expected editor in view; view=%q", view)
	}

	// keys go to the editor while it is open
	press(m, "g")
	if got := m.gantt.GroupBy(); got != task.GroupNone {
		t.Fatalf("expected grouping unchanged while editing, got %q", got)
	}
	press(m, "esc")
	if m.pane.HasOverlay() {
		t.Fatalf("expected esc to close the editor")
	}
}

func TestEditRequestForUnknownTask(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(events.TaskEditRequestMsg{Task: events.TaskRef{ID: 42}})
	if m.pane.HasOverlay() {
		t.Fatalf("expected no editor for an unknown task")
	}
	if !m.statusErr || !strings.Contains(m.status, "#42") {
		t.Fatalf("expected error status, got %q", m.status)
	}
}

func TestSaveRequestUpdatesTask(t *testing.T) {
	m, fb := newTestModel(t)

	title := "Design review"
	_, cmd := m.Update(events.TaskSaveRequestMsg{
		Task:  events.TaskRef{ID: 1, Title: "Design"},
		Patch: task.Patch{Title: &title},
	})
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one saved message, got %d", len(msgs))
	}
	m.Update(msgs[0])
	if len(fb.patches) != 1 || *fb.patches[0].Title != title {
		t.Fatalf("expected title patch, got %+v", fb.patches)
	}
	if m.statusErr || !strings.Contains(m.status, "Design review") {
		t.Fatalf("expected saved status, got %q", m.status)
	}

	fb.saveErr = errors.New("server down")
	_, cmd = m.Update(events.TaskSaveRequestMsg{Task: events.TaskRef{ID: 1}, Patch: task.Patch{Title: &title}})
	for _, msg := range collect(cmd) {
		m.Update(msg)
	}
	if !m.statusErr || !strings.Contains(m.status, "server down") {
		t.Fatalf("expected save error in status, got %q", m.status)
	}
}

func TestWriteFailureShowsInStatusBar(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(events.WriteFailedMsg{TaskID: 1, Err: errors.New("conflict"), RolledBack: true})
	footer := stripANSI(m.renderFooter())
	if !strings.Contains(footer, "task #1 not saved: conflict (reverted)") {
		t.Fatalf("unexpected footer %q", footer)
	}
}

func TestHelpToggles(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, "?")
	if !m.pane.HasOverlay() {
		t.Fatalf("expected help overlay")
	}
	press(m, "?")
	if m.pane.HasOverlay() {
		t.Fatalf("expected ? to close help")
	}
}

func TestThemeToggleIsRemembered(t *testing.T) {
	m, fb := newTestModel(t)

	if m.themeName != "dark" {
		t.Fatalf("expected dark theme by default, got %q", m.themeName)
	}
	press(m, "T")
	if m.themeName != "light" || fb.theme != "light" {
		t.Fatalf("expected light theme saved, got %q saved %q", m.themeName, fb.theme)
	}
	if !strings.Contains(m.status, "Theme: light") {
		t.Fatalf("unexpected status %q", m.status)
	}
	press(m, "T")
	if fb.theme != "dark" {
		t.Fatalf("expected dark theme saved, got %q", fb.theme)
	}
	if view := stripANSI(m.View()); !strings.Contains(view, "Design") {
		t.Fatalf("expected timeline to render after theme switch; view=%q", view)
	}
}

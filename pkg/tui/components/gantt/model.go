// Package gantt is the Bubble Tea surface around timeline.Engine: it turns
// mouse and wheel messages into engine pointer and scroll calls and drives
// the scroll synchroniser's frame ticks.
package gantt

import (
	"cmp"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/taskboard/pkg/task"
	"tableflip.dev/taskboard/pkg/timeline"
	"tableflip.dev/taskboard/pkg/tui/events"
)

// ID identifies the gantt component in emitted events.
const ID = events.ComponentID("gantt")

// frameInterval approximates one animation frame.
const frameInterval = 16 * time.Millisecond

type frameMsg struct{}

// Options configure a Model.
type Options struct {
	DayWidth int
	Gutter   int
	Styles   *timeline.Styles
	Calendar *timeline.Calendar
	Colors   map[task.Status]string
	GroupBy  task.GroupBy
	Statuses []task.Status
	Today    func() task.Date
}

// Model renders the timeline and routes pointer input into it.
type Model struct {
	engine   *timeline.Engine
	source   func() []task.Task
	colors   map[task.Status]string
	groupBy  task.GroupBy
	statuses []task.Status
	dayWidth int

	width     int
	height    int
	rowOffset int

	framePending bool
	edits        []task.Task
}

// New builds a gantt surface that reads tasks from source and writes date
// changes through updater.
func New(updater timeline.Updater, source func() []task.Task, opts Options) *Model {
	if opts.DayWidth <= 0 {
		opts.DayWidth = 4
	}
	if opts.Gutter <= 0 {
		opts.Gutter = 24
	}
	if opts.Colors == nil {
		opts.Colors = task.DefaultColors()
	}
	if opts.GroupBy == "" {
		opts.GroupBy = task.GroupStatus
	}
	m := &Model{
		source:   source,
		colors:   opts.Colors,
		groupBy:  opts.GroupBy,
		statuses: slices.Clone(opts.Statuses),
		dayWidth: opts.DayWidth,
	}
	m.engine = timeline.New(updater, timeline.Options{
		DayWidth: opts.DayWidth,
		Gutter:   opts.Gutter,
		Calendar: opts.Calendar,
		Styles:   opts.Styles,
		Today:    opts.Today,
	})
	m.Refresh()
	return m
}

// Engine exposes the underlying timeline engine.
func (m *Model) Engine() *timeline.Engine { return m.engine }

// Refresh re-reads the task source and hands the visible, sorted tasks to
// the engine.
func (m *Model) Refresh() {
	var tasks []task.Task
	if m.source != nil {
		tasks = m.source()
	}
	visible := task.Visible(tasks, m.statuses)
	slices.SortStableFunc(visible, func(a, b task.Task) int {
		if c := a.StartDate.Time().Compare(b.StartDate.Time()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	m.engine.SetProps(timeline.Props{
		Tasks:   visible,
		Colors:  m.colors,
		GroupBy: m.groupBy,
		OnEdit:  m.queueEdit,
	})
	m.clampRows()
}

func (m *Model) queueEdit(t task.Task) {
	m.edits = append(m.edits, t)
}

// GroupBy returns the active grouping.
func (m *Model) GroupBy() task.GroupBy { return m.groupBy }

// CycleGroupBy advances to the next grouping.
func (m *Model) CycleGroupBy() {
	m.groupBy = m.groupBy.Next()
	m.rowOffset = 0
	m.Refresh()
}

// Statuses returns the active status filter; empty means all.
func (m *Model) Statuses() []task.Status { return slices.Clone(m.statuses) }

// ToggleStatus adds s to the filter or removes it.
func (m *Model) ToggleStatus(s task.Status) {
	if i := slices.Index(m.statuses, s); i >= 0 {
		m.statuses = slices.Delete(m.statuses, i, i+1)
	} else {
		m.statuses = append(m.statuses, s)
	}
	m.rowOffset = 0
	m.Refresh()
}

// ClearStatuses drops the status filter.
func (m *Model) ClearStatuses() {
	m.statuses = nil
	m.rowOffset = 0
	m.Refresh()
}

// SetSize configures the drawing area. The first call with a usable width
// centres today.
func (m *Model) SetSize(width, height int) tea.Cmd {
	m.width = max(width, 1)
	m.height = max(height, timeline.RulerHeight+1)
	m.engine.SetWidth(m.width)
	m.clampRows()
	return m.autoScroll()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.autoScroll()
}

func (m *Model) autoScroll() tea.Cmd {
	if m.width <= 0 || !m.engine.AutoScroll() {
		return nil
	}
	return m.scheduleFrame()
}

func (m *Model) scheduleFrame() tea.Cmd {
	if m.framePending {
		return nil
	}
	m.framePending = true
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m *Model) scrolled(needFrame bool) tea.Cmd {
	if !needFrame {
		return nil
	}
	return m.scheduleFrame()
}

// ScrollDays scrolls the body by n days.
func (m *Model) ScrollDays(n int) tea.Cmd {
	return m.scrolled(m.engine.ScrollBy(n * m.dayWidth))
}

// ScrollToToday centres today.
func (m *Model) ScrollToToday() tea.Cmd {
	return m.scrolled(m.engine.ScrollToToday())
}

// ScrollRows moves the first visible row by n.
func (m *Model) ScrollRows(n int) {
	m.rowOffset += n
	m.clampRows()
}

func (m *Model) clampRows() {
	rows := len(m.engine.Layout().Rows)
	visible := max(m.height-timeline.RulerHeight, 1)
	m.rowOffset = max(0, min(m.rowOffset, rows-visible))
}

// Update handles pointer input, with coordinates relative to the top-left
// corner of the component, and frame ticks.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case frameMsg:
		m.framePending = false
		if m.engine.Frame() {
			cmd = m.scheduleFrame()
		}
	case tea.MouseClickMsg:
		mouse := msg.Mouse()
		if mouse.Button != tea.MouseLeft || mouse.Y < timeline.RulerHeight {
			break
		}
		row := timeline.RowAt(mouse.Y, m.rowOffset)
		if m.engine.PointerDown(m.engine.BodyX(mouse.X), row) {
			m.Refresh()
		}
	case tea.MouseMotionMsg:
		if _, ok := m.engine.Dragging(); ok {
			m.engine.PointerMove(m.engine.BodyX(msg.Mouse().X))
			m.Refresh()
		}
	case tea.MouseReleaseMsg:
		if _, ok := m.engine.Dragging(); ok {
			m.engine.PointerUp(m.engine.BodyX(msg.Mouse().X))
			m.Refresh()
		}
	case tea.MouseWheelMsg:
		cmd = m.wheel(msg.Mouse())
	}
	return tea.Batch(cmd, m.flushEdits())
}

func (m *Model) wheel(mouse tea.Mouse) tea.Cmd {
	rows := mouse.Mod&(tea.ModShift|tea.ModCtrl) != 0
	switch mouse.Button {
	case tea.MouseWheelUp:
		if rows {
			m.ScrollRows(-1)
			return nil
		}
		return m.ScrollDays(-1)
	case tea.MouseWheelDown:
		if rows {
			m.ScrollRows(1)
			return nil
		}
		return m.ScrollDays(1)
	case tea.MouseWheelLeft:
		return m.ScrollDays(-1)
	case tea.MouseWheelRight:
		return m.ScrollDays(1)
	}
	return nil
}

func (m *Model) flushEdits() tea.Cmd {
	if len(m.edits) == 0 {
		return nil
	}
	t := m.edits[len(m.edits)-1]
	m.edits = nil
	return events.TaskEditRequestCmd(ID, events.RefFromTask(t))
}

// View renders the ruler and the visible rows.
func (m *Model) View() string {
	return m.engine.Render(m.height, m.rowOffset)
}

// Package taskdetail is the overlay that edits a task's title, status,
// timeline visibility and dates.
package taskdetail

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/taskboard/pkg/task"
	"tableflip.dev/taskboard/pkg/tui/events"
	"tableflip.dev/taskboard/pkg/tui/theme"
	"tableflip.dev/taskboard/pkg/tui/ui"
)

// ID identifies the editor in emitted events.
const ID = events.ComponentID("taskdetail")

var (
	errHalfScheduled  = errors.New("set both dates or neither")
	errEndBeforeStart = errors.New("end date is before start date")
	errEmptyTitle     = errors.New("title is required")
)

type field int

const (
	fieldTitle field = iota
	fieldStatus
	fieldHidden
	fieldStart
	fieldEnd
	fieldCount
)

// Model edits one task. Enter emits a TaskSaveRequestMsg with only the
// changed fields; esc discards.
type Model struct {
	original task.Task
	status   task.Status
	hidden   bool

	title textinput.Model
	start textinput.Model
	end   textinput.Model

	focus  field
	width  int
	height int
	errMsg string
	th     theme.ModalTheme
}

// New builds an editor seeded from t.
func New(t task.Task, th theme.ModalTheme) *Model {
	m := &Model{
		original: t,
		status:   t.Status,
		hidden:   t.HiddenFromGantt,
		title:    newInput("Task title", t.Title),
		start:    newInput("YYYY-MM-DD", dateValue(t.StartDate)),
		end:      newInput("YYYY-MM-DD", dateValue(t.EndDate)),
		th:       th,
	}
	return m
}

func newInput(placeholder, value string) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.VirtualCursor = true
	in.Placeholder = placeholder
	in.CharLimit = 256
	in.SetValue(value)
	return in
}

func dateValue(d *task.Date) string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.String()
}

// Init implements ui.Overlay.
func (m *Model) Init() tea.Cmd { return nil }

// Focus puts the cursor in the title field.
func (m *Model) Focus() tea.Cmd {
	return m.setFocus(fieldTitle)
}

func (m *Model) input(f field) *textinput.Model {
	switch f {
	case fieldTitle:
		return &m.title
	case fieldStart:
		return &m.start
	case fieldEnd:
		return &m.end
	}
	return nil
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.focus = f
	var cmd tea.Cmd
	for _, candidate := range []field{fieldTitle, fieldStart, fieldEnd} {
		in := m.input(candidate)
		if candidate == f {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

// Update handles editing keys.
func (m *Model) Update(msg tea.Msg) (ui.Overlay, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc":
		return nil, events.OverlayCloseCmd(ID)
	case "enter":
		p, err := m.Patch()
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		if p.Empty() {
			return nil, events.OverlayCloseCmd(ID)
		}
		return nil, tea.Batch(
			events.OverlayCloseCmd(ID),
			events.TaskSaveRequestCmd(ID, events.RefFromTask(m.original), p),
		)
	case "tab", "down":
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	}

	switch m.focus {
	case fieldStatus:
		switch key.String() {
		case "left", "h":
			m.status = cycleStatus(m.status, -1)
		case "right", "l", "space":
			m.status = cycleStatus(m.status, 1)
		}
		return m, nil
	case fieldHidden:
		switch key.String() {
		case "space", "left", "right", "h", "l":
			m.hidden = !m.hidden
		}
		return m, nil
	}

	in := m.input(m.focus)
	next, cmd := in.Update(msg)
	*in = next
	m.errMsg = ""
	return m, cmd
}

func cycleStatus(s task.Status, step int) task.Status {
	all := task.AllStatuses()
	i := slices.Index(all, s)
	if i < 0 {
		return all[0]
	}
	return all[(i+step+len(all))%len(all)]
}

// Patch returns the changes made so far.
func (m *Model) Patch() (task.Patch, error) {
	var p task.Patch

	title := strings.TrimSpace(m.title.Value())
	if title == "" {
		return p, errEmptyTitle
	}
	if title != m.original.Title {
		p.Title = &title
	}
	if m.status != m.original.Status {
		status := m.status
		p.Status = &status
	}
	if m.hidden != m.original.HiddenFromGantt {
		hidden := m.hidden
		p.HiddenFromGantt = &hidden
	}

	start, err := parseOptional(m.start.Value())
	if err != nil {
		return p, fmt.Errorf("start: %w", err)
	}
	end, err := parseOptional(m.end.Value())
	if err != nil {
		return p, fmt.Errorf("end: %w", err)
	}
	if start.IsZero() != end.IsZero() {
		return p, errHalfScheduled
	}
	if !start.IsZero() && end.Before(start) {
		return p, errEndBeforeStart
	}
	if !sameDay(m.original.StartDate, start) {
		p.StartDate = &start
	}
	if !sameDay(m.original.EndDate, end) {
		p.EndDate = &end
	}
	return p, nil
}

func parseOptional(raw string) (task.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return task.Date{}, nil
	}
	return task.ParseDate(raw)
}

func sameDay(orig *task.Date, d task.Date) bool {
	if orig == nil || orig.IsZero() {
		return d.IsZero()
	}
	return orig.Equal(d)
}

// SetSize configures the overlay bounds.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	inputWidth := max(min(width-24, 48), 12)
	m.title.SetWidth(inputWidth)
	m.start.SetWidth(12)
	m.end.SetWidth(12)
}

// View renders the editor frame.
func (m *Model) View() (string, *tea.Cursor) {
	const labelWidth = 8
	label := m.th.Label.Width(labelWidth)

	row := func(f field, name, value string) string {
		marker := "  "
		if m.focus == f {
			marker = m.th.Selected.Render("▸ ")
		}
		return marker + label.Render(name) + value
	}

	status := m.th.Value.Render("‹ ") +
		lipgloss.NewStyle().Foreground(lipgloss.Color(m.status.Color())).Bold(true).Render(string(m.status)) +
		m.th.Value.Render(" ›")
	hidden := "[ ] hide from timeline"
	if m.hidden {
		hidden = "[x] hide from timeline"
	}

	lines := []string{
		m.th.Title.Render(fmt.Sprintf("Task #%d", m.original.ID)),
		"",
		row(fieldTitle, "Title", m.title.View()),
		row(fieldStatus, "Status", status),
		row(fieldHidden, "Hidden", m.th.Value.Render(hidden)),
		row(fieldStart, "Start", m.start.View()),
		row(fieldEnd, "End", m.end.View()),
		"",
	}
	if m.errMsg != "" {
		lines = append(lines, m.th.Error.Render(m.errMsg))
	} else {
		lines = append(lines, m.th.Label.Render("tab next · enter save · esc cancel"))
	}

	body := strings.Join(lines, "\n")
	view := m.th.Frame.Render(body)

	var cursor *tea.Cursor
	if in := m.input(m.focus); in != nil {
		if c := in.Cursor(); c != nil {
			moved := *c
			rowIndex := map[field]int{fieldTitle: 2, fieldStart: 5, fieldEnd: 6}[m.focus]
			moved.Position.X += 2 + labelWidth + m.th.Frame.GetBorderLeftSize() + m.th.Frame.GetPaddingLeft()
			moved.Position.Y += rowIndex + m.th.Frame.GetBorderTopSize() + m.th.Frame.GetPaddingTop()
			cursor = &moved
		}
	}
	return view, cursor
}

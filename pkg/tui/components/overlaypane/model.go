package overlaypane

import (
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/taskboard/pkg/tui/ui"
	overlaymgr "tableflip.dev/taskboard/pkg/tui/ui/overlay"
)

type focusable interface {
	Focus() tea.Cmd
}

// Model composes a background surface with an optional overlay.
type Model struct {
	width  int
	height int

	background string

	overlay   ui.Overlay
	placement ui.OverlayPlacement
}

// New constructs a container sized to width x height.
func New(width, height int) *Model {
	m := &Model{}
	m.SetSize(width, height)
	return m
}

// SetSize updates the container bounds.
func (m *Model) SetSize(width, height int) {
	m.width = max(width, 1)
	m.height = max(height, 1)
	if m.overlay != nil {
		ow, oh := m.overlaySize()
		m.overlay.SetSize(ow, oh)
	}
}

// SetBackground records the background view.
func (m *Model) SetBackground(view string) {
	m.background = view
}

// SetOverlay mounts an overlay using the provided placement, replacing any
// overlay already shown.
func (m *Model) SetOverlay(overlay ui.Overlay, placement ui.OverlayPlacement) tea.Cmd {
	if overlay == nil {
		return nil
	}
	m.overlay = overlay
	m.placement = placement
	ow, oh := m.overlaySize()
	m.overlay.SetSize(ow, oh)
	cmds := []tea.Cmd{m.overlay.Init()}
	if f, ok := overlay.(focusable); ok {
		cmds = append(cmds, f.Focus())
	}
	return tea.Batch(cmds...)
}

// ClearOverlay removes any active overlay.
func (m *Model) ClearOverlay() {
	m.overlay = nil
}

// HasOverlay reports if an overlay is currently mounted.
func (m *Model) HasOverlay() bool { return m.overlay != nil }

// Overlay returns the mounted overlay, or nil.
func (m *Model) Overlay() ui.Overlay { return m.overlay }

// Update forwards messages to the overlay when present.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	if m.overlay == nil {
		return nil
	}
	next, cmd := m.overlay.Update(msg)
	m.overlay = next
	return cmd
}

// View renders the composed view and the overlay's cursor, translated into
// container coordinates.
func (m *Model) View() (string, *tea.Cursor) {
	if m.overlay == nil {
		return overlaymgr.Compose(m.background, m.width, m.height, "", overlaymgr.Placement{}), nil
	}
	fg, cur := m.overlay.View()
	placement := m.composePlacement()
	view := overlaymgr.Compose(m.background, m.width, m.height, fg, placement)
	if cur == nil {
		return view, nil
	}
	x, y, _, _ := overlaymgr.Bounds(fg, m.width, m.height, placement)
	moved := *cur
	moved.X += x
	moved.Y += y
	return view, &moved
}

func (m *Model) overlaySize() (int, int) {
	if m.placement.Fullscreen {
		return m.width, m.height
	}
	w := m.placement.Width
	if w <= 0 || w > m.width {
		w = m.width
	}
	h := m.placement.Height
	if h <= 0 || h > m.height {
		h = m.height
	}
	return w, h
}

func (m *Model) composePlacement() overlaymgr.Placement {
	w, h := m.overlaySize()
	if m.placement.Fullscreen {
		return overlaymgr.Placement{
			Horizontal: lipgloss.Left,
			Vertical:   lipgloss.Top,
			Width:      w,
			Height:     h,
		}
	}
	return overlaymgr.Placement{
		Horizontal: m.placement.Horizontal,
		Vertical:   m.placement.Vertical,
		MarginX:    m.placement.MarginX,
		MarginY:    m.placement.MarginY,
		Width:      w,
		Height:     h,
	}
}

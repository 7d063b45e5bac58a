package ui

import (
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
)

// Overlay is a modal surface drawn on top of the timeline. Returning a nil
// Overlay from Update dismisses it.
type Overlay interface {
	Init() tea.Cmd
	Update(tea.Msg) (Overlay, tea.Cmd)
	View() (string, *tea.Cursor)
	SetSize(width, height int)
}

// OverlayPlacement controls where an overlay is rendered relative to the
// content viewport.
type OverlayPlacement struct {
	Width      int
	Height     int
	Horizontal lipgloss.Position
	Vertical   lipgloss.Position
	MarginX    int
	MarginY    int
	Fullscreen bool
}

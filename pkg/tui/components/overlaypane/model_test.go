package overlaypane

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"tableflip.dev/taskboard/pkg/tui/ui"
)

type stubOverlay struct {
	view    string
	w, h    int
	updates int
	closeOn string
}

func (s *stubOverlay) Init() tea.Cmd { return nil }

func (s *stubOverlay) Update(msg tea.Msg) (ui.Overlay, tea.Cmd) {
	s.updates++
	if k, ok := msg.(tea.KeyPressMsg); ok && k.String() == s.closeOn {
		return nil, nil
	}
	return s, nil
}

func (s *stubOverlay) View() (string, *tea.Cursor) {
	return s.view, tea.NewCursor(1, 0)
}

func (s *stubOverlay) SetSize(w, h int) { s.w, s.h = w, h }

func TestOverlayComposesOverBackground(t *testing.T) {
	m := New(10, 3)
	m.SetBackground(strings.Repeat("-", 10) + "\n" + strings.Repeat("-", 10) + "\n" + strings.Repeat("-", 10))
	stub := &stubOverlay{view: "ok", closeOn: "esc"}
	m.SetOverlay(stub, ui.OverlayPlacement{Horizontal: lipgloss.Center, Vertical: lipgloss.Center})

	if stub.w != 10 || stub.h != 3 {
		t.Fatalf("expected overlay sized to container, got %dx%d", stub.w, stub.h)
	}

	view, cur := m.View()
	lines := strings.Split(ansi.Strip(view), "\n")
	if lines[1] != "----ok----" {
		t.Fatalf("unexpected middle line %q", lines[1])
	}
	if cur == nil || cur.X != 5 || cur.Y != 1 {
		t.Fatalf("expected cursor translated to (5,1), got %+v", cur)
	}
}

func TestOverlayDismissesItself(t *testing.T) {
	m := New(10, 3)
	stub := &stubOverlay{view: "ok", closeOn: "esc"}
	m.SetOverlay(stub, ui.OverlayPlacement{})

	m.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	if !m.HasOverlay() {
		t.Fatalf("overlay should stay mounted")
	}
	m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.HasOverlay() {
		t.Fatalf("overlay should be dismissed")
	}
	if stub.updates != 2 {
		t.Fatalf("expected 2 updates, got %d", stub.updates)
	}
}

package teaui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/taskboard/pkg/store"
)

type watchStartedMsg struct {
	ch     <-chan store.Event
	cancel context.CancelFunc
	err    error
}

type watchEventMsg struct {
	event store.Event
}

type watchStoppedMsg struct{}

func startWatchCmd(parent context.Context, svc Board) tea.Cmd {
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(parent)
		ch, err := svc.Watch(ctx)
		if err != nil {
			cancel()
			return watchStartedMsg{err: err}
		}
		return watchStartedMsg{ch: ch, cancel: cancel}
	}
}

func (m *Model) waitForWatch() tea.Cmd {
	if m.watchCh == nil {
		return nil
	}
	ch := m.watchCh
	return func() tea.Msg {
		if ev, ok := <-ch; ok {
			return watchEventMsg{event: ev}
		}
		return watchStoppedMsg{}
	}
}

func (m *Model) stopWatch() {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	m.watchCh = nil
}

// handleWatchEvent reacts to another process touching the on-disk cache.
// Our own store writes the cache too, so task events are reconciled against
// the store rather than applied blindly.
func (m *Model) handleWatchEvent(ev store.Event) tea.Cmd {
	switch ev.Type {
	case store.EventTasksChanged:
		if ev.Board != 0 && ev.Board != m.board {
			return nil
		}
		m.syncFromCache()
	case store.EventSettingsChanged:
		return m.loadSettings()
	case store.EventSessionChanged:
		m.setStatus("Session changed in another process")
	case store.EventInvalidated:
		m.syncFromCache()
		return m.loadSettings()
	}
	return nil
}

// syncFromCache is skipped while a drag is active; the drag owns the cached
// list until it ends.
func (m *Model) syncFromCache() {
	if m.svc == nil {
		return
	}
	if _, dragging := m.gantt.Engine().Dragging(); dragging {
		return
	}
	changed, err := m.svc.SyncFromCache(m.board)
	if err != nil {
		m.setError("sync: " + err.Error())
		return
	}
	if changed {
		m.gantt.Refresh()
		m.setStatus("Board changed in another process")
	}
}

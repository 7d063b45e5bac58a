package events

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/taskboard/pkg/task"
)

// ComponentID uniquely identifies a component instance emitting events.
type ComponentID string

// TaskRef captures the metadata required to identify a task in
// cross-component events.
type TaskRef struct {
	ID     int64
	Title  string
	Status task.Status
}

// RefFromTask converts a task into an event reference.
func RefFromTask(t task.Task) TaskRef {
	return TaskRef{ID: t.ID, Title: t.Title, Status: t.Status}
}

// Label returns a human-friendly identifier for the task.
func (r TaskRef) Label() string {
	if r.Title != "" {
		return fmt.Sprintf("#%d %s", r.ID, r.Title)
	}
	return fmt.Sprintf("#%d", r.ID)
}

// ChangeType enumerates supported change actions across components.
type ChangeType string

const (
	// ChangeCreate indicates a new task appeared.
	ChangeCreate ChangeType = "create"
	// ChangeUpdate indicates an existing task changed.
	ChangeUpdate ChangeType = "update"
	// ChangeDelete indicates a task was removed.
	ChangeDelete ChangeType = "delete"
)

// TaskChangeMsg announces lifecycle changes to tasks regardless of their
// origin (drag, edit overlay, refresh, another process).
type TaskChangeMsg struct {
	Component ComponentID
	Action    ChangeType
	Task      TaskRef
}

// Describe renders the change in a human-friendly format for logs.
func (m TaskChangeMsg) Describe() string {
	return fmt.Sprintf(`action:%q task:%q`, m.Action, m.Task.Label())
}

// BoardChangedMsg announces that the task list was replaced or mutated and
// listeners should re-read their snapshot.
type BoardChangedMsg struct {
	Component ComponentID
	Count     int
}

// Describe implements the logging helper.
func (m BoardChangedMsg) Describe() string {
	return fmt.Sprintf(`component:%q tasks:%d`, m.Component, m.Count)
}

// WriteFailedMsg reports a remote write that failed after the local copy
// was already updated.
type WriteFailedMsg struct {
	Component  ComponentID
	TaskID     int64
	Err        error
	RolledBack bool
}

// Describe implements the logging helper.
func (m WriteFailedMsg) Describe() string {
	return fmt.Sprintf(`task:%d rolledBack:%t err:%q`, m.TaskID, m.RolledBack, m.Err)
}

// TaskEditRequestMsg asks the root model to open the detail overlay for a
// task.
type TaskEditRequestMsg struct {
	Component ComponentID
	Task      TaskRef
}

// Describe renders the request for logs.
func (m TaskEditRequestMsg) Describe() string {
	return fmt.Sprintf(`component:%q task:%q`, m.Component, m.Task.Label())
}

// TaskEditRequestCmd wraps TaskEditRequestMsg in a tea.Cmd.
func TaskEditRequestCmd(component ComponentID, ref TaskRef) tea.Cmd {
	return func() tea.Msg {
		return TaskEditRequestMsg{Component: component, Task: ref}
	}
}

// TaskSaveRequestMsg asks the root model to persist a patch built by an
// editor.
type TaskSaveRequestMsg struct {
	Component ComponentID
	Task      TaskRef
	Patch     task.Patch
}

// Describe renders the request for logs.
func (m TaskSaveRequestMsg) Describe() string {
	return fmt.Sprintf(`component:%q task:%q`, m.Component, m.Task.Label())
}

// TaskSaveRequestCmd wraps TaskSaveRequestMsg in a tea.Cmd.
func TaskSaveRequestCmd(component ComponentID, ref TaskRef, p task.Patch) tea.Cmd {
	return func() tea.Msg {
		return TaskSaveRequestMsg{Component: component, Task: ref, Patch: p}
	}
}

// OverlayCloseMsg is emitted when an overlay dismisses itself.
type OverlayCloseMsg struct {
	Component ComponentID
}

// Describe implements the logging helper.
func (m OverlayCloseMsg) Describe() string {
	return fmt.Sprintf(`component:%q`, m.Component)
}

// OverlayCloseCmd wraps OverlayCloseMsg in a tea.Cmd helper.
func OverlayCloseCmd(component ComponentID) tea.Cmd {
	return func() tea.Msg {
		return OverlayCloseMsg{Component: component}
	}
}

// DebugMsg captures optional diagnostic notes emitted by components.
type DebugMsg struct {
	Component ComponentID
	Context   string
	Detail    string
}

// Describe renders the debug message in a human-readable format.
func (m DebugMsg) Describe() string {
	return fmt.Sprintf(`component:%q context:%q detail:%q`, m.Component, m.Context, m.Detail)
}

// DebugCmd wraps DebugMsg creation in a tea.Cmd helper.
func DebugCmd(component ComponentID, context, detail string) tea.Cmd {
	return func() tea.Msg {
		return DebugMsg{Component: component, Context: context, Detail: detail}
	}
}

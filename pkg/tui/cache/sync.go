package cache

import (
	"context"
	"slices"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/task"
	"tableflip.dev/taskboard/pkg/tui/events"
)

// Loader is the part of the application service the cache loads from.
type Loader interface {
	Refresh(ctx context.Context, board int64) error
	LoadCached(board int64) error
	Settings() (task.Settings, error)
}

var _ Loader = (*app.Service)(nil)

// LoadBoard loads board into the task store through svc and returns the
// board settings. When refresh is set the board is fetched from the server;
// a failed fetch falls back to the on-disk copy and the fetch error is
// returned alongside.
func LoadBoard(ctx context.Context, svc Loader, board int64, refresh bool) (task.Settings, error) {
	var fetchErr error
	if refresh {
		fetchErr = svc.Refresh(ctx, board)
	}
	if !refresh || fetchErr != nil {
		if err := svc.LoadCached(board); err != nil && fetchErr == nil {
			return task.Settings{}, err
		}
	}
	settings, err := svc.Settings()
	if err != nil && fetchErr == nil {
		fetchErr = err
	}
	return settings, fetchErr
}

// Sync replaces the cached tasks and emits a TaskChangeMsg for every task
// that appeared, changed or vanished, followed by one BoardChangedMsg.
func (c *Cache) Sync(tasks []task.Task) {
	c.mu.Lock()
	old := c.tasks
	c.tasks = slices.Clone(tasks)
	c.mu.Unlock()

	for _, msg := range diffTasks(c.component, old, tasks) {
		c.emit(msg)
	}
	c.emit(events.BoardChangedMsg{Component: c.component, Count: len(tasks)})
}

func diffTasks(component events.ComponentID, oldTasks, newTasks []task.Task) []events.TaskChangeMsg {
	prev := make(map[int64]task.Task, len(oldTasks))
	for _, t := range oldTasks {
		prev[t.ID] = t
	}
	var out []events.TaskChangeMsg
	seen := make(map[int64]bool, len(newTasks))
	for _, t := range newTasks {
		seen[t.ID] = true
		before, ok := prev[t.ID]
		switch {
		case !ok:
			out = append(out, events.TaskChangeMsg{Component: component, Action: events.ChangeCreate, Task: events.RefFromTask(t)})
		case taskChanged(before, t):
			out = append(out, events.TaskChangeMsg{Component: component, Action: events.ChangeUpdate, Task: events.RefFromTask(t)})
		}
	}
	for _, t := range oldTasks {
		if !seen[t.ID] {
			out = append(out, events.TaskChangeMsg{Component: component, Action: events.ChangeDelete, Task: events.RefFromTask(t)})
		}
	}
	return out
}

func taskChanged(a, b task.Task) bool {
	return a.Title != b.Title ||
		a.Status != b.Status ||
		a.Priority != b.Priority ||
		a.AssigneeName != b.AssigneeName ||
		a.HiddenFromGantt != b.HiddenFromGantt ||
		!sameDate(a.StartDate, b.StartDate) ||
		!sameDate(a.EndDate, b.EndDate) ||
		!slices.Equal(a.Tags, b.Tags)
}

func sameDate(a, b *task.Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

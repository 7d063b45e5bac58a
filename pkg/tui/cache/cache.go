package cache

import (
	"context"
	"log"
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/taskboard/pkg/store"
	"tableflip.dev/taskboard/pkg/task"
	"tableflip.dev/taskboard/pkg/tui/events"
)

// Snapshot exposes the current cached state.
type Snapshot struct {
	Tasks    []task.Task
	Settings task.Settings
}

// Source is the task store the cache mirrors.
type Source interface {
	Tasks() []task.Task
	Subscribe(fn func()) (cancel func())
}

// Cache maintains an in-memory copy of the board and emits typed events on
// mutation. It mirrors the behavior of a Kubernetes-style informer cache:
// state lives locally, watchers subscribe to emitted events, and consumers read
// consistent snapshots without hitting the store.
type Cache struct {
	component events.ComponentID

	mu       sync.RWMutex
	tasks    []task.Task
	settings task.Settings

	eventCh chan tea.Msg
}

// New creates an empty cache that will emit events using the provided
// ComponentID (falls back to "cache" if empty).
func New(component events.ComponentID) *Cache {
	if component == "" {
		component = events.ComponentID("cache")
	}
	return &Cache{
		component: component,
		eventCh:   make(chan tea.Msg, 64),
	}
}

// Events exposes the cache event channel for Bubble Tea subscriptions.
func (c *Cache) Events() <-chan tea.Msg {
	return c.eventCh
}

// Next waits for the next cache event. Callers re-issue it after every
// event they receive.
func (c *Cache) Next() tea.Cmd {
	ch := c.eventCh
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// Attach seeds the cache from src and keeps it in sync until the returned
// cancel func is called.
func (c *Cache) Attach(src Source) (cancel func()) {
	c.Sync(src.Tasks())
	return src.Subscribe(func() {
		c.Sync(src.Tasks())
	})
}

// Pump forwards failed remote writes as WriteFailedMsg until ctx is done or
// errs closes.
func (c *Cache) Pump(ctx context.Context, errs <-chan store.WriteError) {
	for {
		select {
		case <-ctx.Done():
			return
		case werr, ok := <-errs:
			if !ok {
				return
			}
			c.emit(events.WriteFailedMsg{
				Component:  c.component,
				TaskID:     werr.TaskID,
				Err:        werr.Err,
				RolledBack: werr.RolledBack,
			})
		}
	}
}

// SetSettings replaces the cached executors and tags.
func (c *Cache) SetSettings(s task.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
}

// Snapshot returns a copy of the current tasks and settings. The returned
// data should be treated as immutable by callers.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Tasks:    slices.Clone(c.tasks),
		Settings: c.settings,
	}
}

// Task returns one cached task.
func (c *Cache) Task(id int64) (task.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

func (c *Cache) emit(msg tea.Msg) {
	select {
	case c.eventCh <- msg:
	default:
		log.Printf("cache: event channel full, dropping %T", msg)
	}
}

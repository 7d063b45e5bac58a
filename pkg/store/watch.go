package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType describes the nature of a cache change notification.
type EventType int

const (
	// EventTasksChanged indicates the cached task list of Board changed.
	EventTasksChanged EventType = iota

	// EventSettingsChanged indicates executors or tags changed.
	EventSettingsChanged

	// EventSessionChanged indicates a login or logout in another process.
	EventSessionChanged

	// EventInvalidated signals a change that could not be classified;
	// callers should reload everything.
	EventInvalidated
)

// Event is emitted by Cache.Watch when another writer touches the cache.
type Event struct {
	Type  EventType
	Key   string
	Board int64
}

// Watch streams change events until ctx is cancelled. Callers should drain the
// returned channel to avoid blocking the watcher. The channel is closed once
// ctx is done or the watcher encounters an unrecoverable error.
func (c *cache) Watch(ctx context.Context) (<-chan Event, error) {
	if err := c.ensureBase(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				log.Printf("store: watcher close: %v", err)
			}
		})
	}

	dirs, err := collectDirs(c.basePath)
	if err != nil {
		closeWatcher()
		return nil, fmt.Errorf("store: enumerate directories: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("store: watch %s: %w", dir, err)
		}
	}

	events := make(chan Event, 64)

	go func() {
		defer close(events)
		defer closeWatcher()

		watched := make(map[string]struct{}, len(dirs))
		for _, dir := range dirs {
			watched[dir] = struct{}{}
		}

		send := func(ev Event) {
			select {
			case events <- ev:
			default:
				// Consumer is behind; the next event triggers a reload anyway.
			}
		}

		throttle := newEventThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("store: watcher: %v", err)
				throttle.Enqueue(Event{Type: EventInvalidated}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}

				if evt.Op&fsnotify.Create == fsnotify.Create {
					if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
						dir := filepath.Clean(evt.Name)
						if c.isTemp(dir) {
							continue
						}
						if _, found := watched[dir]; !found {
							if err := watcher.Add(dir); err != nil {
								log.Printf("store: watch %s: %v", dir, err)
							} else {
								watched[dir] = struct{}{}
							}
						}
						throttle.Enqueue(Event{Type: EventInvalidated}, send)
						continue
					}
				}

				if c.isTemp(evt.Name) {
					continue
				}
				throttle.Enqueue(c.eventForPath(evt.Name), send)
			}
		}
	}()

	return events, nil
}

// collectDirs walks base and returns all directories that should be watched.
func collectDirs(base string) ([]string, error) {
	dirs := []string{base}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && path != base {
			if d.Name() == tempDir {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

func (c *cache) isTemp(path string) bool {
	rel, err := filepath.Rel(c.basePath, path)
	if err != nil {
		return false
	}
	return rel == tempDir || strings.HasPrefix(rel, tempDir+string(os.PathSeparator))
}

// eventForPath derives the cache key a diskv path belongs to.
func (c *cache) eventForPath(path string) Event {
	rel, err := filepath.Rel(c.basePath, path)
	if err != nil || rel == "." {
		return Event{Type: EventInvalidated}
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	key := pathToKeyTransform(keyToPathTransform(strings.Join(parts, "-")))

	switch {
	case key == keySettings:
		return Event{Type: EventSettingsChanged, Key: key}
	case key == keySession:
		return Event{Type: EventSessionChanged, Key: key}
	case len(parts) == 2 && parts[0] == tasksPrefix:
		board, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Event{Type: EventInvalidated}
		}
		return Event{Type: EventTasksChanged, Key: key, Board: board}
	}
	return Event{Type: EventInvalidated, Key: key}
}

// eventThrottle coalesces rapid change notifications so the UI can redraw once
// per burst of filesystem activity instead of on every single write.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]Event
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[string]Event),
	}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	t.pending[fmt.Sprintf("%d/%s", ev.Type, ev.Key)] = ev

	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[string]Event)
	t.timer = nil
	t.mu.Unlock()

	for _, ev := range pending {
		send(ev)
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}

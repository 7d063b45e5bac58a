package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/taskboard/pkg/task"
)

const (
	keySettings = "settings"
	keyTheme    = "theme"
	keySession  = "session"
	tasksPrefix = "tasks"
	tempDir     = ".tmp"
)

// Session is the signed-in user and the board they last opened.
type Session struct {
	User  task.User `json:"user"`
	Board int64     `json:"board,omitempty"`
}

// Cache is the local key-value copy of board data.
type Cache interface {
	Tasks(board int64) ([]task.Task, error)
	StoreTasks(board int64, tasks []task.Task) error
	Settings() (task.Settings, error)
	StoreSettings(s task.Settings) error
	Session() (Session, bool, error)
	StoreSession(s Session) error
	ClearSession() error
	Theme() string
	StoreTheme(theme string) error
	Watch(ctx context.Context) (<-chan Event, error)
}

// Load creates a Cache backed by diskv using the provided config.
func Load(cfg Config) (Cache, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}

	basePath := cfg.BasePath()
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	return &cache{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		TempDir:           filepath.Join(basePath, tempDir),
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	}), basePath: basePath}, nil
}

type cache struct {
	d        *diskv.Diskv
	basePath string
}

func tasksKey(board int64) string {
	return tasksPrefix + "-" + strconv.FormatInt(board, 10)
}

// readJSON decodes key into v. A missing key leaves v untouched and reports
// false.
func (c *cache) readJSON(key string, v any) (bool, error) {
	val, err := c.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("store: read %s: %w", key, err)
	}
	if err := json.Unmarshal(val, v); err != nil {
		return false, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return true, nil
}

func (c *cache) writeJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := c.d.Write(key, data); err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	return nil
}

func (c *cache) Tasks(board int64) ([]task.Task, error) {
	var tasks []task.Task
	if _, err := c.readJSON(tasksKey(board), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *cache) StoreTasks(board int64, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	return c.writeJSON(tasksKey(board), tasks)
}

func (c *cache) Settings() (task.Settings, error) {
	s := task.Settings{Executors: []task.User{}, Tags: []task.Tag{}}
	if _, err := c.readJSON(keySettings, &s); err != nil {
		return task.Settings{}, err
	}
	return s, nil
}

func (c *cache) StoreSettings(s task.Settings) error {
	return c.writeJSON(keySettings, s)
}

func (c *cache) Session() (Session, bool, error) {
	var s Session
	ok, err := c.readJSON(keySession, &s)
	return s, ok, err
}

func (c *cache) StoreSession(s Session) error {
	return c.writeJSON(keySession, s)
}

func (c *cache) ClearSession() error {
	if err := c.d.Erase(keySession); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: erase session: %w", err)
	}
	return nil
}

// Theme is "light" unless "dark" was stored.
func (c *cache) Theme() string {
	val, err := c.d.Read(keyTheme)
	if err != nil || strings.TrimSpace(string(val)) != "dark" {
		return "light"
	}
	return "dark"
}

func (c *cache) StoreTheme(theme string) error {
	if theme != "dark" {
		theme = "light"
	}
	if err := c.d.Write(keyTheme, []byte(theme)); err != nil {
		return fmt.Errorf("store: write theme: %w", err)
	}
	return nil
}

func (c *cache) ensureBase() error {
	if err := os.MkdirAll(c.basePath, 0o755); err != nil {
		return fmt.Errorf("store: ensure base path: %w", err)
	}
	return nil
}

// keyToPathTransform maps "tasks-3" to tasks/3 and plain keys to files in
// the base directory.
func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

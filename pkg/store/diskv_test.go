package store

import (
	"reflect"
	"testing"

	"tableflip.dev/taskboard/pkg/task"
)

func TestCacheRoundTrip(t *testing.T) {
	c, err := Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}

	tasks, err := c.Tasks(1)
	if err != nil || len(tasks) != 0 {
		t.Fatalf("empty cache = %v, %v", tasks, err)
	}

	want := []task.Task{{
		ID:        12345,
		Title:     "Ship",
		Status:    task.StatusReview,
		Priority:  task.PriorityHigh,
		StartDate: task.MustDate("2024-01-10").Ptr(),
		EndDate:   task.MustDate("2024-01-15").Ptr(),
	}}
	if err := c.StoreTasks(1, want); err != nil {
		t.Fatalf("store tasks: %v", err)
	}
	got, err := c.Tasks(1)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tasks = %+v, want %+v", got, want)
	}
	if other, _ := c.Tasks(2); len(other) != 0 {
		t.Fatalf("board 2 leaked tasks: %+v", other)
	}
}

func TestCacheSession(t *testing.T) {
	c, err := Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}
	if _, ok, err := c.Session(); ok || err != nil {
		t.Fatalf("session before login = %v, %v", ok, err)
	}
	s := Session{User: task.User{ID: 7, Login: "ann", Name: "Ann"}, Board: 3}
	if err := c.StoreSession(s); err != nil {
		t.Fatalf("store session: %v", err)
	}
	got, ok, err := c.Session()
	if !ok || err != nil || got != s {
		t.Fatalf("session = %+v, %v, %v", got, ok, err)
	}
	if err := c.ClearSession(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := c.ClearSession(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if _, ok, _ := c.Session(); ok {
		t.Fatal("session survived logout")
	}
}

func TestCacheSettingsAndTheme(t *testing.T) {
	c, err := Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}
	s, err := c.Settings()
	if err != nil || s.Executors == nil || s.Tags == nil {
		t.Fatalf("default settings = %+v, %v", s, err)
	}
	if c.Theme() != "light" {
		t.Fatalf("default theme = %s", c.Theme())
	}
	if err := c.StoreTheme("dark"); err != nil {
		t.Fatal(err)
	}
	if c.Theme() != "dark" {
		t.Fatalf("theme = %s", c.Theme())
	}
	if err := c.StoreTheme("neon"); err != nil {
		t.Fatal(err)
	}
	if c.Theme() != "light" {
		t.Fatalf("unknown theme not coerced: %s", c.Theme())
	}
}

func TestKeyTransforms(t *testing.T) {
	for _, key := range []string{"tasks-3", "settings", "session"} {
		if got := pathToKeyTransform(keyToPathTransform(key)); got != key {
			t.Errorf("round trip %q = %q", key, got)
		}
	}
}

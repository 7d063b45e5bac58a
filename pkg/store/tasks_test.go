package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tableflip.dev/taskboard/pkg/task"
)

type call struct {
	id    int64
	patch task.Patch
	by    int64
}

type fakeRemote struct {
	mu    sync.Mutex
	calls []call
	fail  map[int]error
	gate  chan struct{}
}

func (f *fakeRemote) UpdateTask(ctx context.Context, id int64, p task.Patch, by int64) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{id: id, patch: p, by: by})
	return f.fail[len(f.calls)]
}

func (f *fakeRemote) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func seed() []task.Task {
	return []task.Task{{
		ID:        1,
		Title:     "one",
		StartDate: task.MustDate("2024-01-10").Ptr(),
		EndDate:   task.MustDate("2024-01-15").Ptr(),
	}}
}

func shift(days int) task.Patch {
	s := task.MustDate("2024-01-10").AddDays(days)
	e := task.MustDate("2024-01-15").AddDays(days)
	return task.Patch{StartDate: &s, EndDate: &e}
}

func TestUpdateAppliesLocallyAndWritesInOrder(t *testing.T) {
	remote := &fakeRemote{gate: make(chan struct{})}
	s := NewTaskStore(1, remote, WithUser(9))
	s.Replace(1, seed())

	for i := 1; i <= 3; i++ {
		if err := s.Update(1, shift(i)); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	got, _ := s.Get(1)
	if got.StartDate.String() != "2024-01-13" {
		t.Fatalf("local start = %s before any remote write", got.StartDate)
	}

	close(remote.gate)
	s.Close()

	calls := remote.snapshot()
	if len(calls) != 3 {
		t.Fatalf("remote calls = %d, want 3", len(calls))
	}
	for i, c := range calls {
		want := task.MustDate("2024-01-10").AddDays(i + 1).String()
		if c.patch.StartDate.String() != want || c.by != 9 {
			t.Fatalf("call %d = start %s by %d, want %s by 9", i, c.patch.StartDate, c.by, want)
		}
	}
}

func TestFailedWriteRollsBack(t *testing.T) {
	remote := &fakeRemote{fail: map[int]error{1: errors.New("offline")}}
	s := NewTaskStore(1, remote)
	s.Replace(1, seed())

	if err := s.Update(1, shift(2)); err != nil {
		t.Fatal(err)
	}
	select {
	case werr := <-s.Errors():
		if werr.TaskID != 1 || !werr.RolledBack || werr.Unwrap().Error() != "offline" {
			t.Fatalf("error = %+v", werr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no write error reported")
	}
	s.Close()
	got, _ := s.Get(1)
	if got.StartDate.String() != "2024-01-10" {
		t.Fatalf("start = %s, want rollback to 2024-01-10", got.StartDate)
	}
}

func TestSupersededFailureKeepsNewerValue(t *testing.T) {
	remote := &fakeRemote{gate: make(chan struct{}), fail: map[int]error{1: errors.New("conflict")}}
	s := NewTaskStore(1, remote)
	s.Replace(1, seed())

	_ = s.Update(1, shift(1))
	_ = s.Update(1, shift(2))
	close(remote.gate)
	s.Close()

	werr := <-s.Errors()
	if werr.RolledBack {
		t.Fatal("an older failed write must not roll back a newer one")
	}
	got, _ := s.Get(1)
	if got.StartDate.String() != "2024-01-12" {
		t.Fatalf("start = %s, want 2024-01-12", got.StartDate)
	}
}

func TestFailedDragRestoresLastConfirmedDates(t *testing.T) {
	offline := errors.New("offline")
	remote := &fakeRemote{gate: make(chan struct{}), fail: map[int]error{1: offline, 2: offline}}
	s := NewTaskStore(1, remote)
	s.Replace(1, seed())

	_ = s.Update(1, shift(1))
	_ = s.Update(1, shift(2))
	close(remote.gate)
	s.Close()

	first, second := <-s.Errors(), <-s.Errors()
	if first.RolledBack || !second.RolledBack {
		t.Fatalf("rolled back = %v, %v; want false, true", first.RolledBack, second.RolledBack)
	}
	got, _ := s.Get(1)
	if got.StartDate.String() != "2024-01-10" || got.EndDate.String() != "2024-01-15" {
		t.Fatalf("dates = %s..%s, want 2024-01-10..2024-01-15", got.StartDate, got.EndDate)
	}
}

func TestRollbackKeepsConfirmedWrites(t *testing.T) {
	remote := &fakeRemote{gate: make(chan struct{}), fail: map[int]error{2: errors.New("conflict")}}
	s := NewTaskStore(1, remote)
	s.Replace(1, seed())

	_ = s.Update(1, shift(1))
	_ = s.Update(1, shift(3))
	close(remote.gate)
	s.Close()

	if werr := <-s.Errors(); !werr.RolledBack {
		t.Fatalf("expected the newest failed write to roll back, got %+v", werr)
	}
	got, _ := s.Get(1)
	if got.StartDate.String() != "2024-01-11" || got.EndDate.String() != "2024-01-16" {
		t.Fatalf("dates = %s..%s, want the accepted 2024-01-11..2024-01-16", got.StartDate, got.EndDate)
	}
}

func TestUpdateUnknownTask(t *testing.T) {
	s := NewTaskStore(1, nil)
	defer s.Close()
	if err := s.Update(99, shift(1)); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := s.Delete(99); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestSubscribeAndCache(t *testing.T) {
	c, err := Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	s := NewTaskStore(4, nil, WithCache(c))
	defer s.Close()

	calls := 0
	cancel := s.Subscribe(func() { calls++ })
	s.Replace(4, seed())
	s.UpdateTask(1, shift(1))
	s.Add(task.Task{ID: 2, Title: "two"})
	cancel()
	cancel()
	_ = s.Delete(2)

	if calls != 3 {
		t.Fatalf("notifications = %d, want 3", calls)
	}
	cached, err := c.Tasks(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 1 || cached[0].StartDate.String() != "2024-01-11" {
		t.Fatalf("cached = %+v", cached)
	}
}

func TestTasksReturnsCopies(t *testing.T) {
	s := NewTaskStore(1, nil)
	defer s.Close()
	s.Replace(1, seed())
	list := s.Tasks()
	list[0].Title = "mutated"
	*list[0].StartDate = task.MustDate("2000-01-01")
	got, _ := s.Get(1)
	if got.Title != "one" || got.StartDate.String() != "2024-01-10" {
		t.Fatalf("store was mutated through a snapshot: %+v", got)
	}
}

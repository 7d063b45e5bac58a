package app

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"testing"
	"time"

	"tableflip.dev/taskboard/pkg/api"
	"tableflip.dev/taskboard/pkg/history"
	"tableflip.dev/taskboard/pkg/store"
	"tableflip.dev/taskboard/pkg/task"
	"tableflip.dev/taskboard/pkg/timeline"
)

type testConfig struct {
	path string
}

func (t testConfig) BasePath() string { return t.path }
func (t testConfig) APIURL() string { return "" }
func (t testConfig) Board() int64 { return 0 }
func (t testConfig) DayWidth() int { return 4 }
func (t testConfig) Gutter() int { return 24 }
func (t testConfig) GroupBy() task.GroupBy { return task.GroupNone }
func (t testConfig) Timeout() time.Duration { return time.Second }

type fakeAPI struct {
	mu       sync.Mutex
	user     task.User
	boards   []task.Board
	tasks    []task.Task
	users    []task.User
	tags     []task.Tag
	history  []history.Entry
	patches  map[int64][]task.Patch
	attached map[int64][]int64
	detached map[int64][]int64
	deleted  []int64
	created  []task.Task
	nextTag  int64
	failWith error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		user:     task.User{ID: 7, Login: "ada", Name: "Ada"},
		boards:   []task.Board{{ID: 3, Title: "Launch"}},
		patches:  map[int64][]task.Patch{},
		attached: map[int64][]int64{},
		detached: map[int64][]int64{},
		nextTag:  100,
	}
}

func (f *fakeAPI) Login(_ context.Context, login, password string) (task.User, error) {
	if password != "secret" {
		return task.User{}, &api.Error{Status: 401, Message: "bad credentials"}
	}
	return f.user, nil
}

func (f *fakeAPI) Register(_ context.Context, name, login, _, role string) (task.User, error) {
	return task.User{ID: 8, Login: login, Name: name, Role: role}, nil
}

func (f *fakeAPI) Me(context.Context, int64) (task.User, error) { return f.user, nil }

func (f *fakeAPI) Users(context.Context) ([]task.User, error) { return f.users, nil }

func (f *fakeAPI) UpdateUser(_ context.Context, id int64, name, role string) (task.User, error) {
	u := task.User{ID: id, Login: "ada", Name: name, Role: role}
	if id == f.user.ID {
		if name == "" {
			u.Name = f.user.Name
		}
		f.user = u
	}
	return u, nil
}

func (f *fakeAPI) DeleteUser(_ context.Context, id int64) error {
	f.users = slices.DeleteFunc(f.users, func(u task.User) bool { return u.ID == id })
	return nil
}

func (f *fakeAPI) RequestTelegramLink(_ context.Context, login string) (api.TelegramLink, error) {
	return api.TelegramLink{OK: true, Login: login, Code: "123456"}, nil
}

func (f *fakeAPI) Boards(context.Context, int64) ([]task.Board, error) { return f.boards, nil }

func (f *fakeAPI) Tasks(context.Context, int64, api.TaskQuery) ([]task.Task, error) {
	out := make([]task.Task, len(f.tasks))
	for i, t := range f.tasks {
		out[i] = t.Clone()
	}
	return out, nil
}

func (f *fakeAPI) CreateTask(_ context.Context, _ int64, t task.Task, _ int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, t)
	return t.ID, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id int64, p task.Patch, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.patches[id] = append(f.patches[id], p)
	return nil
}

func (f *fakeAPI) DeleteTask(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) History(context.Context, int64) ([]history.Entry, error) { return f.history, nil }

func (f *fakeAPI) Tags(context.Context, int64) ([]task.Tag, error) { return f.tags, nil }

func (f *fakeAPI) CreateTag(_ context.Context, board int64, title, color string) (task.Tag, error) {
	f.nextTag++
	tag := task.Tag{ID: f.nextTag, Board: board, Title: title, Color: color}
	f.tags = append(f.tags, tag)
	return tag, nil
}

func (f *fakeAPI) DeleteTag(_ context.Context, _, tag int64) error {
	f.tags = slices.DeleteFunc(f.tags, func(t task.Tag) bool { return t.ID == tag })
	return nil
}

func (f *fakeAPI) AttachTag(_ context.Context, id, tag int64) error {
	f.attached[id] = append(f.attached[id], tag)
	return nil
}

func (f *fakeAPI) DetachTag(_ context.Context, id, tag int64) error {
	f.detached[id] = append(f.detached[id], tag)
	return nil
}

func (f *fakeAPI) patchesFor(id int64) []task.Patch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.patches[id])
}

func dated(id int64, title, start, end string) task.Task {
	return task.Task{
		ID:        id,
		Title:     title,
		Status:    task.StatusNotStarted,
		Priority:  task.PriorityMedium,
		StartDate: task.MustDate(start).Ptr(),
		EndDate:   task.MustDate(end).Ptr(),
	}
}

func newTestService(t *testing.T) (*Service, *fakeAPI) {
	t.Helper()
	cache, err := store.Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	fake := newFakeAPI()
	s := &Service{
		API:   fake,
		Cache: cache,
		Store: store.NewTaskStore(0, fake),
		Rand:  rand.New(rand.NewSource(1)),
		Now:   func() time.Time { return time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC) },
	}
	t.Cleanup(s.Close)
	return s, fake
}

func signIn(t *testing.T, s *Service) {
	t.Helper()
	if _, err := s.Login(context.Background(), "ada", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.CurrentUser(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("CurrentUser before login = %v, want ErrNotAuthenticated", err)
	}
	if _, err := s.Login(ctx, "ada", "wrong"); err == nil {
		t.Fatal("Login with a bad password succeeded")
	}
	signIn(t, s)
	u, err := s.CurrentUser()
	if err != nil || u.Name != "Ada" {
		t.Fatalf("CurrentUser = %+v, %v", u, err)
	}
	if err := s.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := s.CurrentUser(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("CurrentUser after logout = %v, want ErrNotAuthenticated", err)
	}
}

func TestBoardResolution(t *testing.T) {
	s, fake := newTestService(t)
	ctx := context.Background()
	signIn(t, s)

	got, err := s.Board(ctx)
	if err != nil || got != 3 {
		t.Fatalf("Board() = %d, %v; want first board 3", got, err)
	}

	s.DefaultBoard = 9
	if got, _ := s.Board(ctx); got != 9 {
		t.Errorf("Board() with default = %d, want 9", got)
	}

	if err := s.SelectBoard(5); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Board(ctx); got != 5 {
		t.Errorf("Board() after select = %d, want 5", got)
	}

	s2, fake2 := newTestService(t)
	signIn(t, s2)
	fake2.boards = nil
	if _, err := s2.Board(ctx); !errors.Is(err, ErrNoBoard) {
		t.Errorf("Board() without boards = %v, want ErrNoBoard", err)
	}
	if len(fake.boards) != 1 {
		t.Errorf("boards = %d", len(fake.boards))
	}
}

func TestRefreshFillsStoreAndSettings(t *testing.T) {
	s, fake := newTestService(t)
	exec := int64(11)
	withAssignee := dated(10001, "Design", "2024-01-10", "2024-01-15")
	withAssignee.AssigneeID = &exec
	fake.tasks = []task.Task{withAssignee, dated(10002, "Build", "2024-01-16", "2024-01-20")}
	fake.users = []task.User{{ID: 11, Name: "Grace"}}
	fake.tags = []task.Tag{{ID: 1, Title: "backend", Color: "#ff0000"}}

	if err := s.Refresh(context.Background(), 3); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	tasks := s.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("Tasks() = %d, want 2", len(tasks))
	}
	if tasks[0].AssigneeName != "Grace" {
		t.Errorf("assignee name = %q, want Grace", tasks[0].AssigneeName)
	}
	if s.Store.Board() != 3 {
		t.Errorf("store board = %d, want 3", s.Store.Board())
	}
	settings, err := s.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := settings.Tag("backend"); !ok {
		t.Errorf("settings tags = %+v, want backend", settings.Tags)
	}
}

func TestRefreshKeepsLocalStatusAndLog(t *testing.T) {
	s, fake := newTestService(t)
	signIn(t, s)
	ctx := context.Background()
	fake.tasks = []task.Task{dated(10001, "Design", "2024-01-10", "2024-01-15")}
	if err := s.Refresh(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetStatus(ctx, 10001, task.StatusApproval); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	// The server only knows the coarse status.
	fake.tasks[0].Status = task.StatusFromAPI(string(task.StatusApproval.API()))
	if err := s.Refresh(ctx, 3); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Task(10001)
	if got.Status != task.StatusApproval {
		t.Errorf("status after refresh = %q, want %q", got.Status, task.StatusApproval)
	}
	if len(got.StatusLog) != 1 {
		t.Errorf("status log = %+v, want one entry", got.StatusLog)
	}
}

func TestRefreshKeepsLocalVisibility(t *testing.T) {
	s, fake := newTestService(t)
	signIn(t, s)
	ctx := context.Background()
	fake.tasks = []task.Task{dated(10001, "Design", "2024-01-10", "2024-01-15")}
	if err := s.Refresh(ctx, 3); err != nil {
		t.Fatal(err)
	}

	if _, err := s.SetHidden(ctx, 10001, true); err != nil {
		t.Fatal(err)
	}
	if err := s.Refresh(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Task(10001); !got.HiddenFromGantt {
		t.Fatal("refresh unhid a locally hidden task")
	}

	// A stale hidden flag from the list must not stick once shown again.
	fake.tasks[0].HiddenFromGantt = true
	if _, err := s.SetHidden(ctx, 10001, false); err != nil {
		t.Fatal(err)
	}
	if err := s.Refresh(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Task(10001); got.HiddenFromGantt {
		t.Fatal("refresh kept a task hidden after it was shown")
	}
}

func TestSyncFromCache(t *testing.T) {
	s, _ := newTestService(t)
	tasks := []task.Task{dated(10001, "Design", "2024-01-10", "2024-01-14")}
	if err := s.Cache.StoreTasks(1, tasks); err != nil {
		t.Fatalf("StoreTasks: %v", err)
	}

	changed, err := s.SyncFromCache(1)
	if err != nil {
		t.Fatalf("SyncFromCache: %v", err)
	}
	if !changed {
		t.Fatalf("expected first sync to load the cached tasks")
	}
	if got := s.Tasks(); len(got) != 1 || got[0].ID != 10001 {
		t.Fatalf("unexpected tasks %+v", got)
	}

	changed, err = s.SyncFromCache(1)
	if err != nil {
		t.Fatalf("SyncFromCache again: %v", err)
	}
	if changed {
		t.Fatalf("expected no change when the store already matches the cache")
	}
}

func TestCreateTask(t *testing.T) {
	s, fake := newTestService(t)
	ctx := context.Background()

	if _, err := s.CreateTask(ctx, 3, task.Task{Title: "x"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("CreateTask signed out = %v, want ErrNotAuthenticated", err)
	}
	signIn(t, s)

	got, err := s.CreateTask(ctx, 3, task.Task{Title: "Write docs"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if !task.ValidID(got.ID) {
		t.Errorf("generated id %d is not five digits", got.ID)
	}
	if got.Status != task.StatusNotStarted || got.Priority != task.PriorityMedium {
		t.Errorf("defaults = %q/%q", got.Status, got.Priority)
	}
	if _, err := s.Task(got.ID); err != nil {
		t.Errorf("created task not in store: %v", err)
	}
	if len(fake.created) != 1 {
		t.Errorf("remote creates = %d, want 1", len(fake.created))
	}

	if _, err := s.CreateTask(ctx, 3, task.Task{ID: 42, Title: "bad"}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("CreateTask with id 42 = %v, want ErrInvalidID", err)
	}
	backwards := dated(0, "backwards", "2024-02-10", "2024-02-01")
	if _, err := s.CreateTask(ctx, 3, backwards); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("CreateTask with end before start = %v, want ErrInvalidSchedule", err)
	}
}

func TestReschedule(t *testing.T) {
	tests := map[string]struct {
		mode      timeline.Mode
		days      int
		wantStart string
		wantEnd   string
		wantErr   error
	}{
		"move forward": {
			mode:      timeline.ModeMove,
			days:      3,
			wantStart: "2024-01-13",
			wantEnd:   "2024-01-18",
		},
		"stretch end": {
			mode:      timeline.ModeResizeRight,
			days:      2,
			wantStart: "2024-01-10",
			wantEnd:   "2024-01-17",
		},
		"start past end": {
			mode:    timeline.ModeResizeLeft,
			days:    10,
			wantErr: ErrInvalidSchedule,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s, fake := newTestService(t)
			signIn(t, s)
			s.Store.Replace(3, []task.Task{dated(10001, "Design", "2024-01-10", "2024-01-15")})

			got, err := s.Reschedule(context.Background(), 10001, tc.mode, tc.days)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Reschedule err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Reschedule: %v", err)
			}
			if got.StartDate.String() != tc.wantStart || got.EndDate.String() != tc.wantEnd {
				t.Errorf("dates = %s..%s, want %s..%s", got.StartDate, got.EndDate, tc.wantStart, tc.wantEnd)
			}
			s.Close()
			if len(fake.patchesFor(10001)) != 1 {
				t.Errorf("remote patches = %d, want 1", len(fake.patchesFor(10001)))
			}
		})
	}
}

func TestRescheduleWithoutDates(t *testing.T) {
	s, _ := newTestService(t)
	s.Store.Replace(3, []task.Task{{ID: 10001, Title: "Undated"}})
	if _, err := s.Reschedule(context.Background(), 10001, timeline.ModeMove, 1); !errors.Is(err, ErrNoDates) {
		t.Errorf("Reschedule undated = %v, want ErrNoDates", err)
	}
}

func TestSetStatusRecordsChange(t *testing.T) {
	s, _ := newTestService(t)
	signIn(t, s)
	s.Store.Replace(3, []task.Task{dated(10001, "Design", "2024-01-10", "2024-01-15")})

	got, err := s.SetStatus(context.Background(), 10001, task.StatusDevelopment)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.StatusLog) != 1 {
		t.Fatalf("status log = %+v, want one entry", got.StatusLog)
	}
	change := got.StatusLog[0]
	if change.From != task.StatusNotStarted || change.To != task.StatusDevelopment || change.User != "Ada" {
		t.Errorf("change = %+v", change)
	}

	// Same status again is not logged.
	got, _ = s.SetStatus(context.Background(), 10001, task.StatusDevelopment)
	if len(got.StatusLog) != 1 {
		t.Errorf("status log after no-op = %d entries, want 1", len(got.StatusLog))
	}
}

func TestSetHidden(t *testing.T) {
	s, _ := newTestService(t)
	s.Store.Replace(3, []task.Task{dated(10001, "Design", "2024-01-10", "2024-01-15")})
	if _, err := s.SetHidden(context.Background(), 10001, true); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Task(10001)
	if !got.HiddenFromGantt {
		t.Error("task not hidden")
	}
	if task.VisibleOnTimeline(got, nil) {
		t.Error("hidden task still visible on the timeline")
	}
}

func TestTagLifecycle(t *testing.T) {
	s, fake := newTestService(t)
	signIn(t, s)
	ctx := context.Background()
	s.Store.Replace(3, []task.Task{dated(10001, "Design", "2024-01-10", "2024-01-15")})

	tag, err := s.CreateTag(ctx, 3, "backend", "#00ff00")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AttachTag(ctx, 10001, "backend"); err != nil {
		t.Fatalf("AttachTag: %v", err)
	}
	if got := fake.attached[10001]; !slices.Equal(got, []int64{tag.ID}) {
		t.Errorf("attached = %v, want [%d]", got, tag.ID)
	}
	// Attaching twice is a no-op.
	if _, err := s.AttachTag(ctx, 10001, "backend"); err != nil {
		t.Fatal(err)
	}
	if len(fake.attached[10001]) != 1 {
		t.Errorf("attach calls = %d, want 1", len(fake.attached[10001]))
	}
	if _, err := s.DetachTag(ctx, 10001, "backend"); err != nil {
		t.Fatalf("DetachTag: %v", err)
	}
	if got := fake.detached[10001]; !slices.Equal(got, []int64{tag.ID}) {
		t.Errorf("detached = %v, want [%d]", got, tag.ID)
	}
	if _, err := s.AttachTag(ctx, 10001, "nope"); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("AttachTag unknown = %v, want ErrUnknownTag", err)
	}
	if err := s.DeleteTag(ctx, 3, "backend"); err != nil {
		t.Fatal(err)
	}
	settings, _ := s.Settings()
	if _, ok := settings.Tag("backend"); ok {
		t.Error("deleted tag still cached")
	}
}

func TestDeleteTask(t *testing.T) {
	s, fake := newTestService(t)
	s.Store.Replace(3, []task.Task{dated(10001, "Design", "2024-01-10", "2024-01-15")})
	if err := s.DeleteTask(context.Background(), 10001); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Task(10001); !errors.Is(err, store.ErrTaskNotFound) {
		t.Errorf("Task after delete = %v, want ErrTaskNotFound", err)
	}
	if !slices.Equal(fake.deleted, []int64{10001}) {
		t.Errorf("remote deletes = %v", fake.deleted)
	}
}

func TestHistoryReport(t *testing.T) {
	s, fake := newTestService(t)
	str := func(v string) *string { return &v }
	fake.history = []history.Entry{
		{Field: history.FieldStatus, OldValue: str("todo"), NewValue: str("in_progress"), ChangedAt: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)},
		{Field: history.FieldDue, OldValue: str("2024-01-15"), NewValue: str("2024-01-18"), ChangedAt: time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)},
	}

	report, err := s.History(context.Background(), 10001, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Events) != 2 {
		t.Errorf("events = %d, want 2", len(report.Events))
	}

	report, err = s.History(context.Background(), 10001, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Events) != 1 {
		t.Errorf("events since Jan 11 = %d, want 1", len(report.Events))
	}
}

func TestFlushReportsFailedWrites(t *testing.T) {
	s, fake := newTestService(t)
	fake.failWith = &api.Error{Status: 500, Message: "boom"}
	s.Store.Replace(3, []task.Task{dated(10001, "Design", "2024-01-10", "2024-01-15")})

	if _, err := s.Reschedule(context.Background(), 10001, timeline.ModeMove, 2); err != nil {
		t.Fatal(err)
	}
	err := s.Flush()
	var werr store.WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("Flush() = %v, want a WriteError", err)
	}
	if !werr.RolledBack {
		t.Error("write not rolled back")
	}
	got, _ := s.Task(10001)
	if got.StartDate.String() != "2024-01-10" {
		t.Errorf("start after rollback = %s, want 2024-01-10", got.StartDate)
	}
}

func TestUserAdministration(t *testing.T) {
	s, fake := newTestService(t)
	ctx := context.Background()
	if _, err := s.Login(ctx, "ada", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	fake.users = []task.User{fake.user, {ID: 9, Name: "Bob"}}

	if _, err := s.UpdateUser(ctx, 7, "", ""); err == nil {
		t.Fatalf("expected an error when nothing changes")
	}
	if _, err := s.UpdateUser(ctx, 7, "Ada L.", "lead"); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	cur, err := s.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if cur.Name != "Ada L." || cur.Role != "lead" {
		t.Fatalf("expected cached session to follow the rename, got %+v", cur)
	}

	if err := s.DeleteUser(ctx, 9); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	users, _ := s.Users(ctx)
	if len(users) != 1 {
		t.Fatalf("expected one user left, got %d", len(users))
	}

	link, err := s.TelegramLink(ctx, "ada")
	if err != nil || link.Code != "123456" {
		t.Fatalf("TelegramLink = %+v, %v", link, err)
	}
}

func TestTheme(t *testing.T) {
	s, _ := newTestService(t)
	if got := s.Theme(); got != "light" {
		t.Fatalf("default theme = %q", got)
	}
	if err := s.SetTheme("dark"); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	if got := s.Theme(); got != "dark" {
		t.Fatalf("theme = %q", got)
	}
}

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"tableflip.dev/taskboard/pkg/api"
	"tableflip.dev/taskboard/pkg/history"
	"tableflip.dev/taskboard/pkg/store"
	"tableflip.dev/taskboard/pkg/task"
	"tableflip.dev/taskboard/pkg/timeline"
)

var (
	ErrNotAuthenticated = errors.New("app: not signed in")
	ErrNoBoard          = errors.New("app: no board available")
	ErrNoDates          = errors.New("app: task has no start and end date")
	ErrInvalidSchedule  = errors.New("app: start must stay before end")
	ErrInvalidID        = errors.New("app: task id must have five digits")
	ErrUnknownTag       = errors.New("app: unknown tag")
)

// API is the subset of the tracker client the service uses.
type API interface {
	Login(ctx context.Context, login, password string) (task.User, error)
	Register(ctx context.Context, name, login, password, role string) (task.User, error)
	Me(ctx context.Context, userID int64) (task.User, error)
	Users(ctx context.Context) ([]task.User, error)
	UpdateUser(ctx context.Context, id int64, name, role string) (task.User, error)
	DeleteUser(ctx context.Context, id int64) error
	RequestTelegramLink(ctx context.Context, login string) (api.TelegramLink, error)
	Boards(ctx context.Context, userID int64) ([]task.Board, error)
	Tasks(ctx context.Context, board int64, q api.TaskQuery) ([]task.Task, error)
	CreateTask(ctx context.Context, board int64, t task.Task, by int64) (int64, error)
	UpdateTask(ctx context.Context, id int64, p task.Patch, by int64) error
	DeleteTask(ctx context.Context, id int64) error
	History(ctx context.Context, id int64) ([]history.Entry, error)
	Tags(ctx context.Context, board int64) ([]task.Tag, error)
	CreateTag(ctx context.Context, board int64, title, color string) (task.Tag, error)
	DeleteTag(ctx context.Context, board, tag int64) error
	AttachTag(ctx context.Context, taskID, tag int64) error
	DetachTag(ctx context.Context, taskID, tag int64) error
}

var _ API = (*api.Client)(nil)

// Service provides the board operations shared by the CLI, the TUI and the
// MCP server. Reads come from the TaskStore; writes go through it so the
// timeline sees them immediately.
type Service struct {
	API          API
	Cache        store.Cache
	Store        *store.TaskStore
	DefaultBoard int64

	Rand *rand.Rand
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) check() error {
	if s.API == nil || s.Cache == nil || s.Store == nil {
		return errors.New("app: service not configured")
	}
	return nil
}

// Login signs in and remembers the session.
func (s *Service) Login(ctx context.Context, login, password string) (task.User, error) {
	if err := s.check(); err != nil {
		return task.User{}, err
	}
	u, err := s.API.Login(ctx, login, password)
	if err != nil {
		return task.User{}, err
	}
	return u, s.remember(u)
}

// Register creates an account and signs in.
func (s *Service) Register(ctx context.Context, name, login, password, role string) (task.User, error) {
	if err := s.check(); err != nil {
		return task.User{}, err
	}
	u, err := s.API.Register(ctx, name, login, password, role)
	if err != nil {
		return task.User{}, err
	}
	return u, s.remember(u)
}

func (s *Service) remember(u task.User) error {
	sess, _, err := s.Cache.Session()
	if err != nil {
		return err
	}
	sess.User = u
	s.Store.SetUser(u.ID)
	return s.Cache.StoreSession(sess)
}

// Logout forgets the session.
func (s *Service) Logout() error {
	if err := s.check(); err != nil {
		return err
	}
	s.Store.SetUser(0)
	return s.Cache.ClearSession()
}

// CurrentUser returns the signed-in user.
func (s *Service) CurrentUser() (task.User, error) {
	if err := s.check(); err != nil {
		return task.User{}, err
	}
	sess, ok, err := s.Cache.Session()
	if err != nil {
		return task.User{}, err
	}
	if !ok || sess.User.ID == 0 {
		return task.User{}, ErrNotAuthenticated
	}
	s.Store.SetUser(sess.User.ID)
	return sess.User, nil
}

// Profile refreshes the signed-in user from the server.
func (s *Service) Profile(ctx context.Context) (task.User, error) {
	u, err := s.CurrentUser()
	if err != nil {
		return task.User{}, err
	}
	fresh, err := s.API.Me(ctx, u.ID)
	if err != nil {
		return task.User{}, err
	}
	return fresh, s.remember(fresh)
}

// Boards lists the boards of the signed-in user.
func (s *Service) Boards(ctx context.Context) ([]task.Board, error) {
	u, err := s.CurrentUser()
	if err != nil {
		return nil, err
	}
	return s.API.Boards(ctx, u.ID)
}

// SelectBoard makes id the board later operations use.
func (s *Service) SelectBoard(id int64) error {
	if err := s.check(); err != nil {
		return err
	}
	sess, _, err := s.Cache.Session()
	if err != nil {
		return err
	}
	sess.Board = id
	return s.Cache.StoreSession(sess)
}

// Board resolves the active board: the session's choice, else the
// configured default, else the first board on the server.
func (s *Service) Board(ctx context.Context) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if sess, ok, err := s.Cache.Session(); err == nil && ok && sess.Board != 0 {
		return sess.Board, nil
	}
	if s.DefaultBoard != 0 {
		return s.DefaultBoard, nil
	}
	boards, err := s.Boards(ctx)
	if err != nil {
		return 0, err
	}
	if len(boards) == 0 {
		return 0, ErrNoBoard
	}
	return boards[0].ID, nil
}

// LoadCached fills the store from the local cache so the board can render
// before the first refresh completes.
func (s *Service) LoadCached(board int64) error {
	if err := s.check(); err != nil {
		return err
	}
	tasks, err := s.Cache.Tasks(board)
	if err != nil {
		return err
	}
	s.Store.Replace(board, tasks)
	return nil
}

// SyncFromCache reloads board from the local cache after another process
// changed it. The store is left alone, and false returned, when the cached
// list matches what the store already holds.
func (s *Service) SyncFromCache(board int64) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	cached, err := s.Cache.Tasks(board)
	if err != nil {
		return false, err
	}
	if s.Store.Board() == board {
		a, errA := json.Marshal(cached)
		b, errB := json.Marshal(s.Store.Tasks())
		if errA == nil && errB == nil && bytes.Equal(a, b) {
			return false, nil
		}
	}
	s.Store.Replace(board, cached)
	return true, nil
}

// Refresh fetches tasks, users and tags for board concurrently and replaces
// the local copies.
func (s *Service) Refresh(ctx context.Context, board int64) error {
	if err := s.check(); err != nil {
		return err
	}
	var (
		tasks []task.Task
		users []task.User
		tags  []task.Tag
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.API.Tasks(gctx, board, api.TaskQuery{})
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.API.Users(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = s.API.Tags(gctx, board)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("app: refresh board %d: %w", board, err)
	}

	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	for i, t := range tasks {
		if t.AssigneeName == "" && t.AssigneeID != nil {
			tasks[i].AssigneeName = names[*t.AssigneeID]
		}
	}
	s.mergeLocalFields(tasks)

	s.Store.Replace(board, tasks)
	if err := s.Cache.StoreSettings(task.Settings{Executors: users, Tags: tags}); err != nil {
		log.Printf("app: cache settings: %v", err)
	}
	log.Printf("app: refreshed board %d: %d tasks, %d users, %d tags", board, len(tasks), len(users), len(tags))
	return nil
}

// mergeLocalFields keeps what only the board tracks locally: the fine
// grained status, the status log and the timeline visibility flag.
func (s *Service) mergeLocalFields(fresh []task.Task) {
	local := map[int64]task.Task{}
	for _, t := range s.Store.Tasks() {
		local[t.ID] = t
	}
	for i, t := range fresh {
		old, ok := local[t.ID]
		if !ok {
			continue
		}
		if old.Status.API() == t.Status.API() {
			fresh[i].Status = old.Status
		}
		fresh[i].StatusLog = old.StatusLog
		fresh[i].HiddenFromGantt = old.HiddenFromGantt
	}
}

// Settings returns the cached executors and tags.
func (s *Service) Settings() (task.Settings, error) {
	if err := s.check(); err != nil {
		return task.Settings{}, err
	}
	return s.Cache.Settings()
}

// Tasks returns the current task list.
func (s *Service) Tasks() []task.Task {
	if s.Store == nil {
		return nil
	}
	return s.Store.Tasks()
}

// Task returns one task.
func (s *Service) Task(id int64) (task.Task, error) {
	if s.Store == nil {
		return task.Task{}, store.ErrTaskNotFound
	}
	t, ok := s.Store.Get(id)
	if !ok {
		return task.Task{}, fmt.Errorf("%w: %d", store.ErrTaskNotFound, id)
	}
	return t, nil
}

// CreateTask creates t on board. A zero id is replaced with a random five
// digit one.
func (s *Service) CreateTask(ctx context.Context, board int64, t task.Task) (task.Task, error) {
	if err := s.check(); err != nil {
		return task.Task{}, err
	}
	u, err := s.CurrentUser()
	if err != nil {
		return task.Task{}, err
	}
	if t.ID == 0 {
		t.ID = task.GenerateID(s.Rand)
	}
	if !task.ValidID(t.ID) {
		return task.Task{}, ErrInvalidID
	}
	if t.Status == "" {
		t.Status = task.StatusNotStarted
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	if t.HasDates() && t.EndDate.Before(*t.StartDate) {
		return task.Task{}, ErrInvalidSchedule
	}

	id, err := s.API.CreateTask(ctx, board, t, u.ID)
	if err != nil {
		return task.Task{}, err
	}
	if id != 0 {
		t.ID = id
	}
	if t.AssigneeID != nil && t.AssigneeName == "" {
		if settings, err := s.Cache.Settings(); err == nil {
			if ex, ok := settings.Executor(*t.AssigneeID); ok {
				t.AssigneeName = ex.Name
			}
		}
	}
	if err := s.syncTags(ctx, t.ID, nil, t.Tags); err != nil {
		return task.Task{}, err
	}
	s.Store.Add(t)
	return t, nil
}

// UpdateTask applies p optimistically. Status changes are recorded in the
// task's status log and tag changes are synchronised right away.
func (s *Service) UpdateTask(ctx context.Context, id int64, p task.Patch) (task.Task, error) {
	if err := s.check(); err != nil {
		return task.Task{}, err
	}
	cur, err := s.Task(id)
	if err != nil {
		return task.Task{}, err
	}
	if p.Status != nil && *p.Status != cur.Status {
		user := ""
		if u, err := s.CurrentUser(); err == nil {
			user = u.Name
		}
		changes := task.AppendStatusChange(cur, *p.Status, user, s.now())
		p.StatusLog = &changes
	}
	next := cur.Apply(p)
	if next.HasDates() && next.EndDate.Before(*next.StartDate) {
		return task.Task{}, ErrInvalidSchedule
	}
	if p.Tags != nil {
		if err := s.syncTags(ctx, id, cur.Tags, *p.Tags); err != nil {
			return task.Task{}, err
		}
	}
	if err := s.Store.Update(id, p); err != nil {
		return task.Task{}, err
	}
	return next, nil
}

// Reschedule shifts a task's dates the way dragging its bar would.
func (s *Service) Reschedule(ctx context.Context, id int64, mode timeline.Mode, days int) (task.Task, error) {
	cur, err := s.Task(id)
	if err != nil {
		return task.Task{}, err
	}
	if !cur.HasDates() {
		return task.Task{}, ErrNoDates
	}
	p, ok := timeline.Reschedule(*cur.StartDate, *cur.EndDate, mode, days)
	if !ok {
		return task.Task{}, ErrInvalidSchedule
	}
	return s.UpdateTask(ctx, id, p)
}

// SetStatus moves a task to status.
func (s *Service) SetStatus(ctx context.Context, id int64, status task.Status) (task.Task, error) {
	return s.UpdateTask(ctx, id, task.Patch{Status: &status})
}

// SetHidden hides or shows a task on the timeline.
func (s *Service) SetHidden(ctx context.Context, id int64, hidden bool) (task.Task, error) {
	return s.UpdateTask(ctx, id, task.Patch{HiddenFromGantt: &hidden})
}

// DeleteTask removes a task remotely, then locally.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := s.API.DeleteTask(ctx, id); err != nil && !errors.Is(err, api.ErrNotFound) {
		return err
	}
	if err := s.Store.Delete(id); err != nil && !errors.Is(err, store.ErrTaskNotFound) {
		return err
	}
	return nil
}

// Users lists every user.
func (s *Service) Users(ctx context.Context) ([]task.User, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.API.Users(ctx)
}

// UpdateUser renames a user or changes their role.
func (s *Service) UpdateUser(ctx context.Context, id int64, name, role string) (task.User, error) {
	if err := s.check(); err != nil {
		return task.User{}, err
	}
	if name == "" && role == "" {
		return task.User{}, errors.New("app: nothing to change")
	}
	u, err := s.API.UpdateUser(ctx, id, name, role)
	if err != nil {
		return task.User{}, err
	}
	if cur, err := s.CurrentUser(); err == nil && cur.ID == u.ID {
		if err := s.remember(u); err != nil {
			log.Printf("app: cache session: %v", err)
		}
	}
	return u, nil
}

// DeleteUser removes a user. Signing the current user out is left to the
// caller.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.API.DeleteUser(ctx, id)
}

// TelegramLink requests a code binding login to a Telegram account.
func (s *Service) TelegramLink(ctx context.Context, login string) (api.TelegramLink, error) {
	if err := s.check(); err != nil {
		return api.TelegramLink{}, err
	}
	return s.API.RequestTelegramLink(ctx, login)
}

// Theme returns the remembered colour theme, "light" or "dark".
func (s *Service) Theme() string {
	if s.Cache == nil {
		return "light"
	}
	return s.Cache.Theme()
}

// SetTheme remembers the colour theme.
func (s *Service) SetTheme(name string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.Cache.StoreTheme(name)
}

// Tags lists the board's tags.
func (s *Service) Tags(ctx context.Context, board int64) ([]task.Tag, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.API.Tags(ctx, board)
}

// CreateTag adds a tag to the board and the cached settings.
func (s *Service) CreateTag(ctx context.Context, board int64, title, color string) (task.Tag, error) {
	if err := s.check(); err != nil {
		return task.Tag{}, err
	}
	tag, err := s.API.CreateTag(ctx, board, title, color)
	if err != nil {
		return task.Tag{}, err
	}
	s.updateSettings(func(st *task.Settings) {
		st.Tags = append(st.Tags, tag)
	})
	return tag, nil
}

// DeleteTag removes a tag by title.
func (s *Service) DeleteTag(ctx context.Context, board int64, title string) error {
	tag, err := s.lookupTag(title)
	if err != nil {
		return err
	}
	if err := s.API.DeleteTag(ctx, board, tag.ID); err != nil {
		return err
	}
	s.updateSettings(func(st *task.Settings) {
		st.Tags = slices.DeleteFunc(st.Tags, func(t task.Tag) bool { return t.ID == tag.ID })
	})
	return nil
}

// AttachTag adds the tag title to a task.
func (s *Service) AttachTag(ctx context.Context, id int64, title string) (task.Task, error) {
	cur, err := s.Task(id)
	if err != nil {
		return task.Task{}, err
	}
	if slices.Contains(cur.Tags, title) {
		return cur, nil
	}
	tags := append(slices.Clone(cur.Tags), title)
	return s.UpdateTask(ctx, id, task.Patch{Tags: &tags})
}

// DetachTag removes the tag title from a task.
func (s *Service) DetachTag(ctx context.Context, id int64, title string) (task.Task, error) {
	cur, err := s.Task(id)
	if err != nil {
		return task.Task{}, err
	}
	tags := slices.DeleteFunc(slices.Clone(cur.Tags), func(t string) bool { return t == title })
	return s.UpdateTask(ctx, id, task.Patch{Tags: &tags})
}

func (s *Service) lookupTag(title string) (task.Tag, error) {
	if err := s.check(); err != nil {
		return task.Tag{}, err
	}
	settings, err := s.Cache.Settings()
	if err != nil {
		return task.Tag{}, err
	}
	tag, ok := settings.Tag(title)
	if !ok {
		return task.Tag{}, fmt.Errorf("%w: %q", ErrUnknownTag, title)
	}
	return tag, nil
}

func (s *Service) syncTags(ctx context.Context, id int64, before, after []string) error {
	for _, title := range after {
		if slices.Contains(before, title) {
			continue
		}
		tag, err := s.lookupTag(title)
		if err != nil {
			return err
		}
		if err := s.API.AttachTag(ctx, id, tag.ID); err != nil {
			return err
		}
	}
	for _, title := range before {
		if slices.Contains(after, title) {
			continue
		}
		tag, err := s.lookupTag(title)
		if err != nil {
			return err
		}
		if err := s.API.DetachTag(ctx, id, tag.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) updateSettings(fn func(*task.Settings)) {
	st, err := s.Cache.Settings()
	if err != nil {
		log.Printf("app: read settings: %v", err)
		return
	}
	fn(&st)
	if err := s.Cache.StoreSettings(st); err != nil {
		log.Printf("app: cache settings: %v", err)
	}
}

// History analyses a task's change log, keeping entries newer than since
// when since is set.
func (s *Service) History(ctx context.Context, id int64, since time.Time) (history.Report, error) {
	if err := s.check(); err != nil {
		return history.Report{}, err
	}
	entries, err := s.API.History(ctx, id)
	if err != nil {
		return history.Report{}, err
	}
	if !since.IsZero() {
		entries = history.Since(entries, since)
	}
	return history.Analyze(entries, s.now()), nil
}

// Watch subscribes to local cache changes made by other processes.
func (s *Service) Watch(ctx context.Context) (<-chan store.Event, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.Cache.Watch(ctx)
}

// Flush waits for queued remote writes and reports the ones that failed.
// The store accepts no further remote writes afterwards.
func (s *Service) Flush() error {
	if s.Store == nil {
		return nil
	}
	s.Store.Close()
	var errs []error
	for {
		select {
		case werr := <-s.Store.Errors():
			errs = append(errs, werr)
		default:
			return errors.Join(errs...)
		}
	}
}

// Close flushes queued remote writes.
func (s *Service) Close() {
	if s.Store != nil {
		s.Store.Close()
	}
}

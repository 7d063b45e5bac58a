package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tableflip.dev/taskboard/pkg/task"
)

// ErrTaskNotFound is returned for ids the store does not hold.
var ErrTaskNotFound = errors.New("store: task not found")

// Remote applies task updates to the server.
type Remote interface {
	UpdateTask(ctx context.Context, id int64, p task.Patch, by int64) error
}

// TaskCache persists a board's task list.
type TaskCache interface {
	StoreTasks(board int64, tasks []task.Task) error
}

// WriteError reports a remote write that failed. RolledBack is set when the
// task was restored to the last value the server accepted.
type WriteError struct {
	TaskID     int64
	Err        error
	RolledBack bool
}

func (e WriteError) Error() string {
	return fmt.Sprintf("store: update task %d: %v", e.TaskID, e.Err)
}

func (e WriteError) Unwrap() error {
	return e.Err
}

type pendingWrite struct {
	id    int64
	patch task.Patch
	seq   uint64
}

// TaskStore is the in-memory task list of one board. Updates apply locally
// at once and reach the remote through a single FIFO writer, so writes are
// sent in the order they were made.
type TaskStore struct {
	remote  Remote
	cache   TaskCache
	user    int64
	timeout time.Duration

	mu      sync.Mutex
	board   int64
	tasks   []task.Task
	seq     uint64
	latest  map[int64]uint64
	queue   []pendingWrite
	closed  bool
	subs    map[int]func()
	nextSub int

	// confirmed holds the last value of each task the server accepted.
	confirmed map[int64]task.Task

	wake chan struct{}
	errs chan WriteError
	done chan struct{}
}

// TaskStoreOption configures a TaskStore.
type TaskStoreOption func(*TaskStore)

// WithCache persists the list after every local change.
func WithCache(c TaskCache) TaskStoreOption {
	return func(s *TaskStore) {
		s.cache = c
	}
}

// WithUser stamps remote writes with the acting user.
func WithUser(id int64) TaskStoreOption {
	return func(s *TaskStore) {
		s.user = id
	}
}

// WithWriteTimeout bounds each remote write.
func WithWriteTimeout(d time.Duration) TaskStoreOption {
	return func(s *TaskStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewTaskStore starts the writer. A nil remote keeps the store local only.
func NewTaskStore(board int64, remote Remote, opts ...TaskStoreOption) *TaskStore {
	s := &TaskStore{
		remote:  remote,
		timeout: 15 * time.Second,
		board:   board,
		latest:  map[int64]uint64{},
		subs:    map[int]func(){},
		wake:    make(chan struct{}, 1),
		errs:    make(chan WriteError, 16),
		done:    make(chan struct{}),

		confirmed: map[int64]task.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.writer()
	return s
}

// Board returns the board the store holds.
func (s *TaskStore) Board() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

// SetUser changes the user stamped on later writes.
func (s *TaskStore) SetUser(id int64) {
	s.mu.Lock()
	s.user = id
	s.mu.Unlock()
}

// Tasks returns a copy of the current list.
func (s *TaskStore) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Get returns a copy of the task with id.
func (s *TaskStore) Get(id int64) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return task.Task{}, false
}

func (s *TaskStore) index(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Replace swaps in a new list for board, typically after a refresh.
func (s *TaskStore) Replace(board int64, tasks []task.Task) {
	s.mu.Lock()
	s.board = board
	s.tasks = make([]task.Task, len(tasks))
	s.confirmed = make(map[int64]task.Task, len(tasks))
	for i, t := range tasks {
		s.tasks[i] = t.Clone()
		s.confirmed[t.ID] = t.Clone()
	}
	s.latest = map[int64]uint64{}
	s.mu.Unlock()
	s.changed()
}

// Add appends a task locally.
func (s *TaskStore) Add(t task.Task) {
	s.mu.Lock()
	s.tasks = append(s.tasks, t.Clone())
	s.confirmed[t.ID] = t.Clone()
	s.mu.Unlock()
	s.changed()
}

// Delete removes a task locally.
func (s *TaskStore) Delete(id int64) error {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	delete(s.latest, id)
	delete(s.confirmed, id)
	s.mu.Unlock()
	s.changed()
	return nil
}

// Update applies p at once and queues the remote write. It never blocks on
// the network.
func (s *TaskStore) Update(id int64, p task.Patch) error {
	if p.Empty() {
		return nil
	}
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	prev := s.tasks[i]
	s.tasks[i] = prev.Apply(p)
	s.seq++
	s.latest[id] = s.seq
	if s.remote != nil && !s.closed {
		s.queue = append(s.queue, pendingWrite{id: id, patch: p, seq: s.seq})
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

// UpdateTask adapts the store to the timeline's updater contract.
func (s *TaskStore) UpdateTask(id int64, p task.Patch) {
	if err := s.Update(id, p); err != nil {
		log.Printf("store: %v", err)
	}
}

// Errors delivers failed remote writes. Errors are dropped when nobody reads.
func (s *TaskStore) Errors() <-chan WriteError {
	return s.errs
}

// Subscribe calls fn after every change. The returned func unsubscribes.
func (s *TaskStore) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Close stops accepting remote writes and waits until the queued ones have
// been sent.
func (s *TaskStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.done
}

func (s *TaskStore) changed() {
	s.mu.Lock()
	board := s.board
	snapshot := make([]task.Task, len(s.tasks))
	copy(snapshot, s.tasks)
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.StoreTasks(board, snapshot); err != nil {
			log.Printf("store: cache tasks: %v", err)
		}
	}
	for _, fn := range fns {
		fn()
	}
}

func (s *TaskStore) writer() {
	defer close(s.done)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			<-s.wake
			continue
		}
		w := s.queue[0]
		s.queue = s.queue[1:]
		user := s.user
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.remote.UpdateTask(ctx, w.id, w.patch, user)
		cancel()
		if err != nil {
			s.fail(w, err)
			continue
		}
		s.mu.Lock()
		if t, ok := s.confirmed[w.id]; ok {
			s.confirmed[w.id] = t.Apply(w.patch)
		}
		s.mu.Unlock()
	}
}

// fail restores the task to its last confirmed value unless a later local
// write superseded this one. Earlier writes that failed are undone with it.
func (s *TaskStore) fail(w pendingWrite, err error) {
	s.mu.Lock()
	rolledBack := false
	if s.latest[w.id] == w.seq {
		i := s.index(w.id)
		t, ok := s.confirmed[w.id]
		if i >= 0 && ok {
			s.tasks[i] = t.Clone()
			rolledBack = true
		}
	}
	s.mu.Unlock()

	werr := WriteError{TaskID: w.id, Err: err, RolledBack: rolledBack}
	log.Printf("%v (rolled back: %v)", werr, rolledBack)
	select {
	case s.errs <- werr:
	default:
	}
	if rolledBack {
		s.changed()
	}
}

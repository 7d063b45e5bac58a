// Package mcp provides the Model Context Protocol server integration for
// taskboard.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tableflip.dev/taskboard/pkg/history"
	"tableflip.dev/taskboard/pkg/store"
	"tableflip.dev/taskboard/pkg/task"
	"tableflip.dev/taskboard/pkg/timeline"
	"tableflip.dev/taskboard/pkg/timeutil"
)

// Board is the part of the application service the MCP tools use.
type Board interface {
	Refresh(ctx context.Context, board int64) error
	Tasks() []task.Task
	Task(id int64) (task.Task, error)
	Reschedule(ctx context.Context, id int64, mode timeline.Mode, days int) (task.Task, error)
	SetStatus(ctx context.Context, id int64, status task.Status) (task.Task, error)
	SetHidden(ctx context.Context, id int64, hidden bool) (task.Task, error)
	History(ctx context.Context, id int64, since time.Time) (history.Report, error)
}

// maxWriteErrors bounds the failed writes remembered for reporting.
const maxWriteErrors = 20

// Service coordinates board operations that are shared by the MCP server.
type Service struct {
	Board   Board
	BoardID int64
	Today   func() task.Date

	mu     sync.Mutex
	failed []WriteErrorDTO
}

// ListOptions filter list_tasks.
type ListOptions struct {
	Statuses     []string
	Search       string
	TimelineOnly bool
	Refresh      bool
}

// TaskDTO is a transport-friendly projection of a task.
type TaskDTO struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	Priority   string   `json:"priority"`
	Assignee   string   `json:"assignee,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Start      string   `json:"start,omitempty"`
	End        string   `json:"end,omitempty"`
	DurationD  int      `json:"durationDays,omitempty"`
	Hidden     bool     `json:"hiddenFromTimeline,omitempty"`
	OnTimeline bool     `json:"onTimeline"`
}

// RangeDTO describes the visible timeline span.
type RangeDTO struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Days      int    `json:"days"`
	Today     string `json:"today"`
	TaskCount int    `json:"taskCount"`
}

// WriteErrorDTO reports a remote write that failed after the tool returned.
type WriteErrorDTO struct {
	TaskID     int64  `json:"taskId"`
	Error      string `json:"error"`
	RolledBack bool   `json:"rolledBack"`
}

// HistoryDTO summarises a task's change log.
type HistoryDTO struct {
	TaskID  int64           `json:"taskId"`
	Longest string          `json:"longestStatus"`
	Changes int             `json:"statusChanges"`
	Totals  []StatusTimeDTO `json:"timeInStatus"`
	Events  []EventDTO      `json:"events"`
}

// StatusTimeDTO is the time spent in one status.
type StatusTimeDTO struct {
	Status   string  `json:"status"`
	Duration string  `json:"duration"`
	Percent  float64 `json:"percent"`
}

// EventDTO is one line of a task's history.
type EventDTO struct {
	At       string `json:"at"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	Duration string `json:"duration"`
}

// NewService builds a service for board id using b.
func NewService(b Board, id int64) *Service {
	return &Service{Board: b, BoardID: id, Today: task.Today}
}

func (s *Service) check() error {
	if s.Board == nil {
		return errors.New("board service is not configured")
	}
	return nil
}

// Collect records failed writes from ch until ctx ends or ch closes.
func (s *Service) Collect(ctx context.Context, ch <-chan store.WriteError) {
	for {
		select {
		case <-ctx.Done():
			return
		case werr, ok := <-ch:
			if !ok {
				return
			}
			log.Printf("mcp: %v", werr)
			s.mu.Lock()
			s.failed = append(s.failed, WriteErrorDTO{
				TaskID:     werr.TaskID,
				Error:      werr.Err.Error(),
				RolledBack: werr.RolledBack,
			})
			if len(s.failed) > maxWriteErrors {
				s.failed = s.failed[len(s.failed)-maxWriteErrors:]
			}
			s.mu.Unlock()
		}
	}
}

// FailedWrites returns and clears the failed writes seen so far.
func (s *Service) FailedWrites() []WriteErrorDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.failed
	s.failed = nil
	return out
}

// Refresh reloads the board from the server.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.Board.Refresh(ctx, s.BoardID)
}

func parseStatuses(raw []string) ([]task.Status, error) {
	var out []task.Status
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		st, err := task.ParseStatus(r)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// ListTasks returns the board's tasks, optionally filtered.
func (s *Service) ListTasks(ctx context.Context, opts ListOptions) ([]TaskDTO, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if opts.Refresh {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	statuses, err := parseStatuses(opts.Statuses)
	if err != nil {
		return nil, err
	}
	tasks := task.Filter{Search: opts.Search}.Apply(s.Board.Tasks())

	out := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		visible := task.VisibleOnTimeline(t, statuses)
		if opts.TimelineOnly && !visible {
			continue
		}
		if !opts.TimelineOnly && len(statuses) > 0 && !statusIn(t.Status, statuses) {
			continue
		}
		out = append(out, toDTO(t, visible))
	}
	return out, nil
}

func statusIn(s task.Status, statuses []task.Status) bool {
	for _, c := range statuses {
		if c == s {
			return true
		}
	}
	return false
}

// GetTask returns one task.
func (s *Service) GetTask(_ context.Context, id int64) (TaskDTO, error) {
	if err := s.check(); err != nil {
		return TaskDTO{}, err
	}
	t, err := s.Board.Task(id)
	if err != nil {
		return TaskDTO{}, err
	}
	return toDTO(t, task.VisibleOnTimeline(t, nil)), nil
}

// TimelineRange resolves the span the timeline would show for the tasks
// in statuses, or all tasks when statuses is empty.
func (s *Service) TimelineRange(_ context.Context, rawStatuses []string) (RangeDTO, error) {
	if err := s.check(); err != nil {
		return RangeDTO{}, err
	}
	statuses, err := parseStatuses(rawStatuses)
	if err != nil {
		return RangeDTO{}, err
	}
	visible := task.Visible(s.Board.Tasks(), statuses)
	today := s.Today()
	r := timeline.ResolveRange(visible, today)
	return RangeDTO{
		Start:     r.Min.String(),
		End:       r.Max.String(),
		Days:      r.Days(),
		Today:     today.String(),
		TaskCount: len(visible),
	}, nil
}

// Reschedule shifts a task the way dragging its bar would.
func (s *Service) Reschedule(ctx context.Context, id int64, mode string, days int) (TaskDTO, error) {
	if err := s.check(); err != nil {
		return TaskDTO{}, err
	}
	m, ok := timeline.ParseMode(mode)
	if !ok {
		return TaskDTO{}, fmt.Errorf("unknown mode %q (expected move, resize-left or resize-right)", mode)
	}
	t, err := s.Board.Reschedule(ctx, id, m, days)
	if err != nil {
		return TaskDTO{}, err
	}
	return toDTO(t, task.VisibleOnTimeline(t, nil)), nil
}

// SetStatus moves a task to another status.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (TaskDTO, error) {
	if err := s.check(); err != nil {
		return TaskDTO{}, err
	}
	if strings.TrimSpace(status) == "" {
		return TaskDTO{}, errors.New("status is required")
	}
	st, err := task.ParseStatus(status)
	if err != nil {
		return TaskDTO{}, err
	}
	t, err := s.Board.SetStatus(ctx, id, st)
	if err != nil {
		return TaskDTO{}, err
	}
	return toDTO(t, task.VisibleOnTimeline(t, nil)), nil
}

// SetHidden hides or shows a task on the timeline.
func (s *Service) SetHidden(ctx context.Context, id int64, hidden bool) (TaskDTO, error) {
	if err := s.check(); err != nil {
		return TaskDTO{}, err
	}
	t, err := s.Board.SetHidden(ctx, id, hidden)
	if err != nil {
		return TaskDTO{}, err
	}
	return toDTO(t, task.VisibleOnTimeline(t, nil)), nil
}

// History summarises a task's change log within window, or all of it when
// window is empty.
func (s *Service) History(ctx context.Context, id int64, window string) (HistoryDTO, error) {
	if err := s.check(); err != nil {
		return HistoryDTO{}, err
	}
	var since time.Time
	if strings.TrimSpace(window) != "" {
		d, _, err := timeutil.ParseWindow(window)
		if err != nil {
			return HistoryDTO{}, err
		}
		since = time.Now().Add(-d)
	}
	r, err := s.Board.History(ctx, id, since)
	if err != nil {
		return HistoryDTO{}, err
	}
	out := HistoryDTO{
		TaskID:  id,
		Longest: r.Longest.Label,
		Changes: r.Changes,
		Totals:  []StatusTimeDTO{},
		Events:  []EventDTO{},
	}
	sum := history.Sum(r.Totals)
	for _, tot := range r.Totals {
		pct := 0.0
		if sum > 0 {
			pct = float64(tot.Duration) / float64(sum) * 100
		}
		out.Totals = append(out.Totals, StatusTimeDTO{
			Status:   tot.Label,
			Duration: timeutil.FormatSpan(tot.Duration),
			Percent:  pct,
		})
	}
	for _, e := range r.Events {
		out.Events = append(out.Events, EventDTO{
			At:       e.At.Format(time.RFC3339),
			Title:    e.Title,
			Detail:   e.Detail,
			Duration: e.Duration,
		})
	}
	return out, nil
}

func toDTO(t task.Task, visible bool) TaskDTO {
	dto := TaskDTO{
		ID:         t.ID,
		Title:      t.Title,
		Status:     string(t.Status),
		Priority:   string(t.Priority),
		Assignee:   t.AssigneeName,
		Tags:       t.Tags,
		DurationD:  t.Duration(),
		Hidden:     t.HiddenFromGantt,
		OnTimeline: visible,
	}
	if t.StartDate != nil && !t.StartDate.IsZero() {
		dto.Start = t.StartDate.String()
	}
	if t.EndDate != nil && !t.EndDate.IsZero() {
		dto.End = t.EndDate.String()
	}
	return dto
}

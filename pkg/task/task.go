// Package task defines the board's task model and the pure helpers the rest
// of the application shares: filtering, grouping and identifier generation.
package task

import (
	"math/rand"
	"slices"
	"time"
)

// Task is a single card on the board.
type Task struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Link            string         `json:"link,omitempty"`
	Status          Status         `json:"status"`
	Priority        Priority       `json:"priority"`
	AssigneeID      *int64         `json:"assigneeId,omitempty"`
	AssigneeName    string         `json:"assigneeName,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	StartDate       *Date          `json:"startDate,omitempty"`
	EndDate         *Date          `json:"endDate,omitempty"`
	HiddenFromGantt bool           `json:"hiddenFromGantt,omitempty"`
	StatusLog       []StatusChange `json:"statusLog,omitempty"`
}

// StatusChange records one status transition.
type StatusChange struct {
	At   time.Time `json:"datetime"`
	From Status    `json:"oldStatus"`
	To   Status    `json:"newStatus"`
	User string    `json:"user,omitempty"`
}

// HasDates reports whether both the start and end date are set.
func (t Task) HasDates() bool {
	return t.StartDate != nil && !t.StartDate.IsZero() &&
		t.EndDate != nil && !t.EndDate.IsZero()
}

// Duration is the inclusive number of days the task spans, or 0 without dates.
func (t Task) Duration() int {
	if !t.HasDates() {
		return 0
	}
	return t.EndDate.DaysSince(*t.StartDate) + 1
}

// Clone returns a deep copy.
func (t Task) Clone() Task {
	out := t
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		out.AssigneeID = &id
	}
	if t.StartDate != nil {
		out.StartDate = t.StartDate.Ptr()
	}
	if t.EndDate != nil {
		out.EndDate = t.EndDate.Ptr()
	}
	out.Tags = slices.Clone(t.Tags)
	out.StatusLog = slices.Clone(t.StatusLog)
	return out
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title           *string   `json:"title,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Link            *string   `json:"link,omitempty"`
	Status          *Status   `json:"status,omitempty"`
	Priority        *Priority `json:"priority,omitempty"`
	AssigneeID      **int64   `json:"assigneeId,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	StartDate       *Date     `json:"startDate,omitempty"`
	EndDate         *Date     `json:"endDate,omitempty"`
	HiddenFromGantt *bool     `json:"hiddenFromGantt,omitempty"`

	// StatusLog replaces the local status history. It is never sent upstream.
	StatusLog *[]StatusChange `json:"-"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Link == nil &&
		p.Status == nil && p.Priority == nil && p.AssigneeID == nil &&
		p.Tags == nil && p.StartDate == nil && p.EndDate == nil &&
		p.HiddenFromGantt == nil && p.StatusLog == nil
}

// Apply returns a copy of t with the patch merged in.
func (t Task) Apply(p Patch) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Link != nil {
		out.Link = *p.Link
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.AssigneeID != nil {
		if *p.AssigneeID == nil {
			out.AssigneeID = nil
		} else {
			id := **p.AssigneeID
			out.AssigneeID = &id
		}
	}
	if p.Tags != nil {
		out.Tags = slices.Clone(*p.Tags)
	}
	if p.StartDate != nil {
		out.StartDate = p.StartDate.Ptr()
	}
	if p.EndDate != nil {
		out.EndDate = p.EndDate.Ptr()
	}
	if p.HiddenFromGantt != nil {
		out.HiddenFromGantt = *p.HiddenFromGantt
	}
	if p.StatusLog != nil {
		out.StatusLog = slices.Clone(*p.StatusLog)
	}
	return out
}

// AppendStatusChange returns the task's status log with a transition to next.
func AppendStatusChange(t Task, next Status, user string, at time.Time) []StatusChange {
	log := slices.Clone(t.StatusLog)
	return append(log, StatusChange{
		At:   at,
		From: t.Status,
		To:   next,
		User: user,
	})
}

// VisibleOnTimeline reports whether t belongs on the timeline: both dates
// set, not hidden, and in statuses when that filter is non-empty.
func VisibleOnTimeline(t Task, statuses []Status) bool {
	if !t.HasDates() || t.HiddenFromGantt {
		return false
	}
	if len(statuses) > 0 && !slices.Contains(statuses, t.Status) {
		return false
	}
	return true
}

// Visible filters tasks down to those VisibleOnTimeline, keeping order.
func Visible(tasks []Task, statuses []Status) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if VisibleOnTimeline(t, statuses) {
			out = append(out, t)
		}
	}
	return out
}

const (
	minID = 10000
	maxID = 99999
)

// GenerateID returns a random five digit identifier.
func GenerateID(r *rand.Rand) int64 {
	if r == nil {
		return int64(minID + rand.Intn(maxID-minID+1))
	}
	return int64(minID + r.Intn(maxID-minID+1))
}

// ValidID reports whether id is a five digit identifier.
func ValidID(id int64) bool {
	return id >= minID && id <= maxID
}

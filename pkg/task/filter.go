package task

import (
	"slices"
	"strconv"
	"strings"
)

// Filter narrows a task list. Zero-valued fields match everything.
type Filter struct {
	Search   string
	Status   Status
	Assignee string
	Tag      string
	Priority Priority
}

// Match reports whether t passes every active criterion. Search matches the
// title case-insensitively or the decimal id as a substring.
func (f Filter) Match(t Task) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		inTitle := strings.Contains(strings.ToLower(t.Title), q)
		inID := strings.Contains(strconv.FormatInt(t.ID, 10), f.Search)
		if !inTitle && !inID {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Assignee != "" && t.AssigneeName != f.Assignee {
		return false
	}
	if f.Tag != "" && !slices.Contains(t.Tags, f.Tag) {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	return true
}

// Apply returns the tasks matching f, keeping order.
func (f Filter) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

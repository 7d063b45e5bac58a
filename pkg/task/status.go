package task

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a task as shown on the board.
type Status string

const (
	StatusNotStarted  Status = "not started"
	StatusAnalysis    Status = "analysis"
	StatusApproval    Status = "approval"
	StatusEstimation  Status = "estimation"
	StatusReadyForDev Status = "ready for dev"
	StatusDevelopment Status = "development"
	StatusReview      Status = "review"
	StatusDone        Status = "done"
)

// AllStatuses returns the statuses in board order.
func AllStatuses() []Status {
	return []Status{
		StatusNotStarted,
		StatusAnalysis,
		StatusApproval,
		StatusEstimation,
		StatusReadyForDev,
		StatusDevelopment,
		StatusReview,
		StatusDone,
	}
}

var statusColors = map[Status]string{
	StatusNotStarted:  "#9CA3AF",
	StatusAnalysis:    "#3B82F6",
	StatusApproval:    "#8B5CF6",
	StatusEstimation:  "#F97316",
	StatusReadyForDev: "#14B8A6",
	StatusDevelopment: "#22C55E",
	StatusReview:      "#000000",
	StatusDone:        "#059669",
}

// FallbackColor is used for labels outside the known status set.
const FallbackColor = "#94A3B8"

// DefaultColors returns a fresh status to hex colour mapping.
func DefaultColors() map[Status]string {
	out := make(map[Status]string, len(statusColors))
	for k, v := range statusColors {
		out[k] = v
	}
	return out
}

// Color returns the display colour of the status.
func (s Status) Color() string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return FallbackColor
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusColors[s]
	return ok
}

// Index is the position of s in board order, or -1.
func (s Status) Index() int {
	for i, candidate := range AllStatuses() {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Next cycles to the following status, wrapping after done.
func (s Status) Next() Status {
	all := AllStatuses()
	idx := s.Index()
	return all[(idx+1)%len(all)]
}

// ParseStatus accepts a status label, a hyphenated label or an API value.
func ParseStatus(raw string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.ReplaceAll(norm, "-", " ")
	norm = strings.ReplaceAll(norm, "_", " ")
	if norm == "" {
		return StatusNotStarted, nil
	}
	for _, candidate := range AllStatuses() {
		if string(candidate) == norm {
			return candidate, nil
		}
	}
	switch norm {
	case "new":
		return StatusNotStarted, nil
	case "in progress":
		return StatusDevelopment, nil
	}
	return "", fmt.Errorf("task: unknown status %q", raw)
}

// APIStatus is the coarse status understood by the remote API.
type APIStatus string

const (
	APIStatusNew        APIStatus = "new"
	APIStatusInProgress APIStatus = "in_progress"
	APIStatusReview     APIStatus = "review"
	APIStatusDone       APIStatus = "done"
)

// API folds the board status into the remote API's vocabulary.
func (s Status) API() APIStatus {
	switch s {
	case StatusNotStarted:
		return APIStatusNew
	case StatusDone:
		return APIStatusDone
	default:
		return APIStatusInProgress
	}
}

// StatusFromAPI widens an API status back to a board status. Unknown values
// are treated as work in progress.
func StatusFromAPI(s string) Status {
	switch APIStatus(s) {
	case APIStatusReview:
		return StatusReview
	case APIStatusNew:
		return StatusNotStarted
	case APIStatusDone:
		return StatusDone
	}
	if st, err := ParseStatus(s); err == nil && s != "" {
		return st
	}
	return StatusDevelopment
}

// NormalizeStatusLabel maps API values onto board labels for display and
// passes anything else through unchanged.
func NormalizeStatusLabel(raw string) string {
	if raw == "" {
		return "—"
	}
	if Status(raw).Valid() {
		return raw
	}
	switch APIStatus(raw) {
	case APIStatusNew:
		return string(StatusNotStarted)
	case APIStatusInProgress:
		return string(StatusDevelopment)
	case APIStatusDone:
		return string(StatusDone)
	case APIStatusReview:
		return string(StatusReview)
	}
	return raw
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// AllPriorities returns the priorities from lowest to highest.
func AllPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

var priorityColors = map[Priority]string{
	PriorityLow:    "#9CA3AF",
	PriorityMedium: "#F59E0B",
	PriorityHigh:   "#EF4444",
}

// Color returns the badge colour of the priority.
func (p Priority) Color() string {
	if c, ok := priorityColors[p]; ok {
		return c
	}
	return FallbackColor
}

// Index is the position of p from low to high, or -1.
func (p Priority) Index() int {
	for i, candidate := range AllPriorities() {
		if candidate == p {
			return i
		}
	}
	return -1
}

// ParsePriority accepts low, medium or high in any case. Empty maps to medium.
func ParsePriority(raw string) (Priority, error) {
	norm := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if norm == "" {
		return PriorityMedium, nil
	}
	if _, ok := priorityColors[norm]; ok {
		return norm, nil
	}
	return "", fmt.Errorf("task: unknown priority %q", raw)
}

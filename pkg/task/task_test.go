package task

import (
	"math/rand"
	"testing"
)

func TestVisibleOnTimeline(t *testing.T) {
	start := MustDate("2024-01-10").Ptr()
	end := MustDate("2024-01-15").Ptr()

	tests := []struct {
		name     string
		task     Task
		statuses []Status
		want     bool
	}{
		{name: "dated", task: Task{StartDate: start, EndDate: end}, want: true},
		{name: "missing end", task: Task{StartDate: start}, want: false},
		{name: "hidden", task: Task{StartDate: start, EndDate: end, HiddenFromGantt: true}, want: false},
		{name: "filtered out", task: Task{StartDate: start, EndDate: end, Status: StatusDone}, statuses: []Status{StatusReview}, want: false},
		{name: "filtered in", task: Task{StartDate: start, EndDate: end, Status: StatusReview}, statuses: []Status{StatusReview}, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := VisibleOnTimeline(tc.task, tc.statuses); got != tc.want {
				t.Fatalf("VisibleOnTimeline = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestApplyDoesNotAliasOriginal(t *testing.T) {
	orig := Task{ID: 1, Tags: []string{"a"}, StartDate: MustDate("2024-01-10").Ptr()}
	next := MustDate("2024-01-12")
	tags := []string{"b"}
	out := orig.Apply(Patch{StartDate: &next, Tags: &tags})

	if orig.StartDate.String() != "2024-01-10" || orig.Tags[0] != "a" {
		t.Fatalf("original mutated: %+v", orig)
	}
	if out.StartDate.String() != "2024-01-12" || out.Tags[0] != "b" {
		t.Fatalf("patch not applied: %+v", out)
	}

	var cleared *int64
	withAssignee := Task{AssigneeID: new(int64)}
	if got := withAssignee.Apply(Patch{AssigneeID: &cleared}); got.AssigneeID != nil {
		t.Fatalf("expected assignee cleared")
	}
}

func TestStatusAPIMapping(t *testing.T) {
	if StatusEstimation.API() != APIStatusInProgress {
		t.Fatalf("estimation should fold to in_progress")
	}
	if StatusFromAPI("review") != StatusReview || StatusFromAPI("whatever") != StatusDevelopment {
		t.Fatalf("unexpected API widening")
	}
	if NormalizeStatusLabel("new") != string(StatusNotStarted) {
		t.Fatalf("new should normalise to not started")
	}
}

func TestFilterSearchMatchesTitleOrID(t *testing.T) {
	tasks := []Task{
		{ID: 12345, Title: "Write docs"},
		{ID: 54321, Title: "Fix login"},
	}
	if got := (Filter{Search: "DOCS"}).Apply(tasks); len(got) != 1 || got[0].ID != 12345 {
		t.Fatalf("title search failed: %+v", got)
	}
	if got := (Filter{Search: "543"}).Apply(tasks); len(got) != 1 || got[0].ID != 54321 {
		t.Fatalf("id search failed: %+v", got)
	}
}

func TestGenerateID(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		if id := GenerateID(r); !ValidID(id) {
			t.Fatalf("generated invalid id %d", id)
		}
	}
}

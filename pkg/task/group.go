package task

import (
	"fmt"
	"strings"
)

// GroupBy selects the key tasks are bucketed on.
type GroupBy string

const (
	GroupNone     GroupBy = "none"
	GroupAssignee GroupBy = "assignee"
	GroupStatus   GroupBy = "status"
	GroupPriority GroupBy = "priority"
)

// AllGroupings returns the supported keys in cycling order.
func AllGroupings() []GroupBy {
	return []GroupBy{GroupNone, GroupAssignee, GroupStatus, GroupPriority}
}

// ParseGroupBy accepts a grouping name; empty means none.
func ParseGroupBy(raw string) (GroupBy, error) {
	g := GroupBy(strings.ToLower(strings.TrimSpace(raw)))
	if g == "" {
		return GroupNone, nil
	}
	for _, candidate := range AllGroupings() {
		if candidate == g {
			return g, nil
		}
	}
	return GroupNone, fmt.Errorf("task: unknown grouping %q", raw)
}

// Next cycles to the following grouping.
func (g GroupBy) Next() GroupBy {
	all := AllGroupings()
	for i, candidate := range all {
		if candidate == g {
			return all[(i+1)%len(all)]
		}
	}
	return GroupNone
}

const (
	// AllBucket names the single bucket produced by GroupNone.
	AllBucket        = "all"
	noAssigneeBucket = "No assignee"
	noPriorityBucket = "No priority"
)

// Bucket is one named group of tasks.
type Bucket struct {
	Name  string
	Tasks []Task
}

// Group partitions tasks by key. Buckets are returned in the order their key
// was first seen and each bucket keeps the input order of its tasks.
func Group(tasks []Task, by GroupBy) []Bucket {
	if by == GroupNone || by == "" {
		return []Bucket{{Name: AllBucket, Tasks: tasks}}
	}

	index := map[string]int{}
	var buckets []Bucket
	for _, t := range tasks {
		key := groupKey(t, by)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Name: key})
		}
		buckets[i].Tasks = append(buckets[i].Tasks, t)
	}
	return buckets
}

func groupKey(t Task, by GroupBy) string {
	switch by {
	case GroupAssignee:
		if t.AssigneeName == "" {
			return noAssigneeBucket
		}
		return t.AssigneeName
	case GroupStatus:
		return string(t.Status)
	default:
		if t.Priority == "" {
			return noPriorityBucket
		}
		p := string(t.Priority)
		return strings.ToUpper(p[:1]) + p[1:]
	}
}

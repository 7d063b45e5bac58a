package options

import (
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/task"
)

// TaskOptions carries the editable fields of a task.
type TaskOptions struct {
	Title       string
	Description string
	Link        string
	Status      string
	Priority    string
	Assignee    int64
	Start       string
	End         string
	Tags        []string
}

func AddTaskArgs(cmd *cobra.Command, o *TaskOptions) {
	cmd.Flags().StringVar(&o.Title, "title", "", "Task title.")
	cmd.Flags().StringVarP(&o.Description, "description", "d", "", "Task description.")
	cmd.Flags().StringVar(&o.Link, "link", "", "Link attached to the task.")
	cmd.Flags().StringVarP(&o.Status, "status", "s", "", "Task status.")
	cmd.Flags().StringVarP(&o.Priority, "priority", "p", "", "Priority: low, medium or high.")
	cmd.Flags().Int64Var(&o.Assignee, "assignee", 0, "Assignee user id. 0 clears it on update.")
	cmd.Flags().StringVar(&o.Start, "start", "", "Start date, YYYY-MM-DD. Empty clears it on update.")
	cmd.Flags().StringVar(&o.End, "end", "", "End date, YYYY-MM-DD. Empty clears it on update.")
	cmd.Flags().StringSliceVarP(&o.Tags, "tag", "t", nil, "Tag title. Repeatable.")
	_ = cmd.RegisterFlagCompletionFunc("status", statusCompletions)
	_ = cmd.RegisterFlagCompletionFunc("priority", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		out := []string{}
		for _, p := range task.AllPriorities() {
			out = append(out, string(p))
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
}

// Task builds a new task from the flags.
func (o *TaskOptions) Task() (task.Task, error) {
	t := task.Task{
		Title:       o.Title,
		Description: o.Description,
		Link:        o.Link,
		Tags:        o.Tags,
	}
	if o.Status != "" {
		s, err := task.ParseStatus(o.Status)
		if err != nil {
			return task.Task{}, err
		}
		t.Status = s
	}
	p, err := task.ParsePriority(o.Priority)
	if err != nil {
		return task.Task{}, err
	}
	t.Priority = p
	if o.Assignee != 0 {
		id := o.Assignee
		t.AssigneeID = &id
	}
	if o.Start != "" {
		d, err := task.ParseDate(o.Start)
		if err != nil {
			return task.Task{}, err
		}
		t.StartDate = &d
	}
	if o.End != "" {
		d, err := task.ParseDate(o.End)
		if err != nil {
			return task.Task{}, err
		}
		t.EndDate = &d
	}
	return t, nil
}

// Patch builds an update from the flags that were set on cmd.
func (o *TaskOptions) Patch(cmd *cobra.Command) (task.Patch, error) {
	var p task.Patch
	changed := cmd.Flags().Changed
	if changed("title") {
		p.Title = &o.Title
	}
	if changed("description") {
		p.Description = &o.Description
	}
	if changed("link") {
		p.Link = &o.Link
	}
	if changed("status") {
		s, err := task.ParseStatus(o.Status)
		if err != nil {
			return task.Patch{}, err
		}
		p.Status = &s
	}
	if changed("priority") {
		pr, err := task.ParsePriority(o.Priority)
		if err != nil {
			return task.Patch{}, err
		}
		p.Priority = &pr
	}
	if changed("assignee") {
		var id *int64
		if o.Assignee != 0 {
			v := o.Assignee
			id = &v
		}
		p.AssigneeID = &id
	}
	if changed("start") {
		d, err := optionalDate(o.Start)
		if err != nil {
			return task.Patch{}, err
		}
		p.StartDate = &d
	}
	if changed("end") {
		d, err := optionalDate(o.End)
		if err != nil {
			return task.Patch{}, err
		}
		p.EndDate = &d
	}
	if changed("tag") {
		tags := o.Tags
		p.Tags = &tags
	}
	return p, nil
}

func optionalDate(raw string) (task.Date, error) {
	if raw == "" {
		return task.Date{}, nil
	}
	return task.ParseDate(raw)
}

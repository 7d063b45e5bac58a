package options

import (
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/task"
)

// BoardOptions selects the board and how its tasks are shown.
type BoardOptions struct {
	Board    int64
	GroupBy  string
	Statuses []string
}

func AddBoardArg(cmd *cobra.Command, o *BoardOptions) {
	cmd.Flags().Int64Var(&o.Board, "board", 0,
		"Board id. Defaults to the selected or configured board.")
}

func AddGroupByArg(cmd *cobra.Command, o *BoardOptions) {
	cmd.Flags().StringVar(&o.GroupBy, "group-by", "",
		"Group tasks by none, assignee, status or priority.")
	_ = cmd.RegisterFlagCompletionFunc("group-by", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		out := []string{}
		for _, g := range task.AllGroupings() {
			out = append(out, string(g))
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
}

func AddStatusArg(cmd *cobra.Command, o *BoardOptions) {
	cmd.Flags().StringSliceVar(&o.Statuses, "status", nil,
		"Only show tasks in these statuses. Repeatable.")
	_ = cmd.RegisterFlagCompletionFunc("status", statusCompletions)
}

// Grouping resolves --group-by, falling back to def.
func (o *BoardOptions) Grouping(def task.GroupBy) (task.GroupBy, error) {
	if o.GroupBy == "" {
		return def, nil
	}
	return task.ParseGroupBy(o.GroupBy)
}

// StatusFilter parses --status.
func (o *BoardOptions) StatusFilter() ([]task.Status, error) {
	var out []task.Status
	for _, raw := range o.Statuses {
		s, err := task.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func statusCompletions(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	out := []string{}
	for _, s := range task.AllStatuses() {
		out = append(out, string(s))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/printers"
	"tableflip.dev/taskboard/pkg/snake"
	"tableflip.dev/taskboard/pkg/task"
	"tableflip.dev/taskboard/pkg/timeline"
)

func addTask(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Work with the tasks of a board",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	addTaskList(cmd)
	addTaskAdd(cmd)
	addTaskSet(cmd)
	addTaskMove(cmd)
	addTaskVisibility(cmd, "hide", true)
	addTaskVisibility(cmd, "show", false)
	addTaskRemove(cmd)

	topLevel.AddCommand(cmd)
}

func requireID(what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if len(args) < 1 {
			return errors.New("requires " + what)
		}
		return nil
	}
}

func printTask(t task.Task) error {
	if output.JSON {
		return output.Print(t)
	}
	(&printers.PrettyPrint{ShowID: true}).Tasks([]task.Task{t}, task.GroupNone)
	return nil
}

func addTaskList(parent *cobra.Command) {
	bo := &options.BoardOptions{}
	io := &options.IDOptions{}
	filter := task.Filter{}
	var (
		priority string
		calendar bool
		months   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Example: `
taskboard task list --group-by status
taskboard task list --status development --status review
taskboard task list --calendar --months 2
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, cfg, err := load()
			if err != nil {
				return err
			}
			defer svc.Close()
			if _, err := loadBoard(cmd.Context(), svc, bo); err != nil {
				return output.HandleError(err)
			}
			by, err := bo.Grouping(cfg.GroupBy())
			if err != nil {
				return err
			}
			statuses, err := bo.StatusFilter()
			if err != nil {
				return err
			}

			if priority != "" {
				if filter.Priority, err = task.ParsePriority(priority); err != nil {
					return err
				}
			}
			tasks := filterStatuses(filter.Apply(svc.Tasks()), statuses)
			if output.JSON {
				return output.Print(tasks)
			}
			pp := &printers.PrettyPrint{ShowID: io.ShowID}
			if calendar {
				today := task.Today()
				visible := task.Visible(tasks, statuses)
				month := today
				for i := 0; i < max(months, 1); i++ {
					pp.Calendar(month, today, visible)
					month = printers.NextMonth(month)
				}
				return nil
			}
			pp.Tasks(tasks, by)
			return nil
		},
	}

	options.AddBoardArg(cmd, bo)
	options.AddGroupByArg(cmd, bo)
	options.AddStatusArg(cmd, bo)
	options.AddShowIDArgs(cmd, io)
	options.AddOutputArg(cmd, output)
	cmd.Flags().StringVarP(&filter.Search, "search", "q", "", "Only tasks whose title or id contains this text.")
	cmd.Flags().StringVar(&filter.Assignee, "assignee", "", "Only tasks assigned to this name.")
	cmd.Flags().StringVarP(&filter.Tag, "tag", "t", "", "Only tasks with this tag.")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Only tasks with this priority.")
	cmd.Flags().BoolVar(&calendar, "calendar", false, "Show this month as a calendar of scheduled days.")
	cmd.Flags().IntVar(&months, "months", 1, "Months shown with --calendar.")

	parent.AddCommand(cmd)
}

func filterStatuses(tasks []task.Task, statuses []task.Status) []task.Task {
	if len(statuses) == 0 {
		return tasks
	}
	var out []task.Task
	for _, t := range tasks {
		for _, s := range statuses {
			if t.Status == s {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func addTaskAdd(parent *cobra.Command) {
	bo := &options.BoardOptions{}
	to := &options.TaskOptions{}
	var (
		id          int64
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Example: `
taskboard task add write the release notes --start 2024-03-01 --end 2024-03-04
taskboard task add fix login -p high -t backend
taskboard task add -i
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if interactive {
				cmd.SilenceUsage = true
				return nil
			}
			return requireID("a title")(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				to.Title = strings.Join(args, " ")
				_ = cmd.Flags().Set("title", to.Title)
			}
			if interactive {
				if err := snake.Fill(cmd, taskQuestions()...); err != nil {
					return err
				}
			}
			if strings.TrimSpace(to.Title) == "" {
				return errors.New("requires a title")
			}
			svc, _, err := load()
			if err != nil {
				return err
			}
			t, err := to.Task()
			if err != nil {
				return err
			}
			t.ID = id
			board, err := loadBoard(cmd.Context(), svc, bo)
			if err != nil {
				return output.HandleError(err)
			}
			created, err := svc.CreateTask(cmd.Context(), board, t)
			if err != nil {
				return output.HandleError(err)
			}
			if err := svc.Flush(); err != nil {
				return output.HandleError(err)
			}
			return printTask(created)
		},
	}

	options.AddBoardArg(cmd, bo)
	options.AddTaskArgs(cmd, to)
	options.AddOutputArg(cmd, output)
	cmd.Flags().Int64Var(&id, "id", 0, "Five digit task id. Random when omitted.")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for the fields not given as flags.")

	parent.AddCommand(cmd)
}

// taskQuestions lists the task fields task add asks for interactively.
func taskQuestions() []snake.Question {
	var statuses, priorities []string
	for _, s := range task.AllStatuses() {
		statuses = append(statuses, string(s))
	}
	for _, p := range task.AllPriorities() {
		priorities = append(priorities, string(p))
	}
	validDate := func(raw string) error {
		_, err := task.ParseDate(raw)
		return err
	}
	return []snake.Question{
		{Flag: "title"},
		{Flag: "status", Choices: statuses},
		{Flag: "priority", Choices: priorities},
		{Flag: "start", Validate: validDate},
		{Flag: "end", Validate: validDate},
		{Flag: "assignee"},
		{Flag: "tag"},
	}
}

func addTaskSet(parent *cobra.Command) {
	bo := &options.BoardOptions{}
	to := &options.TaskOptions{}

	cmd := &cobra.Command{
		Use:   "set <task-id>",
		Short: "Change fields of a task",
		Example: `
taskboard task set 10231 --status review
taskboard task set 10231 --end 2024-03-08 --assignee 7
taskboard task set 10231 --start ""
`,
		Args:              requireID("a task id"),
		ValidArgsFunction: taskIDCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := options.ParseID(args[0])
			if err != nil {
				return err
			}
			p, err := to.Patch(cmd)
			if err != nil {
				return err
			}
			if p.Empty() {
				return errors.New("nothing to change")
			}
			svc, _, err := load()
			if err != nil {
				return err
			}
			if _, err := loadBoard(cmd.Context(), svc, bo); err != nil {
				return output.HandleError(err)
			}
			updated, err := svc.UpdateTask(cmd.Context(), id, p)
			if err != nil {
				return output.HandleError(err)
			}
			if err := svc.Flush(); err != nil {
				return output.HandleError(err)
			}
			return printTask(updated)
		},
	}

	options.AddBoardArg(cmd, bo)
	options.AddTaskArgs(cmd, to)
	options.AddOutputArg(cmd, output)

	parent.AddCommand(cmd)
}

func addTaskMove(parent *cobra.Command) {
	bo := &options.BoardOptions{}
	mode := timeline.ModeMove.String()

	cmd := &cobra.Command{
		Use:   "move <task-id> <days>",
		Short: "Shift or stretch a task on the timeline",
		Long: options.Wrap80(`Shift a task by whole days the way dragging its bar does.
With --mode resize-left or resize-right only the start or end date moves, and
the task must keep at least one day between them.`),
		Example: `
taskboard task move 10231 3
taskboard task move 10231 -2 --mode resize-right
`,
		Args: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if len(args) != 2 {
				return errors.New("requires a task id and a number of days")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := options.ParseID(args[0])
			if err != nil {
				return err
			}
			days, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid days %q", args[1])
			}
			m, ok := timeline.ParseMode(mode)
			if !ok {
				return fmt.Errorf("unknown mode %q", mode)
			}
			svc, _, err := load()
			if err != nil {
				return err
			}
			if _, err := loadBoard(cmd.Context(), svc, bo); err != nil {
				return output.HandleError(err)
			}
			updated, err := svc.Reschedule(cmd.Context(), id, m, days)
			if err != nil {
				return output.HandleError(err)
			}
			if err := svc.Flush(); err != nil {
				return output.HandleError(err)
			}
			return printTask(updated)
		},
	}

	options.AddBoardArg(cmd, bo)
	options.AddOutputArg(cmd, output)
	cmd.Flags().StringVar(&mode, "mode", mode, "move, resize-left or resize-right.")
	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{timeline.ModeMove.String(), timeline.ModeResizeLeft.String(), timeline.ModeResizeRight.String()}, cobra.ShellCompDirectiveNoFileComp
	})

	parent.AddCommand(cmd)
}

func addTaskVisibility(parent *cobra.Command, verb string, hidden bool) {
	bo := &options.BoardOptions{}
	short := "Show a hidden task on the timeline again"
	if hidden {
		short = "Hide a task from the timeline"
	}

	cmd := &cobra.Command{
		Use:               verb + " <task-id>",
		Short:             short,
		Args:              requireID("a task id"),
		ValidArgsFunction: taskIDCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := options.ParseID(args[0])
			if err != nil {
				return err
			}
			svc, _, err := load()
			if err != nil {
				return err
			}
			if _, err := loadBoard(cmd.Context(), svc, bo); err != nil {
				return output.HandleError(err)
			}
			updated, err := svc.SetHidden(cmd.Context(), id, hidden)
			if err != nil {
				return output.HandleError(err)
			}
			if err := svc.Flush(); err != nil {
				return output.HandleError(err)
			}
			return printTask(updated)
		},
	}

	options.AddBoardArg(cmd, bo)
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addTaskRemove(parent *cobra.Command) {
	bo := &options.BoardOptions{}

	cmd := &cobra.Command{
		Use:               "rm <task-id>",
		Aliases:           []string{"delete"},
		Short:             "Delete a task",
		Args:              requireID("a task id"),
		ValidArgsFunction: taskIDCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := options.ParseID(args[0])
			if err != nil {
				return err
			}
			svc, _, err := load()
			if err != nil {
				return err
			}
			defer svc.Close()
			if _, err := loadBoard(cmd.Context(), svc, bo); err != nil {
				return output.HandleError(err)
			}
			if err := svc.DeleteTask(cmd.Context(), id); err != nil {
				return output.HandleError(err)
			}
			_, _ = fmt.Fprintf(color.Output, "Deleted task %d\n", id)
			return nil
		},
	}

	options.AddBoardArg(cmd, bo)
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

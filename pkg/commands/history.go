package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/printers"
	"tableflip.dev/taskboard/pkg/timeutil"
)

func addHistory(topLevel *cobra.Command) {
	var (
		window string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "history <task-id>",
		Short: "Show how long a task spent in each status",
		Example: `
taskboard history 10231
taskboard history 10231 --window 1m
taskboard history 10231 --all
`,
		Args:              requireID("a task id"),
		ValidArgsFunction: taskIDCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := options.ParseID(args[0])
			if err != nil {
				return err
			}
			var since time.Time
			if !all {
				d, _, err := timeutil.ParseWindow(window)
				if err != nil {
					return err
				}
				since = time.Now().Add(-d)
			}
			svc, _, err := load()
			if err != nil {
				return err
			}
			report, err := svc.History(cmd.Context(), id, since)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(report)
			}
			pp := &printers.PrettyPrint{}
			pp.Title(fmt.Sprintf("Task %d", id))
			pp.NewLine()
			pp.History(report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&window, "window", "w", timeutil.DefaultWindow, "How far back to look, e.g. 3d, 2w, 1m.")
	cmd.Flags().BoolVar(&all, "all", false, "Use the whole history.")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

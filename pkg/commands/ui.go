package commands

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	teaui "tableflip.dev/taskboard/pkg/tui/app"
)

func addUI(topLevel *cobra.Command) {
	bo := &options.BoardOptions{}
	var dayWidth int

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the Gantt timeline of a board",
		Example: `
taskboard ui
taskboard ui --board 3 --group-by assignee
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			fd := os.Stdout.Fd()
			if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
				return errors.New("ui needs an interactive terminal")
			}
			svc, cfg, err := load()
			if err != nil {
				return err
			}
			defer svc.Close()
			if _, err := svc.CurrentUser(); err != nil {
				return err
			}
			board, err := boardFor(cmd.Context(), svc, bo)
			if err != nil {
				return err
			}
			by, err := bo.Grouping(cfg.GroupBy())
			if err != nil {
				return err
			}
			statuses, err := bo.StatusFilter()
			if err != nil {
				return err
			}
			if dayWidth <= 0 {
				dayWidth = cfg.DayWidth()
			}
			return teaui.Run(cmd.Context(), svc, teaui.Options{
				Board:    board,
				GroupBy:  by,
				Statuses: statuses,
				DayWidth: dayWidth,
				Gutter:   cfg.Gutter(),
				Theme:    svc.Theme(),
			})
		},
	}

	options.AddBoardArg(cmd, bo)
	options.AddGroupByArg(cmd, bo)
	options.AddStatusArg(cmd, bo)
	cmd.Flags().IntVar(&dayWidth, "day-width", 0, "Columns per day. Defaults to the configured width.")

	topLevel.AddCommand(cmd)
}

package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/printers"
)

func addBoards(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List your boards",
		Example: `
taskboard boards
taskboard boards use 3
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, _, err := load()
			if err != nil {
				return err
			}
			boards, err := svc.Boards(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(boards)
			}
			active, _ := svc.Board(cmd.Context())
			(&printers.PrettyPrint{}).Boards(boards, active)
			return nil
		},
	}
	options.AddOutputArg(cmd, output)

	use := &cobra.Command{
		Use:   "use <board-id>",
		Short: "Select the board later commands use",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a board id")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			id, err := options.ParseID(args[0])
			if err != nil {
				return err
			}
			svc, _, err := load()
			if err != nil {
				return err
			}
			if err := svc.SelectBoard(id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(color.Output, "Using board %d\n", id)
			return nil
		},
	}
	cmd.AddCommand(use)

	topLevel.AddCommand(cmd)
}

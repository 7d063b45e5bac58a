package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/logging"
)

var (
	output = &options.OutputOptions{}
)

func New() *cobra.Command {
	var (
		debug   string
		cleanup = func() {}
	)

	cmd := &cobra.Command{
		Use:   "taskboard",
		Short: options.Wrap80("Task board with a Gantt timeline on the command line."),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			done, err := logging.Setup(debug)
			if err != nil {
				return err
			}
			cleanup = done
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			cleanup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&debug, "debug", "",
		"Write debug logs to this file. Defaults to $"+logging.EnvDebug+".")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addLogin(topLevel)
	addRegister(topLevel)
	addLogout(topLevel)
	addWhoami(topLevel)
	addTelegram(topLevel)
	addBoards(topLevel)
	addTask(topLevel)
	addTag(topLevel)
	addUsers(topLevel)
	addHistory(topLevel)
	addMCP(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}

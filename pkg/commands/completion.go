package commands

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/store"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(taskboard completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(taskboard completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(os.Stdout)
		},
	}

	topLevel.AddCommand(cmd)
}

// taskIDCompletions offers ids from the local cache so completion never
// waits on the network.
func taskIDCompletions(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cache, err := store.Load(cfg)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	board := cfg.Board()
	if sess, ok, err := cache.Session(); err == nil && ok && sess.Board != 0 {
		board = sess.Board
	}
	tasks, err := cache.Tasks(board)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, t := range tasks {
		id := strconv.FormatInt(t.ID, 10)
		if strings.HasPrefix(id, toComplete) {
			out = append(out, id+"\t"+t.Title)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/printers"
)

func addTag(topLevel *cobra.Command) {
	bo := &options.BoardOptions{}

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage board tags",
		Example: `
taskboard tag list
taskboard tag add backend --color "#3b82f6"
taskboard tag attach 10231 backend
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().Int64Var(&bo.Board, "board", 0,
		"Board id. Defaults to the selected or configured board.")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the tags of a board",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, _, err := load()
			if err != nil {
				return err
			}
			board, err := boardFor(cmd.Context(), svc, bo)
			if err != nil {
				return output.HandleError(err)
			}
			tags, err := svc.Tags(cmd.Context(), board)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(tags)
			}
			(&printers.PrettyPrint{}).Tags(tags)
			return nil
		},
	}
	options.AddOutputArg(list, output)

	var tagColor string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a tag",
		Args:  requireID("a tag title"),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := load()
			if err != nil {
				return err
			}
			board, err := loadBoard(cmd.Context(), svc, bo)
			if err != nil {
				return output.HandleError(err)
			}
			tag, err := svc.CreateTag(cmd.Context(), board, args[0], tagColor)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(tag)
			}
			_, _ = fmt.Fprintf(color.Output, "Created tag %q (%d)\n", tag.Title, tag.ID)
			return nil
		},
	}
	add.Flags().StringVar(&tagColor, "color", "#94A3B8", "Tag colour as #rrggbb.")
	options.AddOutputArg(add, output)

	rm := &cobra.Command{
		Use:   "rm <title>",
		Short: "Delete a tag",
		Args:  requireID("a tag title"),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := load()
			if err != nil {
				return err
			}
			board, err := loadBoard(cmd.Context(), svc, bo)
			if err != nil {
				return output.HandleError(err)
			}
			if err := svc.DeleteTag(cmd.Context(), board, args[0]); err != nil {
				return output.HandleError(err)
			}
			_, _ = fmt.Fprintf(color.Output, "Deleted tag %q\n", args[0])
			return nil
		},
	}
	options.AddOutputArg(rm, output)

	cmd.AddCommand(list, add, rm, tagAttach(bo, true), tagAttach(bo, false))
	topLevel.AddCommand(cmd)
}

func tagAttach(bo *options.BoardOptions, attach bool) *cobra.Command {
	verb, short := "detach", "Remove a tag from a task"
	if attach {
		verb, short = "attach", "Add a tag to a task"
	}

	cmd := &cobra.Command{
		Use:   verb + " <task-id> <title>",
		Short: short,
		Args: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if len(args) != 2 {
				return errors.New("requires a task id and a tag title")
			}
			return nil
		},
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
			update := svc.DetachTag
			if attach {
				update = svc.AttachTag
			}
			updated, err := update(cmd.Context(), id, args[1])
			if err != nil {
				return output.HandleError(err)
			}
			if err := svc.Flush(); err != nil {
				return output.HandleError(err)
			}
			return printTask(updated)
		},
	}
	options.AddOutputArg(cmd, output)
	return cmd
}

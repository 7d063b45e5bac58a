package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/printers"
)

func addUsers(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List the users tasks can be assigned to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, _, err := load()
			if err != nil {
				return err
			}
			users, err := svc.Users(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(users)
			}
			(&printers.PrettyPrint{}).Users(users)
			return nil
		},
	}
	options.AddOutputArg(cmd, output)
	addUserSet(cmd)
	addUserRemove(cmd)
	topLevel.AddCommand(cmd)
}

func addUserSet(parent *cobra.Command) {
	var name, role string

	cmd := &cobra.Command{
		Use:   "set <user-id>",
		Short: "Rename a user or change their role",
		Example: `
taskboard users set 7 --role lead
`,
		Args: requireID("a user id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			id, err := options.ParseID(args[0])
			if err != nil {
				return err
			}
			if name == "" && role == "" {
				return errors.New("nothing to change, pass --name or --role")
			}
			svc, _, err := load()
			if err != nil {
				return err
			}
			u, err := svc.UpdateUser(cmd.Context(), id, name, role)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(u)
			}
			(&printers.PrettyPrint{}).User(u)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name.")
	cmd.Flags().StringVar(&role, "role", "", "New role description.")
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addUserRemove(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "rm <user-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a user",
		Args:    requireID("a user id"),
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
			if err := svc.DeleteUser(cmd.Context(), id); err != nil {
				return output.HandleError(err)
			}
			_, _ = fmt.Fprintf(color.Output, "Deleted user %d\n", id)
			return nil
		},
	}
	parent.AddCommand(cmd)
}

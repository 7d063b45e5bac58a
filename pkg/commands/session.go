package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/printers"
)

func promptSecret(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) == 0 {
				return errors.New("empty")
			}
			return nil
		},
	}
	return prompt.Run()
}

func promptText(label string) (string, error) {
	templates := &promptui.PromptTemplates{
		Prompt:  "{{ . }}: ",
		Valid:   "{{ . | green }}: ",
		Invalid: "{{ . | red }}: ",
		Success: "{{ . | bold }}: ",
	}
	prompt := promptui.Prompt{
		Label:     label,
		Templates: templates,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("empty")
			}
			return nil
		},
	}
	return prompt.Run()
}

func addLogin(topLevel *cobra.Command) {
	var login, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the tracker",
		Example: `
taskboard login --login ada
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, _, err := load()
			if err != nil {
				return err
			}
			if login == "" {
				if login, err = promptText("Login"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptSecret("Password"); err != nil {
					return err
				}
			}
			u, err := svc.Login(cmd.Context(), login, password)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(u)
			}
			_, _ = fmt.Fprint(color.Output, "Signed in as ")
			(&printers.PrettyPrint{}).User(u)
			return nil
		},
	}

	cmd.Flags().StringVarP(&login, "login", "l", "", "Account login.")
	cmd.Flags().StringVar(&password, "password", "", "Account password. Prompted when empty.")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addRegister(topLevel *cobra.Command) {
	var name, login, password, role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Example: `
taskboard register --name "Ada Lovelace" --login ada --role developer
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, _, err := load()
			if err != nil {
				return err
			}
			if name == "" {
				if name, err = promptText("Name"); err != nil {
					return err
				}
			}
			if login == "" {
				if login, err = promptText("Login"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptSecret("Password"); err != nil {
					return err
				}
			}
			u, err := svc.Register(cmd.Context(), name, login, password, role)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(u)
			}
			_, _ = fmt.Fprint(color.Output, "Registered ")
			(&printers.PrettyPrint{}).User(u)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name.")
	cmd.Flags().StringVarP(&login, "login", "l", "", "Account login.")
	cmd.Flags().StringVar(&password, "password", "", "Account password. Prompted when empty.")
	cmd.Flags().StringVar(&role, "role", "", "Role description.")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addLogout(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, _, err := load()
			if err != nil {
				return err
			}
			return svc.Logout()
		},
	}
	topLevel.AddCommand(cmd)
}

func addWhoami(topLevel *cobra.Command) {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, _, err := load()
			if err != nil {
				return err
			}
			u, err := svc.CurrentUser()
			if err == nil && refresh {
				u, err = svc.Profile(cmd.Context())
			}
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

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Reload the profile from the server.")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addTelegram(topLevel *cobra.Command) {
	var login string

	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Link an account to Telegram notifications",
		Example: `
taskboard telegram
taskboard telegram --login ada
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, _, err := load()
			if err != nil {
				return err
			}
			if login == "" {
				u, err := svc.CurrentUser()
				if err != nil {
					return output.HandleError(err)
				}
				login = u.Login
			}
			link, err := svc.TelegramLink(cmd.Context(), login)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(link)
			}
			if !link.OK {
				return fmt.Errorf("telegram link refused for %s", login)
			}
			_, _ = fmt.Fprintf(color.Output, "Send %s to the bot to link %s\n",
				color.New(color.Bold).Sprint(link.Code), login)
			if link.DeepLink != nil {
				_, _ = fmt.Fprintf(color.Output, "or open %s\n", *link.DeepLink)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&login, "login", "l", "", "Account login. Defaults to the signed-in user.")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

// Package snake fills unset cobra flags interactively with promptui.
package snake

import (
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Question asks for one flag. Choices turn the prompt into a picker.
type Question struct {
	Flag     string
	Choices  []string
	Validate func(string) error
}

// Fill prompts for every question whose flag was not given on the command
// line and sets the answers on the command's flags. An empty answer keeps
// the flag's default.
func Fill(cmd *cobra.Command, questions ...Question) error {
	pio := promptIO{in: io.NopCloser(cmd.InOrStdin()), out: nopWriteCloser{cmd.OutOrStdout()}}
	for _, q := range questions {
		f := cmd.Flags().Lookup(q.Flag)
		if f == nil {
			return fmt.Errorf("snake: unknown flag %q", q.Flag)
		}
		if f.Changed {
			continue
		}
		var (
			answer string
			ok     bool
			err    error
		)
		switch {
		case f.Value.Type() == "bool":
			answer, ok, err = promptBool(f, pio)
		case len(q.Choices) > 0:
			answer, ok, err = promptChoice(f, q.Choices, pio)
		default:
			answer, ok, err = promptString(f, q.Validate, pio)
		}
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := cmd.Flags().Set(f.Name, answer); err != nil {
			return fmt.Errorf("snake: --%s: %w", f.Name, err)
		}
	}
	return nil
}

type promptIO struct {
	in  io.ReadCloser
	out io.WriteCloser
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func asFlags(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("--%s, -%s", f.Name, f.Shorthand)
	}
	return fmt.Sprintf("--%s", f.Name)
}

// promptChoice offers choices for f with the flag's default preselected.
func promptChoice(f *pflag.Flag, choices []string, pio promptIO) (string, bool, error) {
	cursor := 0
	for i, c := range choices {
		if c == f.DefValue {
			cursor = i
		}
	}
	templates := &promptui.SelectTemplates{
		Label:    "{{ . | magenta }}",
		Active:   "➜ {{ . | bold }}",
		Inactive: "  {{ . }}",
		Selected: "{{ . | bold | green }}",
	}
	prompt := promptui.Select{
		HideHelp:  true,
		Label:     fmt.Sprintf("%s %s", asFlags(f), f.Usage),
		Items:     choices,
		Templates: templates,
		Size:      10,
		CursorPos: cursor,
		Stdin:     pio.in,
		Stdout:    pio.out,
	}
	_, result, err := prompt.Run()
	if err != nil {
		return "", false, err
	}
	return result, true, nil
}

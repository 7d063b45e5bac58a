package snake

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/pflag"
)

// promptString asks for a free form value. Numbers are checked against the
// flag's type; anything else goes through validate when given.
func promptString(f *pflag.Flag, validate func(string) error, pio promptIO) (string, bool, error) {
	templates := &promptui.PromptTemplates{
		Prompt:  "{{ . }}: ",
		Valid:   "{{ . | green }}: ",
		Invalid: "{{ . | red }}: ",
		Success: "{{ . | bold }}: ",
	}
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s %s", asFlags(f), f.Usage),
		Templates: templates,
		Validate:  validateFor(f, validate),
		Stdin:     pio.in,
		Stdout:    pio.out,
	}
	result, err := prompt.Run()
	if err != nil {
		return "", false, err
	}
	if result == "" {
		return "", false, nil
	}
	return result, true, nil
}

func validateFor(f *pflag.Flag, validate func(string) error) promptui.ValidateFunc {
	return func(input string) error {
		if input == "" {
			return nil
		}
		if validate != nil {
			return validate(input)
		}
		scratch := pflag.NewFlagSet("scratch", pflag.ContinueOnError)
		switch f.Value.Type() {
		case "int64":
			scratch.Int64(f.Name, 0, "")
		case "int":
			scratch.Int(f.Name, 0, "")
		default:
			return nil
		}
		return scratch.Set(f.Name, input)
	}
}

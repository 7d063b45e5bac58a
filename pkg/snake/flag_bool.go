package snake

import (
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/pflag"
)

// promptBool asks a yes/no question for f.
func promptBool(f *pflag.Flag, pio promptIO) (string, bool, error) {
	label := "y/N"
	if def, err := ParseBool(f.DefValue); err == nil && def {
		label = "Y/n"
	}
	prompt := promptui.Prompt{
		Label: asFlags(f) + " " + f.Usage + " [" + label + "]",
		Validate: func(input string) error {
			if input == "" {
				return nil
			}
			_, err := ParseBool(input)
			return err
		},
		Stdin:  pio.in,
		Stdout: pio.out,
	}
	result, err := prompt.Run()
	if err != nil {
		return "", false, err
	}
	if result == "" {
		return "", false, nil
	}
	v, _ := ParseBool(result)
	return strconv.FormatBool(v), true, nil
}

// ParseBool is strconv.ParseBool with the addition of Yes/No parsing.
func ParseBool(str string) (bool, error) {
	switch str {
	case "1", "t", "T", "true", "TRUE", "True", "y", "Y", "yes", "YES", "Yes":
		return true, nil
	case "0", "f", "F", "false", "FALSE", "False", "n", "N", "no", "NO", "No":
		return false, nil
	}
	return false, &strconv.NumError{Func: "ParseBool", Num: str, Err: strconv.ErrSyntax}
}

package snake

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{in: "yes", want: true},
		{in: "Y", want: true},
		{in: "true", want: true},
		{in: "no", want: false},
		{in: "F", want: false},
		{in: "0", want: false},
		{in: "maybe", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBool(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBool(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Fatalf("ParseBool(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateFor(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().Int64("assignee", 0, "")
	cmd.Flags().String("start", "", "")

	num := validateFor(cmd.Flags().Lookup("assignee"), nil)
	if err := num("12"); err != nil {
		t.Fatalf("expected 12 to be a valid int64: %v", err)
	}
	if err := num("twelve"); err == nil {
		t.Fatalf("expected twelve to be rejected")
	}
	if err := num(""); err != nil {
		t.Fatalf("expected empty input to keep the default: %v", err)
	}

	errBad := errors.New("bad date")
	date := validateFor(cmd.Flags().Lookup("start"), func(s string) error {
		if s != "2024-03-01" {
			return errBad
		}
		return nil
	})
	if err := date("2024-03-01"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := date("March"); !errors.Is(err, errBad) {
		t.Fatalf("expected custom validation error, got %v", err)
	}
}

func TestFillSkipsFlagsGivenOnCommandLine(t *testing.T) {
	cmd := &cobra.Command{Use: "x", Run: func(*cobra.Command, []string) {}}
	status := cmd.Flags().String("status", "", "")
	if err := cmd.Flags().Set("status", "review"); err != nil {
		t.Fatal(err)
	}
	if err := Fill(cmd, Question{Flag: "status", Choices: []string{"done", "review"}}); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if *status != "review" {
		t.Fatalf("expected status untouched, got %q", *status)
	}
}

func TestFillUnknownFlag(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	if err := Fill(cmd, Question{Flag: "nope"}); err == nil {
		t.Fatalf("expected an error for an unknown flag")
	}
}

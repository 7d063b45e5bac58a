package options

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// Wrap80 wraps help text for an 80 column terminal.
func Wrap80(text string) string {
	return Wrap(text, 80)
}

// Wrap reflows text into lines of at most width cells. Runs of whitespace,
// newlines included, collapse to one space first; words longer than width
// keep a line of their own.
func Wrap(text string, width int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if flat == "" {
		return text
	}
	return wordwrap.String(flat, width)
}

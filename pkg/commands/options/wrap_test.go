package options

import (
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{name: "fits", text: "move a task", width: 20, want: "move a task"},
		{name: "breaks on words", text: "move a task by days", width: 11, want: "move a task\nby days"},
		{name: "collapses whitespace", text: "  move\n a   task ", width: 20, want: "move a task"},
		{name: "blank", text: "   ", width: 10, want: "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wrap(tt.text, tt.width); got != tt.want {
				t.Fatalf("Wrap(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrap80KeepsLinesShort(t *testing.T) {
	text := strings.Repeat("reschedule the task along the timeline ", 10)
	for _, line := range strings.Split(Wrap80(text), "\n") {
		if len(line) > 80 {
			t.Fatalf("line of %d cells: %q", len(line), line)
		}
	}
}

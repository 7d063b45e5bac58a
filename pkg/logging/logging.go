// Package logging routes the standard logger. Terminal UIs own stdout, so log
// lines go to a file when debugging and nowhere otherwise.
package logging

import (
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea/v2"
)

// EnvDebug names the variable that enables debug logging when no flag is set.
const EnvDebug = "TASKBOARD_DEBUG"

// Setup sends log output to path, or discards it when path and EnvDebug are
// both empty. The returned func closes the log file.
func Setup(path string) (func(), error) {
	if path == "" {
		path = os.Getenv(EnvDebug)
	}
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "taskboard")
	if err != nil {
		return func() {}, err
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return func() {
		_ = f.Close()
	}, nil
}

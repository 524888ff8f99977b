// Package obslog builds the structured logger used throughout accessorkit:
// a zerolog.Logger, human-readable on a terminal and JSON otherwise, tagged
// with the component that owns it.
package obslog

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
)

// Profile selects a logger's destination and verbosity.
type Profile struct {
	// Level is the minimum level that will be logged. Its zero value is
	// zerolog.DebugLevel.
	Level zerolog.Level
	// Pretty selects (true) or suppresses (false) the human-readable console
	// writer. When PrettySet is false and Out is an *os.File, Pretty is
	// ignored and the console writer is used only if Out is a terminal.
	Pretty   bool
	PrettySet bool
	Out      io.Writer
}

// New builds a logger for component, honoring profile and the
// ACCESSORKIT_LOG_LEVEL environment variable override.
func New(component string, profile Profile) zerolog.Logger {
	out := profile.Out
	if out == nil {
		out = os.Stderr
	}

	pretty := profile.Pretty
	if !profile.PrettySet {
		if f, ok := out.(*os.File); ok {
			pretty = isTerminal(f)
		}
	}

	var writer io.Writer = out
	if pretty {
		consoleOut := out
		if f, ok := out.(*os.File); ok {
			consoleOut = colorable.NewColorable(f)
		}
		writer = zerolog.ConsoleWriter{Out: consoleOut, TimeFormat: time.RFC3339}
	}

	level := profile.Level
	if envLevel, ok := levelFromEnv(); ok {
		level = envLevel
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func levelFromEnv() (zerolog.Level, bool) {
	raw := os.Getenv("ACCESSORKIT_LOG_LEVEL")
	if raw == "" {
		return 0, false
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return 0, false
	}
	return level, true
}

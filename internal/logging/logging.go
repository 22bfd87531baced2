// Package logging builds the process logger.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout on console log lines.
const TimeFormat = "15:04:05"

// New returns a console logger on w at Info level, or Debug when debug is set.
// Colour is disabled when noColor is true, e.g. when w is not a terminal.
func New(w io.Writer, debug, noColor bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: TimeFormat,
		NoColor:    noColor,
	}
	return zerolog.New(consoleWriter).Level(level).With().Timestamp().Logger()
}

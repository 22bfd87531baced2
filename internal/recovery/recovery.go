// Package recovery turns panics in main and background goroutines into a
// logged fatal exit.
package recovery

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	logger atomic.Pointer[zerolog.Logger]
	exit   = os.Exit
)

// SetLogger routes panic reports to l instead of plain stderr.
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

func current() *zerolog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return &l
}

// HandlePanic should be deferred at the top of main() or goroutines.
// It logs the panic with its stack and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		report(r)
		exit(1)
	}
}

// HandlePanicFunc is HandlePanic with a cleanup step run before exiting,
// e.g. releasing the serial port or audio device.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		report(r)
		if cleanup != nil {
			cleanup()
		}
		exit(1)
	}
}

func report(r any) {
	current().WithLevel(zerolog.FatalLevel).
		Str("panic", fmt.Sprint(r)).
		Str("stack", string(debug.Stack())).
		Msg("FATAL")
}

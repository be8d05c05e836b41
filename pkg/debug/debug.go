// Package debug provides conditional trace logging for otpdeck.
//
// Tracing is enabled by setting OTPDECK_DEBUG:
//
//	OTPDECK_DEBUG=1 OTPDECK_DEBUG_FILE=/tmp/otpdeck.trace otpdeck
//
// The TUI owns the terminal, so traces should normally go to a file. When
// OTPDECK_DEBUG_FILE is unset they go to stderr. When disabled (default),
// every function is a no-op.
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("OTPDECK_DEBUG") == "" {
		return
	}
	var out io.Writer = os.Stderr
	if path := os.Getenv("OTPDECK_DEBUG_FILE"); path != "" {
		if f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err == nil {
			out = f
		}
	}
	enabled = true
	logger = newLogger(out)
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "[OTPDECK_DEBUG] ", log.Ltime|log.Lmicroseconds)
}

// Enabled returns whether trace logging is on.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetEnabled turns tracing on or off, defaulting output to stderr.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = newLogger(os.Stderr)
	}
}

// SetOutput redirects trace output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

func get() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return nil
	}
	return logger
}

// Log writes a printf-style trace line.
func Log(format string, args ...any) {
	if l := get(); l != nil {
		l.Printf(format, args...)
	}
}

// LogTiming writes how long name took.
func LogTiming(name string, d time.Duration) {
	if l := get(); l != nil {
		l.Printf("%s took %v", name, d)
	}
}

// LogIf writes a trace line only if cond holds.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	Log(format, args...)
}

// Section writes a header line to break up trace output.
func Section(name string) {
	if l := get(); l != nil {
		l.Printf("=== %s ===", name)
	}
}

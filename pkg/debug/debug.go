// Package debug provides conditional debug logging for qw.
//
// Debug logging is enabled by setting the QW_DEBUG environment variable:
//
//	QW_DEBUG=1 qw status
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops.
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"time"
)

const prefix = "[QW_DEBUG] "

var (
	mu      sync.Mutex
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("QW_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output. Tests use it to capture messages.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, prefix, 0)
}

// Log writes a debug message if debug logging is enabled.
func Log(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	Log(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	Log("%s took %v", name, d)
}

// LogEnterExit logs function entry and exit with timing.
//
//	defer debug.LogEnterExit("BuildNodes")()
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	Log("-> %s", name)
	start := time.Now()
	return func() {
		Log("<- %s (%v)", name, time.Since(start))
	}
}

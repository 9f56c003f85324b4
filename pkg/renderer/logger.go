package renderer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/df07/go-pathtracer/pkg/core"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// RecordingLogger forwards to another logger while retaining the full run
// log, so it can be embedded in the output EXR as the "log" attribute.
type RecordingLogger struct {
	mu      sync.Mutex
	history strings.Builder
	next    core.Logger
}

// NewRecordingLogger creates a recording logger wrapping next (may be nil)
func NewRecordingLogger(next core.Logger) *RecordingLogger {
	return &RecordingLogger{next: next}
}

func (rl *RecordingLogger) Printf(format string, args ...interface{}) {
	rl.mu.Lock()
	fmt.Fprintf(&rl.history, format, args...)
	rl.mu.Unlock()

	if rl.next != nil {
		rl.next.Printf(format, args...)
	}
}

// History returns everything logged so far
func (rl *RecordingLogger) History() string {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.history.String()
}

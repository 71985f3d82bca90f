package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// TraceLogger provides step-by-step trace logging for CLI operations.
type TraceLogger struct {
	mu      sync.Mutex
	writer  io.Writer
	enabled bool
	now     func() time.Time
}

// NewTraceLogger creates a trace logger writing to the given writer.
// A nil writer traces to stderr.
func NewTraceLogger(w io.Writer, enabled bool) *TraceLogger {
	if w == nil {
		w = defaultTraceWriter()
	}
	return &TraceLogger{
		writer:  w,
		enabled: enabled,
		now:     time.Now,
	}
}

// Log records a trace entry for a step.
func (t *TraceLogger) Log(component, step, detail string) {
	if t == nil || !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE %s] %s: %s - %s\n",
		t.now().Format("15:04:05.000"), component, step, detail)
}

// LogDuration records how long a step took.
func (t *TraceLogger) LogDuration(component, step string, d time.Duration) {
	if t == nil || !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE %s] %s: %s took %.3fms\n",
		t.now().Format("15:04:05.000"), component, step, float64(d)/float64(time.Millisecond))
}

// defaultTraceWriter returns stderr for trace output.
func defaultTraceWriter() io.Writer {
	return os.Stderr
}

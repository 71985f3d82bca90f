// Package timing provides a scoped wall-clock stopwatch.
package timing

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danpilch/perfkit/pkg/counters"
)

// Timing measures the wall-clock time between Start and Stop and prints
// it as "<prefix><ms> ms" when enabled.
//
// A Timing is not safe for concurrent or overlapping use.
type Timing struct {
	Prefix  string
	Enabled bool
	// OnExit is accepted for compatibility and never invoked.
	OnExit func(time.Duration)

	writer   io.Writer
	counters *counters.Counters
	start    time.Time
	elapsed  time.Duration
}

// Option configures a Timing.
type Option func(*Timing)

// WithEnabled toggles printing on Stop. Elapsed time is computed either way.
func WithEnabled(enabled bool) Option {
	return func(t *Timing) { t.Enabled = enabled }
}

// WithOnExit sets the exit callback. It is stored but not called.
func WithOnExit(fn func(time.Duration)) Option {
	return func(t *Timing) { t.OnExit = fn }
}

// WithWriter sets the output destination (default os.Stdout).
func WithWriter(w io.Writer) Option {
	return func(t *Timing) { t.writer = w }
}

// WithCounters adds each measured duration, in seconds, to c.TimeSumS.
func WithCounters(c *counters.Counters) Option {
	return func(t *Timing) { t.counters = c }
}

// New creates an enabled Timing with the given prefix.
func New(prefix string, opts ...Option) *Timing {
	t := &Timing{
		Prefix:  prefix,
		Enabled: true,
		writer:  os.Stdout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start records the current time.
func (t *Timing) Start() *Timing {
	t.start = time.Now()
	return t
}

// Stop computes the elapsed time since Start and prints it if enabled.
func (t *Timing) Stop() time.Duration {
	t.elapsed = time.Since(t.start)
	if t.counters != nil {
		t.counters.TimeSumS += t.elapsed.Seconds()
	}
	if t.Enabled {
		fmt.Fprintln(t.writer, Format(t.Prefix, t.elapsed))
	}
	return t.elapsed
}

// Elapsed returns the duration computed by the last Stop.
func (t *Timing) Elapsed() time.Duration {
	return t.elapsed
}

// Measure runs fn between Start and Stop. Stop runs on every exit path,
// including a panic in fn; fn's error or panic is passed through as is.
func (t *Timing) Measure(fn func() error) error {
	t.Start()
	defer t.Stop()
	return fn()
}

// Wrap returns fn wrapped in Measure.
func (t *Timing) Wrap(fn func() error) func() error {
	return func() error {
		return t.Measure(fn)
	}
}

// Format renders a duration as "<prefix><ms, width 6, 2 decimals> ms".
func Format(prefix string, d time.Duration) string {
	return fmt.Sprintf("%s%6.2f ms", prefix, float64(d.Nanoseconds())*1e-6)
}

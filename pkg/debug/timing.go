package debug

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/perfkit/pkg/timing"
	"github.com/danpilch/perfkit/pkg/workload"
)

var (
	debugTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	debugHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	debugDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// WorkloadTiming records the duration of one workload run.
type WorkloadTiming struct {
	Name     string
	Duration time.Duration
}

// TimedWorkload wraps a workload.Workload to record run duration.
type TimedWorkload struct {
	inner  workload.Workload
	timer  *timing.Timing
	Timing WorkloadTiming
}

// NewTimedWorkload wraps a workload with timing instrumentation. Options
// are passed to the underlying timing.Timing, which prints by default.
func NewTimedWorkload(w workload.Workload, opts ...timing.Option) *TimedWorkload {
	return &TimedWorkload{
		inner: w,
		timer: timing.New(w.Name()+": ", opts...),
	}
}

// Name returns the wrapped workload's name.
func (t *TimedWorkload) Name() string {
	return t.inner.Name()
}

// Run runs the wrapped workload and records duration.
func (t *TimedWorkload) Run(ctx context.Context) error {
	err := t.timer.Measure(func() error { return t.inner.Run(ctx) })
	t.Timing = WorkloadTiming{
		Name:     t.inner.Name(),
		Duration: t.timer.Elapsed(),
	}
	return err
}

// TimingReport prints a styled timing summary for timed workloads.
func TimingReport(w io.Writer, timings []WorkloadTiming) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Workload Timing Report"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 40)))
	fmt.Fprintf(w, "  %s  %s\n",
		debugHeader.Render("WORKLOAD           "),
		debugHeader.Render("DURATION    "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 40)))

	var total time.Duration
	for _, t := range timings {
		fmt.Fprintf(w, "  %-20s %s\n", t.Name, timing.Format("", t.Duration))
		total += t.Duration
	}
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  %-20s %s\n",
		lipgloss.NewStyle().Bold(true).Render("TOTAL"), timing.Format("", total))
}

// Package benchmark runs workloads repeatedly and reports latency
// percentiles and the overhead they caused.
package benchmark

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/perfkit/pkg/counters"
	"github.com/danpilch/perfkit/pkg/output"
	"github.com/danpilch/perfkit/pkg/timing"
	"github.com/danpilch/perfkit/pkg/workload"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// Options configures a benchmark run.
type Options struct {
	Iterations int `yaml:"iterations"`
	Warmup     int `yaml:"warmup"`
}

// DefaultOptions returns sensible benchmark defaults.
func DefaultOptions() Options {
	return Options{
		Iterations: 20,
		Warmup:     3,
	}
}

// Validate rejects iteration counts the runner cannot honor.
func (o Options) Validate() error {
	if o.Iterations < 1 {
		return fmt.Errorf("benchmark iterations must be at least 1, got %d", o.Iterations)
	}
	if o.Warmup < 0 {
		return fmt.Errorf("benchmark warmup must not be negative, got %d", o.Warmup)
	}
	return nil
}

// Result holds benchmark results for a single workload.
type Result struct {
	Workload  string
	Latencies []time.Duration // in run order
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration
	Stability Stability
	Overhead  Overhead
	// Trend is a sparkline of the runner's recent latencies for this
	// workload, including earlier Run calls.
	Trend string
}

// Overhead holds the resources consumed while a workload ran.
type Overhead struct {
	AllocBytes uint64
	AllocCount uint64
	GCPauses   uint32
	UserCPU    time.Duration
	SystemCPU  time.Duration
}

var (
	bmTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bmHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	bmDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	bmWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	bmErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Runner benchmarks workloads and records into shared counters.
type Runner struct {
	opts     Options
	counters *counters.Counters
	logger   *logrus.Logger
	trends   *output.Trends
}

// trendWindow is the number of recent latencies kept per workload.
const trendWindow = 30

// NewRunner creates a Runner. Measured time is added to c.TimeSumS and
// allocation overhead to c.GlobalMem.
func NewRunner(opts Options, c *counters.Counters, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	if c == nil {
		c = counters.New()
	}
	return &Runner{opts: opts, counters: c, logger: logger, trends: output.NewTrends(trendWindow)}
}

// Trends returns the recent latencies, in milliseconds, per workload.
func (r *Runner) Trends() *output.Trends {
	return r.trends
}

// Run benchmarks each workload in order.
func (r *Runner) Run(ctx context.Context, workloads []workload.Workload) ([]Result, error) {
	if err := r.opts.Validate(); err != nil {
		return nil, err
	}
	var results []Result

	for _, w := range workloads {
		log := r.logger.WithField("workload", w.Name())

		for i := 0; i < r.opts.Warmup; i++ {
			if err := w.Run(ctx); err != nil {
				return results, fmt.Errorf("warmup of %s failed: %w", w.Name(), err)
			}
		}

		before := MeasureOverhead()
		latencies := make([]time.Duration, r.opts.Iterations)
		t := timing.New(w.Name(), timing.WithEnabled(false), timing.WithCounters(r.counters))
		for i := 0; i < r.opts.Iterations; i++ {
			if err := t.Measure(func() error { return w.Run(ctx) }); err != nil {
				return results, fmt.Errorf("iteration %d of %s failed: %w", i, w.Name(), err)
			}
			latencies[i] = t.Elapsed()
			r.trends.Add(w.Name(), float64(latencies[i])/float64(time.Millisecond))
		}
		overhead := MeasureOverhead().Sub(before)
		r.counters.GlobalMem += int64(overhead.AllocBytes)

		sorted := make([]time.Duration, len(latencies))
		copy(sorted, latencies)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i] < sorted[j]
		})

		result := Result{
			Workload:  w.Name(),
			Latencies: latencies,
			Trend:     r.trends.Render(w.Name()),
			P50:       percentile(sorted, 0.50),
			P95:       percentile(sorted, 0.95),
			P99:       percentile(sorted, 0.99),
			Stability: Check(latencies),
			Overhead:  overhead,
		}
		log.WithFields(logrus.Fields{
			"p50":    result.P50,
			"p99":    result.P99,
			"status": result.Stability.Status,
		}).Debug("Benchmark complete")
		results = append(results, result)
	}

	return results, nil
}

// MeasureOverhead returns cumulative process allocation, GC and CPU figures.
func MeasureOverhead() Overhead {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	user, sys := cpuTimes()
	return Overhead{
		AllocBytes: m.TotalAlloc,
		AllocCount: m.Mallocs,
		GCPauses:   m.NumGC,
		UserCPU:    user,
		SystemCPU:  sys,
	}
}

// Sub returns the difference o - prev.
func (o Overhead) Sub(prev Overhead) Overhead {
	return Overhead{
		AllocBytes: o.AllocBytes - prev.AllocBytes,
		AllocCount: o.AllocCount - prev.AllocCount,
		GCPauses:   o.GCPauses - prev.GCPauses,
		UserCPU:    o.UserCPU - prev.UserCPU,
		SystemCPU:  o.SystemCPU - prev.SystemCPU,
	}
}

// RenderResults outputs styled benchmark results.
func RenderResults(w io.Writer, results []Result, c *counters.Counters) {
	fmt.Fprintln(w, bmTitle.Render("Benchmark Results"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("═", 90)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s %s %s %s %s\n",
		bmHeader.Render("WORKLOAD    "),
		bmHeader.Render("P50        "),
		bmHeader.Render("P95        "),
		bmHeader.Render("P99        "),
		bmHeader.Render("STABILITY "),
		bmHeader.Render("TREND               "))
	fmt.Fprintln(w, "  "+bmDim.Render(strings.Repeat("─", 90)))

	for _, r := range results {
		status := string(r.Stability.Status)
		switch r.Stability.Status {
		case StatusSuspect:
			status = bmWarn.Render(status)
		case StatusNoisy:
			status = bmErr.Render(status)
		}
		fmt.Fprintf(w, "  %-14s %-12v %-12v %-12v %-11s %s\n",
			r.Workload, r.P50.Round(time.Microsecond), r.P95.Round(time.Microsecond),
			r.P99.Round(time.Microsecond), status, r.Trend)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bmTitle.Render("Overhead"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("─", 40)))
	for _, r := range results {
		o := r.Overhead
		fmt.Fprintf(w, "  %-14s %s allocated, %d allocs, %d GCs, user %v, sys %v\n",
			r.Workload, formatBytes(o.AllocBytes), o.AllocCount, o.GCPauses,
			o.UserCPU.Round(time.Millisecond), o.SystemCPU.Round(time.Millisecond))
	}

	if c != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Counters: %s\n", lipgloss.NewStyle().Bold(true).Render(c.String()))
	}
}

// percentile returns the empirical p-quantile of sorted latencies.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	values := make([]float64, len(sorted))
	for i, d := range sorted {
		values[i] = float64(d)
	}
	return time.Duration(stat.Quantile(p, stat.Empirical, values, nil))
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

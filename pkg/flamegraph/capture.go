// Package flamegraph turns call stacks into folded stack text and SVG
// flame graphs.
package flamegraph

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/google/pprof/profile"
)

// CaptureOptions configures a CPU capture of the current process.
type CaptureOptions struct {
	// Duration is the minimum capture time. The workload is repeated
	// until it has elapsed; zero runs it once.
	Duration time.Duration
	// ProfilePath, when set, receives the raw pprof CPU profile.
	ProfilePath string
}

// DefaultOutput is the default SVG path.
const DefaultOutput = "flamegraph.svg"

// DefaultCaptureOptions returns sensible defaults.
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{
		Duration: 2 * time.Second,
	}
}

// CaptureResult holds the result of a capture.
type CaptureResult struct {
	CollapsedStacks string // folded stack format
	Profile         []byte // raw pprof CPU profile
	SampleCount     int64
	Iterations      int
	Duration        time.Duration
}

// Capture samples the CPU of the current process with runtime/pprof while
// fn runs and returns the samples as folded stacks.
//
// Only one CPU capture may run per process at a time.
func Capture(ctx context.Context, opts CaptureOptions, fn func(context.Context) error) (*CaptureResult, error) {
	var buf bytes.Buffer
	if err := pprof.StartCPUProfile(&buf); err != nil {
		return nil, fmt.Errorf("cpu profile failed to start: %w", err)
	}

	start := time.Now()
	iterations := 0
	var runErr error
	for {
		if runErr = fn(ctx); runErr != nil {
			break
		}
		iterations++
		if time.Since(start) >= opts.Duration || ctx.Err() != nil {
			break
		}
	}
	elapsed := time.Since(start)
	pprof.StopCPUProfile()

	if runErr != nil {
		return nil, fmt.Errorf("workload failed: %w", runErr)
	}

	raw := buf.Bytes()
	prof, err := profile.ParseData(raw)
	if err != nil {
		return nil, fmt.Errorf("cannot parse cpu profile: %w", err)
	}
	if opts.ProfilePath != "" {
		if err := os.WriteFile(opts.ProfilePath, raw, 0644); err != nil {
			return nil, fmt.Errorf("cannot write cpu profile: %w", err)
		}
	}

	var collapsed strings.Builder
	count := CollapseProfile(prof, 0, &collapsed)

	return &CaptureResult{
		CollapsedStacks: collapsed.String(),
		Profile:         raw,
		SampleCount:     count,
		Iterations:      iterations,
		Duration:        elapsed,
	}, nil
}

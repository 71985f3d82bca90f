package benchmark

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danpilch/perfkit/pkg/counters"
	"github.com/danpilch/perfkit/pkg/workload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWorkload struct {
	runs int
	err  error
}

func (c *countingWorkload) Name() string { return "counting" }

func (c *countingWorkload) Run(ctx context.Context) error {
	c.runs++
	time.Sleep(100 * time.Microsecond)
	return c.err
}

func TestRunnerIterationsAndCounters(t *testing.T) {
	c := counters.New()
	w := &countingWorkload{}
	r := NewRunner(Options{Iterations: 5, Warmup: 2}, c, nil)

	results, err := r.Run(context.Background(), []workload.Workload{w})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, 7, w.runs)
	assert.Equal(t, "counting", res.Workload)
	assert.Len(t, res.Latencies, 5)
	assert.LessOrEqual(t, res.P50, res.P95)
	assert.LessOrEqual(t, res.P95, res.P99)
	assert.GreaterOrEqual(t, res.P50, 100*time.Microsecond)
	assert.Greater(t, c.TimeSumS, 0.0)
}

func TestRunnerTrendsSpanRuns(t *testing.T) {
	w := &countingWorkload{}
	r := NewRunner(Options{Iterations: 4}, nil, nil)

	_, err := r.Run(context.Background(), []workload.Workload{w})
	require.NoError(t, err)
	results, err := r.Run(context.Background(), []workload.Workload{w})
	require.NoError(t, err)

	assert.Len(t, r.Trends().Values("counting"), 8)
	assert.Equal(t, 8, len([]rune(results[0].Trend)))
}

func TestRunnerRejectsInvalidOptions(t *testing.T) {
	for _, opts := range []Options{
		{Iterations: 0},
		{Iterations: -1},
		{Iterations: 1, Warmup: -1},
	} {
		w := &countingWorkload{}
		_, err := NewRunner(opts, nil, nil).Run(context.Background(), []workload.Workload{w})
		assert.Error(t, err)
		assert.Zero(t, w.runs)
	}
}

func TestRunnerPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRunner(Options{Iterations: 1}, nil, nil)

	_, err := r.Run(context.Background(), []workload.Workload{&countingWorkload{err: boom}})
	assert.ErrorIs(t, err, boom)
}

func TestRunnerBuiltinWorkload(t *testing.T) {
	c := counters.New()
	r := NewRunner(Options{Iterations: 3, Warmup: 1}, c, nil)
	reg := workload.Default(c)

	results, err := r.Run(context.Background(), []workload.Workload{reg.GetByName("alloc")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Greater(t, c.GlobalMem, int64(0))
	assert.Greater(t, c.GlobalOps, int64(0))
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(5), percentile(sorted, 0.50))
	assert.Equal(t, time.Duration(10), percentile(sorted, 0.95))
	assert.Equal(t, time.Duration(1), percentile(sorted, 0))
	assert.Equal(t, time.Duration(0), percentile(nil, 0.5))
}

func TestCheckStability(t *testing.T) {
	s := Check([]time.Duration{100, 100, 100})
	assert.Equal(t, StatusStable, s.Status)
	assert.Equal(t, time.Duration(100), s.Median)
	assert.Equal(t, 0.0, s.MaxDeviation)

	s = Check([]time.Duration{100, 100, 130, 100})
	assert.Equal(t, StatusSuspect, s.Status)
	assert.InDelta(t, 30.0, s.MaxDeviation, 1e-9)
	assert.Equal(t, time.Duration(15), s.StdDev)

	s = Check([]time.Duration{100, 100, 300})
	assert.Equal(t, StatusNoisy, s.Status)

	s = Check([]time.Duration{300, 100})
	assert.Equal(t, time.Duration(200), s.Median)
	assert.InDelta(t, 50.0, s.MaxDeviation, 1e-9)

	assert.Equal(t, StatusStable, Check(nil).Status)
}

func TestOverheadSub(t *testing.T) {
	a := Overhead{AllocBytes: 10, AllocCount: 3, GCPauses: 2, UserCPU: 5, SystemCPU: 1}
	b := Overhead{AllocBytes: 4, AllocCount: 1, GCPauses: 1, UserCPU: 2}
	assert.Equal(t, Overhead{AllocBytes: 6, AllocCount: 2, GCPauses: 1, UserCPU: 3, SystemCPU: 1}, a.Sub(b))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	c := &counters.Counters{GlobalOps: 7}
	RenderResults(&buf, []Result{{
		Workload:  "fib",
		Latencies: []time.Duration{time.Millisecond, 2 * time.Millisecond},
		P50:       time.Millisecond,
		Trend:     "▁█",
		Stability: Stability{Status: StatusStable},
	}}, c)

	out := buf.String()
	assert.Contains(t, out, "Benchmark Results")
	assert.Contains(t, out, "fib")
	assert.Contains(t, out, "▁█")
	assert.Contains(t, out, "ops=7")
}

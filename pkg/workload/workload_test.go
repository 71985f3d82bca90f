package workload

import (
	"bytes"
	"context"
	"testing"

	"github.com/danpilch/perfkit/pkg/counters"
	"github.com/danpilch/perfkit/pkg/profiling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default(nil)
	assert.Equal(t, []string{"alloc", "encode", "fib", "sort"}, r.Names())
	assert.NotNil(t, r.GetByName("fib"))
	assert.Nil(t, r.GetByName("missing"))

	_, err := r.Lookup("missing")
	assert.EqualError(t, err, `unknown workload "missing" (available: [alloc encode fib sort])`)
}

func TestWorkloadsRunWithoutProfiler(t *testing.T) {
	c := counters.New()
	for _, w := range Default(c).Workloads() {
		require.NoError(t, w.Run(context.Background()), w.Name())
	}
	assert.Greater(t, c.GlobalOps, int64(0))
	assert.Greater(t, c.GlobalMem, int64(0))
}

func TestFibResultAndOps(t *testing.T) {
	c := counters.New()
	f := &Fib{N: 10, Counters: c}
	require.NoError(t, f.Run(context.Background()))
	assert.Equal(t, 55, f.Result)
	assert.Equal(t, int64(177), c.GlobalOps)
}

func TestFibUnderProfiler(t *testing.T) {
	var buf bytes.Buffer
	opts := profiling.DefaultOptions()
	opts.Output = &buf
	p := profiling.New(opts, nil)

	f := &Fib{N: 10}
	require.NoError(t, p.Run(context.Background(), f.Run))

	rows, err := p.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(177), rows[0].TotalCalls)
	assert.Equal(t, int64(1), rows[0].PrimitiveCalls)
	assert.Contains(t, rows[0].Function, "workload.fib (builtin.go:")
}

func TestSortUnderProfiler(t *testing.T) {
	var buf bytes.Buffer
	opts := profiling.DefaultOptions()
	opts.Output = &buf
	p := profiling.New(opts, nil)

	s := &Sort{Size: 200}
	require.NoError(t, p.Run(context.Background(), s.Run))

	stats := p.Stats()
	for _, name := range []string{"generate", "mergeSort", "merge", "insertionSort"} {
		fs := stats.Lookup("github.com/danpilch/perfkit/pkg/workload." + name)
		require.NotNil(t, fs, name)
		assert.GreaterOrEqual(t, fs.TotalCalls, fs.PrimitiveCalls)
	}
	assert.Equal(t, int64(1), stats.Lookup("github.com/danpilch/perfkit/pkg/workload.mergeSort").PrimitiveCalls)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, (&Alloc{Blocks: 1, BlockSize: 8}).Run(ctx), context.Canceled)
}

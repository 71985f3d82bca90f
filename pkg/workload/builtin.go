package workload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/danpilch/perfkit/pkg/counters"
	"github.com/danpilch/perfkit/pkg/profiling"
)

// Fib computes the N-th Fibonacci number recursively.
type Fib struct {
	N        int
	Counters *counters.Counters

	Result int
}

func (f *Fib) Name() string { return "fib" }

func (f *Fib) Run(ctx context.Context) error {
	f.Result = fib(ctx, f.N, f.Counters)
	return ctx.Err()
}

func fib(ctx context.Context, n int, c *counters.Counters) int {
	defer profiling.Track(ctx)()
	addOps(c, 1)
	if n < 2 {
		return n
	}
	return fib(ctx, n-1, c) + fib(ctx, n-2, c)
}

// Sort generates a pseudo-random slice and merge sorts it.
type Sort struct {
	Size     int
	Counters *counters.Counters
}

func (s *Sort) Name() string { return "sort" }

func (s *Sort) Run(ctx context.Context) error {
	data := generate(ctx, s.Size)
	addMem(s.Counters, int64(len(data))*8)
	sorted := mergeSort(ctx, data, s.Counters)
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1] > sorted[i] {
			return fmt.Errorf("sort: result out of order at %d", i)
		}
	}
	return ctx.Err()
}

func generate(ctx context.Context, n int) []int {
	defer profiling.Track(ctx)()
	out := make([]int, n)
	x := uint32(2463534242)
	for i := range out {
		// xorshift32
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = int(x % 100000)
	}
	return out
}

func mergeSort(ctx context.Context, data []int, c *counters.Counters) []int {
	defer profiling.Track(ctx)()
	if len(data) <= 16 {
		insertionSort(ctx, data, c)
		return data
	}
	mid := len(data) / 2
	return merge(ctx, mergeSort(ctx, data[:mid], c), mergeSort(ctx, data[mid:], c), c)
}

func insertionSort(ctx context.Context, data []int, c *counters.Counters) {
	defer profiling.Track(ctx)()
	for i := 1; i < len(data); i++ {
		for j := i; j > 0 && data[j-1] > data[j]; j-- {
			data[j-1], data[j] = data[j], data[j-1]
			addOps(c, 1)
		}
	}
}

func merge(ctx context.Context, a, b []int, c *counters.Counters) []int {
	defer profiling.Track(ctx)()
	out := make([]int, 0, len(a)+len(b))
	addMem(c, int64(cap(out))*8)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
		addOps(c, 1)
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Encode round-trips records through encoding/json.
type Encode struct {
	Records  int
	Counters *counters.Counters
}

type record struct {
	ID    int               `json:"id"`
	Name  string            `json:"name"`
	Tags  []string          `json:"tags"`
	Attrs map[string]string `json:"attrs"`
}

func (e *Encode) Name() string { return "encode" }

func (e *Encode) Run(ctx context.Context) error {
	for i := 0; i < e.Records; i++ {
		data, err := encodeRecord(ctx, i)
		if err != nil {
			return err
		}
		addMem(e.Counters, int64(len(data)))
		if err := decodeRecord(ctx, data, i); err != nil {
			return err
		}
		addOps(e.Counters, 2)
	}
	return ctx.Err()
}

func encodeRecord(ctx context.Context, i int) ([]byte, error) {
	defer profiling.Track(ctx)()
	var buf bytes.Buffer
	err := json.NewEncoder(&buf).Encode(record{
		ID:    i,
		Name:  fmt.Sprintf("record-%d", i),
		Tags:  []string{"a", "b", "c"},
		Attrs: map[string]string{"k": "v", "n": fmt.Sprint(i)},
	})
	return buf.Bytes(), err
}

func decodeRecord(ctx context.Context, data []byte, want int) error {
	defer profiling.Track(ctx)()
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("encode: cannot decode record %d: %w", want, err)
	}
	if r.ID != want {
		return fmt.Errorf("encode: record id %d, want %d", r.ID, want)
	}
	return nil
}

// Alloc allocates and touches fixed-size blocks.
type Alloc struct {
	Blocks    int
	BlockSize int
	Counters  *counters.Counters
}

func (a *Alloc) Name() string { return "alloc" }

func (a *Alloc) Run(ctx context.Context) error {
	var sink byte
	for i := 0; i < a.Blocks; i++ {
		b := allocBlock(ctx, a.BlockSize)
		sink ^= b[len(b)-1]
		addMem(a.Counters, int64(len(b)))
		addOps(a.Counters, 1)
	}
	_ = sink
	return ctx.Err()
}

func allocBlock(ctx context.Context, size int) []byte {
	defer profiling.Track(ctx)()
	if size < 1 {
		size = 1
	}
	b := make([]byte, size)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

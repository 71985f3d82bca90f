package profiling

import (
	"fmt"
	"sort"
	"time"
)

// Sort keys accepted by Options.Sort. Aliases follow the usual
// pstats spellings.
const (
	SortCumulative = "cumtime"
	SortTotal      = "tottime"
	SortCalls      = "calls"
	SortPCalls     = "pcalls"
	SortName       = "name"
	SortFile       = "filename"
	SortLine       = "line"
)

type lessFunc func(a, b *FuncStats) bool

var sortKeys = map[string]lessFunc{
	SortCumulative: func(a, b *FuncStats) bool { return a.CumTime > b.CumTime },
	"cumulative":   func(a, b *FuncStats) bool { return a.CumTime > b.CumTime },
	SortTotal:      func(a, b *FuncStats) bool { return a.TotTime > b.TotTime },
	"time":         func(a, b *FuncStats) bool { return a.TotTime > b.TotTime },
	SortCalls:      func(a, b *FuncStats) bool { return a.TotalCalls > b.TotalCalls },
	"ncalls":       func(a, b *FuncStats) bool { return a.TotalCalls > b.TotalCalls },
	SortPCalls:     func(a, b *FuncStats) bool { return a.PrimitiveCalls > b.PrimitiveCalls },
	SortName:       func(a, b *FuncStats) bool { return a.Key.Name < b.Key.Name },
	SortFile:       func(a, b *FuncStats) bool { return a.Key.File < b.Key.File },
	"file":         func(a, b *FuncStats) bool { return a.Key.File < b.Key.File },
	SortLine:       func(a, b *FuncStats) bool { return a.Key.Line < b.Key.Line },
}

// SortKeys returns the accepted sort key spellings.
func SortKeys() []string {
	keys := make([]string, 0, len(sortKeys))
	for k := range sortKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stats is the frozen result of one capture.
type Stats struct {
	// Funcs is ordered by the sort key the capture was finalized with.
	Funcs    []*FuncStats
	Stacks   []*StackSample
	Start    time.Time
	Duration time.Duration
	SortKey  string

	byID []*FuncStats
}

func newStats(t *tracer, start time.Time, dur time.Duration, key string) (*Stats, error) {
	less, ok := sortKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown sort key %q", key)
	}

	funcs := make([]*FuncStats, len(t.funcs))
	copy(funcs, t.funcs)
	sort.SliceStable(funcs, func(i, j int) bool {
		if less(funcs[i], funcs[j]) {
			return true
		}
		if less(funcs[j], funcs[i]) {
			return false
		}
		return funcs[i].Key.String() < funcs[j].Key.String()
	})

	stacks := make([]*StackSample, 0, len(t.order))
	for _, k := range t.order {
		stacks = append(stacks, t.stacks[k])
	}

	return &Stats{
		Funcs:    funcs,
		Stacks:   stacks,
		Start:    start,
		Duration: dur,
		SortKey:  key,
		byID:     t.funcs,
	}, nil
}

// Func returns the statistics registered under id in Stacks.
func (s *Stats) Func(id int) *FuncStats {
	return s.byID[id]
}

// Lookup finds a function by fully qualified name.
func (s *Stats) Lookup(name string) *FuncStats {
	for _, fs := range s.Funcs {
		if fs.Key.Name == name {
			return fs
		}
	}
	return nil
}

// TotalCalls sums all calls and primitive calls.
func (s *Stats) TotalCalls() (total, primitive int64) {
	for _, fs := range s.Funcs {
		total += fs.TotalCalls
		primitive += fs.PrimitiveCalls
	}
	return total, primitive
}

// Folded returns self time in nanoseconds per call stack, keyed as
// "root;...;leaf" with package paths stripped.
func (s *Stats) Folded() map[string]int64 {
	out := make(map[string]int64, len(s.Stacks))
	for _, st := range s.Stacks {
		key := ""
		for i, id := range st.Funcs {
			if i > 0 {
				key += ";"
			}
			key += s.byID[id].Key.ShortName()
		}
		out[key] += int64(st.SelfDur)
	}
	return out
}

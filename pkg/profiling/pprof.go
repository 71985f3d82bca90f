package profiling

import (
	"fmt"
	"io"
	"time"

	"github.com/google/pprof/profile"
)

// buildProfile converts tracer output into a pprof profile with two
// sample values per call stack: call count and self time.
func buildProfile(funcs []*FuncStats, order []string, stacks map[string]*StackSample, start time.Time, dur time.Duration) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "calls", Unit: "count"},
			{Type: "time", Unit: "nanoseconds"},
		},
		PeriodType:    &profile.ValueType{Type: "time", Unit: "nanoseconds"},
		Period:        1,
		TimeNanos:     start.UnixNano(),
		DurationNanos: int64(dur),
	}

	locs := make([]*profile.Location, len(funcs))
	for i, fs := range funcs {
		fn := &profile.Function{
			ID:         uint64(i + 1),
			Name:       fs.Key.Name,
			SystemName: fs.Key.Name,
			Filename:   fs.Path,
			StartLine:  int64(fs.Key.Line),
		}
		loc := &profile.Location{
			ID:   uint64(i + 1),
			Line: []profile.Line{{Function: fn, Line: int64(fs.Key.Line)}},
		}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		locs[i] = loc
	}

	for _, key := range order {
		st := stacks[key]
		// pprof orders locations leaf first.
		sample := &profile.Sample{
			Value: []int64{st.Calls, int64(st.SelfDur)},
		}
		for i := len(st.Funcs) - 1; i >= 0; i-- {
			sample.Location = append(sample.Location, locs[st.Funcs[i]])
		}
		p.Sample = append(p.Sample, sample)
	}
	return p
}

// WriteProfile writes the finalized statistics as a gzipped pprof profile.
func (p *Profiler) WriteProfile(w io.Writer) error {
	if p.stats == nil {
		return ErrNoData
	}
	s := p.stats
	order := make([]string, len(s.Stacks))
	stacks := make(map[string]*StackSample, len(s.Stacks))
	for i, st := range s.Stacks {
		key := fmt.Sprint(i)
		order[i] = key
		stacks[key] = st
	}
	return buildProfile(s.byID, order, stacks, s.Start, s.Duration).Write(w)
}

// ReadProfile parses a profile written by Stop or WriteProfile.
func ReadProfile(r io.Reader) (*profile.Profile, error) {
	prof, err := profile.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("cannot parse profile: %w", err)
	}
	return prof, nil
}

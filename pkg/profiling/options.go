// Package profiling provides a scoped call-graph profiler for instrumented
// Go code.
//
// Functions opt in by calling Track at their top:
//
//	func work(ctx context.Context) {
//		defer profiling.Track(ctx)()
//		...
//	}
//
// A Profiler started on a context records call counts, self time and
// cumulative time for every tracked function until Stop, prints the top
// entries and keeps the statistics for export.
package profiling

import (
	"io"
	"math"
	"os"
)

// Options configures a Profiler.
type Options struct {
	// Enabled turns capture on. A disabled Profiler does no work and
	// never produces statistics.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Sort is the key the printed report is ordered by (see SortKeys).
	Sort string `yaml:"sort" json:"sort"`
	// Rank caps the number of printed and exported rows.
	Rank int `yaml:"rank" json:"rank"`
	// Frac is the fraction of captured functions eligible for printing.
	// It only applies to the printed report, not to Rows.
	Frac float64 `yaml:"frac" json:"frac"`
	// File, when set, receives the raw statistics as a gzipped pprof
	// profile on Stop.
	File string `yaml:"file" json:"file,omitempty"`
	// TS is the timestamp divisor; exported times are scaled by 1000/TS.
	TS float64 `yaml:"ts" json:"ts"`

	// Output receives the printed report (default os.Stdout).
	Output io.Writer `yaml:"-" json:"-"`
}

// DefaultOptions returns an enabled configuration sorted by cumulative
// time with 10 rows.
func DefaultOptions() Options {
	return Options{
		Enabled: true,
		Sort:    SortCumulative,
		Rank:    10,
		Frac:    1.0,
		TS:      1,
	}
}

// TimeScale returns the multiplier from seconds to exported units.
func (o Options) TimeScale() float64 {
	return 1e3 / o.TS
}

func (o Options) output() io.Writer {
	if o.Output == nil {
		return os.Stdout
	}
	return o.Output
}

// EffectiveLimit is the number of rows printed after Stop:
// min(rank, floor(total*frac)). The comparison happens in float64 so a
// huge frac caps at rank instead of overflowing int. A NaN or negative
// product prints nothing.
func EffectiveLimit(rank int, frac float64, total int) int {
	f := math.Floor(float64(total) * frac)
	if f >= float64(rank) {
		return rank
	}
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	return int(f)
}

// ExportLimit is the number of rows Rows returns: min(rank, total).
// Unlike EffectiveLimit it ignores frac.
func ExportLimit(rank, total int) int {
	if rank < 0 {
		return 0
	}
	if rank < total {
		return rank
	}
	return total
}

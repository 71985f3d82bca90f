package profiling

import "sort"

// Row is one exported function entry. Times are in milliseconds when TS
// is 1.
type Row struct {
	Function       string  `json:"function" yaml:"function"`
	PrimitiveCalls int64   `json:"primitive_calls" yaml:"primitive_calls"`
	TotalCalls     int64   `json:"total_calls" yaml:"total_calls"`
	TottimeMS      float64 `json:"tottime_ms" yaml:"tottime_ms"`
	CumtimeMS      float64 `json:"cumtime_ms" yaml:"cumtime_ms"`
}

// Columns lists the exported column names in order.
var Columns = []string{"function", "primitive_calls", "total_calls", "tottime_ms", "cumtime_ms"}

// Rows exports one row per captured function, sorted by cumulative time
// descending and truncated to Rank.
//
// The truncation uses Rank alone. The printed report additionally applies
// Frac (see EffectiveLimit), so the two can disagree when
// floor(total*Frac) < Rank.
func (p *Profiler) Rows() ([]Row, error) {
	if p.stats == nil {
		return nil, ErrNoData
	}
	return StatsRows(p.stats, p.opts.TimeScale(), p.opts.Rank), nil
}

// StatsRows converts stats to rows scaled by scale, sorted by cumulative
// time descending and truncated to rank.
func StatsRows(stats *Stats, scale float64, rank int) []Row {
	rows := make([]Row, 0, len(stats.Funcs))
	for _, fs := range stats.Funcs {
		rows = append(rows, Row{
			Function:       fs.Key.String(),
			PrimitiveCalls: fs.PrimitiveCalls,
			TotalCalls:     fs.TotalCalls,
			TottimeMS:      fs.TotTime.Seconds() * scale,
			CumtimeMS:      fs.CumTime.Seconds() * scale,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CumtimeMS != rows[j].CumtimeMS {
			return rows[i].CumtimeMS > rows[j].CumtimeMS
		}
		return rows[i].Function < rows[j].Function
	})
	return rows[:ExportLimit(rank, len(rows))]
}

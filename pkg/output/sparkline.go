package output

import "strings"

// Trends keeps the most recent values of named series, e.g. the
// per-iteration latencies of each benchmarked workload. It is not safe
// for concurrent use.
type Trends struct {
	window int
	series map[string][]float64
}

// NewTrends keeps at most window values per series; window < 1 means 20.
func NewTrends(window int) *Trends {
	if window < 1 {
		window = 20
	}
	return &Trends{window: window, series: make(map[string][]float64)}
}

// Add appends v to name, dropping the oldest value past the window.
func (t *Trends) Add(name string, v float64) {
	vs := append(t.series[name], v)
	if over := len(vs) - t.window; over > 0 {
		vs = vs[over:]
	}
	t.series[name] = vs
}

// Values returns a copy of the retained values of name, oldest first.
func (t *Trends) Values(name string) []float64 {
	return append([]float64(nil), t.series[name]...)
}

// Render draws the retained values of name as a sparkline.
func (t *Trends) Render(name string) string {
	return Sparkline(t.series[name])
}

// sparkline block characters from lowest to highest
var sparkBlocks = []rune{
	'\u2581', // ▁
	'\u2582', // ▂
	'\u2583', // ▃
	'\u2584', // ▄
	'\u2585', // ▅
	'\u2586', // ▆
	'\u2587', // ▇
	'\u2588', // █
}

// Sparkline renders values as a Unicode block sparkline scaled between
// their minimum and maximum.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	// Find min and max
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	rng := max - min
	for _, v := range values {
		idx := 0
		if rng > 0 {
			idx = int((v - min) / rng * float64(len(sparkBlocks)-1))
		}
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(sparkBlocks[idx])
	}

	return b.String()
}

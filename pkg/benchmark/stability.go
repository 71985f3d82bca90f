package benchmark

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Status indicates how consistent repeated latencies were.
type Status string

const (
	StatusStable  Status = "stable"
	StatusSuspect Status = "suspect"
	StatusNoisy   Status = "noisy"
)

// Deviation thresholds, in percent of the median.
const (
	SuspectThreshold = 25.0
	NoisyThreshold   = 100.0
)

// Stability summarizes the spread of repeated latencies around their
// median.
type Stability struct {
	Median       time.Duration
	MaxDeviation float64 // percent of median
	StdDev       time.Duration
	Status       Status
}

// Check computes the median, the largest deviation from it and the
// standard deviation of latencies.
func Check(latencies []time.Duration) Stability {
	s := Stability{Status: StatusStable}
	if len(latencies) == 0 {
		return s
	}

	values := make([]float64, len(latencies))
	for i, d := range latencies {
		values[i] = float64(d)
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	// Even lengths average the middle pair. gonum's Quantile estimators
	// return a single order statistic there instead.
	var median float64
	if n := len(sorted); n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}
	s.Median = time.Duration(median)
	s.StdDev = time.Duration(stddev(values))

	if median == 0 {
		return s
	}
	for _, v := range values {
		dev := math.Abs(v-median) / median * 100
		if dev > s.MaxDeviation {
			s.MaxDeviation = dev
		}
	}

	switch {
	case s.MaxDeviation >= NoisyThreshold:
		s.Status = StatusNoisy
	case s.MaxDeviation >= SuspectThreshold:
		s.Status = StatusSuspect
	}
	return s
}

// stddev is the sample standard deviation, zero for fewer than two values.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

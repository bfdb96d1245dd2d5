package sim

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0..100) of an ascending-sorted slice,
// interpolating linearly between the two closest ranks (rank = p/100*(n-1)).
// The result never leaves [sorted[lo], sorted[hi]], so percentiles of the same
// data are ordered whenever their p values are.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if upperIdx >= n {
		return sorted[n-1]
	}
	if lowerIdx == upperIdx {
		return sorted[lowerIdx]
	}
	lowerVal, upperVal := sorted[lowerIdx], sorted[upperIdx]
	v := lowerVal + (upperVal-lowerVal)*(rank-float64(lowerIdx))
	return math.Min(upperVal, math.Max(lowerVal, v))
}

// Bands computes, independently per lap index, the median, 10th and 90th
// percentile across trials. All trials must have the same length.
func Bands(trials [][]float64) (p50, p10, p90 []float64) {
	if len(trials) == 0 {
		return nil, nil, nil
	}
	laps := len(trials[0])
	p50 = make([]float64, laps)
	p10 = make([]float64, laps)
	p90 = make([]float64, laps)
	column := make([]float64, len(trials))
	for i := 0; i < laps; i++ {
		for t, trial := range trials {
			column[t] = trial[i]
		}
		sort.Float64s(column)
		p50[i] = Percentile(column, 50)
		p10[i] = Percentile(column, 10)
		p90[i] = Percentile(column, 90)
	}
	return p50, p10, p90
}

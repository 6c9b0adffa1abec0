package validate

import (
	"math"
	"sort"

	"github.com/repropipe/fabric/engine/domain"
)

// stabilityScore is the fraction of runs that passed (spec.md §4.7).
func stabilityScore(passed []bool) float64 {
	if len(passed) == 0 {
		return 0
	}
	var ok int
	for _, p := range passed {
		if p {
			ok++
		}
	}
	return float64(ok) / float64(len(passed))
}

// flakyScoreOf is the population variance of the binary pass sequence, or 0
// if every run agrees (spec.md §4.7).
func flakyScoreOf(passed []bool) float64 {
	allSame := true
	for _, p := range passed {
		if p != passed[0] {
			allSame = false
			break
		}
	}
	if len(passed) == 0 || allSame {
		return 0
	}
	xs := make([]float64, len(passed))
	for i, p := range passed {
		if p {
			xs[i] = 1
		}
	}
	return variance(xs)
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := meanOf(xs)
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// performanceStatsOf computes spec.md §4.7's {mean, median, stdev, min, max}
// over a set of run durations.
func performanceStatsOf(durationsMS []int64) domain.PerformanceStats {
	if len(durationsMS) == 0 {
		return domain.PerformanceStats{}
	}
	xs := make([]float64, len(durationsMS))
	for i, d := range durationsMS {
		xs[i] = float64(d)
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	mean := meanOf(xs)
	return domain.PerformanceStats{
		Mean:   mean,
		Median: medianOf(sorted),
		Stdev:  math.Sqrt(variance(xs)),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

package analytics

import (
	"math"
	"sort"

	"github.com/obsforge/obsforge/internal/models"
)

// computeStats returns the min/max/mean/median/std summary of xs. An empty
// slice returns the zero Stats.
func computeStats(xs []float64) models.Stats {
	if len(xs) == 0 {
		return models.Stats{}
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(xs)))

	return models.Stats{
		Count:  len(xs),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		Median: median(sorted),
		StdDev: std,
	}
}

// median assumes sorted is already sorted ascending.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func minMax(xs []float64) (min, max float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	min, max = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}

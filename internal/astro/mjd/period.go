package mjd

import (
	"sort"

	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/models"
)

// NewPeriod validates and builds a Period, failing with InvalidRange unless
// start < stop.
func NewPeriod(start, stop float64) (models.Period, error) {
	if !(start < stop) {
		return models.Period{}, apierr.New(apierr.KindInvalidRange,
			"period start must be strictly less than stop")
	}
	return models.Period{Start: start, Stop: stop}, nil
}

// DurationSeconds returns p's length in seconds.
func DurationSeconds(p models.Period) float64 {
	return (p.Stop - p.Start) * SecondsPerDay
}

// Overlaps reports whether a and b share any instant.
func Overlaps(a, b models.Period) bool {
	return a.Start < b.Stop && b.Start < a.Stop
}

// Contains reports whether point lies in [p.Start, p.Stop).
func Contains(p models.Period, point float64) bool {
	return point >= p.Start && point < p.Stop
}

// Intersect returns the overlap of a and b, if any.
func Intersect(a, b models.Period) (models.Period, bool) {
	if !Overlaps(a, b) {
		return models.Period{}, false
	}
	start := a.Start
	if b.Start > start {
		start = b.Start
	}
	stop := a.Stop
	if b.Stop < stop {
		stop = b.Stop
	}
	if !(start < stop) {
		return models.Period{}, false
	}
	return models.Period{Start: start, Stop: stop}, true
}

// Merge coalesces overlapping or numerically-adjacent periods, returning
// them sorted by start. Adjacency tolerance is zero.
func Merge(periods []models.Period) []models.Period {
	if len(periods) == 0 {
		return nil
	}
	sorted := make([]models.Period, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []models.Period{sorted[0]}
	for _, p := range sorted[1:] {
		last := &merged[len(merged)-1]
		if p.Start <= last.Stop {
			if p.Stop > last.Stop {
				last.Stop = p.Stop
			}
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// Subtract returns the ordered list of maximal sub-periods of p disjoint
// from every member of holes.
func Subtract(p models.Period, holes []models.Period) []models.Period {
	merged := Merge(holes)

	remaining := []models.Period{p}
	for _, hole := range merged {
		var next []models.Period
		for _, r := range remaining {
			next = append(next, subtractOne(r, hole)...)
		}
		remaining = next
	}
	return remaining
}

func subtractOne(p, hole models.Period) []models.Period {
	if !Overlaps(p, hole) {
		return []models.Period{p}
	}
	var out []models.Period
	if hole.Start > p.Start {
		out = append(out, models.Period{Start: p.Start, Stop: hole.Start})
	}
	if hole.Stop < p.Stop {
		out = append(out, models.Period{Start: hole.Stop, Stop: p.Stop})
	}
	return out
}

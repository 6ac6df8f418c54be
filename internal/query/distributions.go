package query

import (
	"context"
	"math"
	"sort"

	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

// DistributionBlock is one block's entry in the distributions response.
type DistributionBlock struct {
	Priority             float64
	TotalVisibilityHours float64
	RequestedHours       float64
	ElevationRangeDeg    *float64
	Scheduled            bool
}

// DistributionsResult is the response of the distributions operation.
type DistributionsResult struct {
	Blocks            []DistributionBlock
	PriorityStats     models.Stats
	VisibilityStats   models.Stats
	RequestedStats    models.Stats
	TotalBlocks       int
	ScheduledBlocks   int
	UnscheduledBlocks int
}

// Distributions returns per-block priority/visibility/requested-hours
// values plus schedule-wide summary statistics.
func Distributions(ctx context.Context, repo repository.Repository, scheduleID int64) (DistributionsResult, error) {
	l, err := load(ctx, repo, scheduleID)
	if err != nil {
		return DistributionsResult{}, err
	}

	res := DistributionsResult{
		PriorityStats:     l.proj.Summary.PriorityOverall,
		TotalBlocks:       l.proj.Summary.TotalBlocks,
		ScheduledBlocks:   l.proj.Summary.ScheduledBlocks,
		UnscheduledBlocks: l.proj.Summary.UnscheduledBlocks,
	}

	var visibility, requested []float64
	res.Blocks = make([]DistributionBlock, 0, len(l.proj.Blocks))
	for _, b := range l.proj.Blocks {
		res.Blocks = append(res.Blocks, DistributionBlock{
			Priority:             b.Priority,
			TotalVisibilityHours: b.TotalVisibilityHours,
			RequestedHours:       b.RequestedHours,
			ElevationRangeDeg:    b.ElevationRangeDeg,
			Scheduled:            b.IsScheduled,
		})
		visibility = append(visibility, b.TotalVisibilityHours)
		requested = append(requested, b.RequestedHours)
	}

	res.VisibilityStats = statsOf(visibility)
	res.RequestedStats = statsOf(requested)

	return res, nil
}

func statsOf(xs []float64) models.Stats {
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

	n := len(sorted)
	var med float64
	if n%2 == 1 {
		med = sorted[n/2]
	} else {
		med = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return models.Stats{
		Count:  n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   mean,
		Median: med,
		StdDev: math.Sqrt(sq / float64(n)),
	}
}

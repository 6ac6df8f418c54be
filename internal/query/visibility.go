package query

import (
	"context"
	"math"

	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

// VisibilityMapBlock is one block's entry in the visibility map.
type VisibilityMapBlock struct {
	BlockID               int64
	Priority              float64
	VisibilityPeriodCount int
	Scheduled             bool
}

// VisibilityMapResult is the response of the visibility_map operation.
type VisibilityMapResult struct {
	Blocks      []VisibilityMapBlock
	PriorityMin float64
	PriorityMax float64
}

// VisibilityMap returns a compact per-block summary plus the schedule's
// priority bounds.
func VisibilityMap(ctx context.Context, repo repository.Repository, scheduleID int64) (VisibilityMapResult, error) {
	l, err := load(ctx, repo, scheduleID)
	if err != nil {
		return VisibilityMapResult{}, err
	}

	res := VisibilityMapResult{
		PriorityMin: l.proj.Summary.PriorityOverall.Min,
		PriorityMax: l.proj.Summary.PriorityOverall.Max,
	}
	res.Blocks = make([]VisibilityMapBlock, 0, len(l.proj.Blocks))
	for _, b := range l.proj.Blocks {
		res.Blocks = append(res.Blocks, VisibilityMapBlock{
			BlockID:               b.BlockID,
			Priority:              b.Priority,
			VisibilityPeriodCount: b.VisibilityPeriodCount,
			Scheduled:             b.IsScheduled,
		})
	}
	return res, nil
}

// HistogramOptions configures visibility_histogram. NumBins and
// BinDurationMinutes are mutually exclusive; supplying both is
// AmbiguousBinningRequest. A nil PriorityMin/PriorityMax/BlockIDs means no
// filter on that dimension.
type HistogramOptions struct {
	NumBins            *int
	BinDurationMinutes *int
	PriorityMin        *float64
	PriorityMax        *float64
	BlockIDs           []int64
}

// HistogramBin is one re-aggregated bin of the visibility histogram.
type HistogramBin struct {
	BinStartUnix float64
	BinEndUnix   float64
	Count        int
}

// HistogramResult is the response of the visibility_histogram operation.
type HistogramResult struct {
	Bins []HistogramBin
}

// VisibilityHistogram dynamically re-aggregates the schedule's stored
// 15-minute base bins into num_bins (or bin_duration_minutes)-wide bins,
// optionally filtered by priority range or an explicit block-id set.
func VisibilityHistogram(ctx context.Context, repo repository.Repository, scheduleID int64, opts HistogramOptions) (HistogramResult, error) {
	if opts.NumBins != nil && opts.BinDurationMinutes != nil {
		return HistogramResult{}, apierr.New(apierr.KindAmbiguousBinningRequest, "supply at most one of num_bins or bin_duration_minutes")
	}

	l, err := load(ctx, repo, scheduleID)
	if err != nil {
		return HistogramResult{}, err
	}

	base := l.proj.VisibilityTimeBins
	if len(base) == 0 {
		return HistogramResult{}, nil
	}

	counted := countBaseBins(base, l.proj.Blocks, l.proj.Summary, opts)
	return HistogramResult{Bins: rebin(base, counted, opts)}, nil
}

// countBaseBins returns, per base bin (same order as base), the count that
// applies under opts' filters.
func countBaseBins(base []models.VisibilityTimeBin, blocks []models.BlockAnalytics, summary models.ScheduleSummary, opts HistogramOptions) []int {
	counts := make([]int, len(base))

	switch {
	case len(opts.BlockIDs) > 0:
		want := make(map[int64]bool, len(opts.BlockIDs))
		for _, id := range opts.BlockIDs {
			want[id] = true
		}
		for i, b := range base {
			n := 0
			for _, id := range b.BlockIDs {
				if want[id] {
					n++
				}
			}
			counts[i] = n
		}

	case opts.PriorityMin != nil || opts.PriorityMax != nil:
		if buckets, ok := quartileFastPath(opts.PriorityMin, opts.PriorityMax, summary.PriorityOverall.Min, summary.PriorityOverall.Max); ok {
			for i, b := range base {
				counts[i] = sumQuartiles(b, buckets)
			}
		} else {
			priorityByBlock := make(map[int64]float64, len(blocks))
			for _, blk := range blocks {
				priorityByBlock[blk.BlockID] = blk.Priority
			}
			lo, hi := math.Inf(-1), math.Inf(1)
			if opts.PriorityMin != nil {
				lo = *opts.PriorityMin
			}
			if opts.PriorityMax != nil {
				hi = *opts.PriorityMax
			}
			for i, b := range base {
				n := 0
				for _, id := range b.BlockIDs {
					if p, ok := priorityByBlock[id]; ok && p >= lo && p <= hi {
						n++
					}
				}
				counts[i] = n
			}
		}

	default:
		for i, b := range base {
			counts[i] = b.TotalVisibleCount
		}
	}

	return counts
}

const quartileEpsilon = 1e-9

// quartileFastPath reports whether [priorityMin,priorityMax] (nil meaning
// the schedule's own bound) aligns with a contiguous run of the schedule's
// four priority-bucket boundaries, and if so which buckets it covers.
func quartileFastPath(priorityMin, priorityMax *float64, globalMin, globalMax float64) ([]int, bool) {
	lo, hi := globalMin, globalMax
	if priorityMin != nil {
		lo = *priorityMin
	}
	if priorityMax != nil {
		hi = *priorityMax
	}

	r := globalMax - globalMin
	if r == 0 {
		if lo <= globalMin+quartileEpsilon && hi >= globalMax-quartileEpsilon {
			return []int{2}, true
		}
		return nil, false
	}

	thresholds := [5]float64{globalMin, globalMin + 0.25*r, globalMin + 0.50*r, globalMin + 0.75*r, globalMax}
	loBucket, loOK := bucketBoundaryIndex(lo, thresholds)
	hiBucket, hiOK := bucketBoundaryIndex(hi, thresholds)
	if !loOK || !hiOK || loBucket >= hiBucket {
		return nil, false
	}

	buckets := make([]int, 0, hiBucket-loBucket)
	for b := loBucket + 1; b <= hiBucket; b++ {
		buckets = append(buckets, b)
	}
	return buckets, true
}

func bucketBoundaryIndex(v float64, thresholds [5]float64) (int, bool) {
	for i, t := range thresholds {
		if math.Abs(v-t) < quartileEpsilon {
			return i, true
		}
	}
	return 0, false
}

func sumQuartiles(b models.VisibilityTimeBin, buckets []int) int {
	var total int
	for _, q := range buckets {
		switch q {
		case 1:
			total += b.Q1Count
		case 2:
			total += b.Q2Count
		case 3:
			total += b.Q3Count
		case 4:
			total += b.Q4Count
		}
	}
	return total
}

// rebin groups base (15-minute, or whatever its stored width is) bins into
// wider bins per opts, summing counted values across each group.
func rebin(base []models.VisibilityTimeBin, counted []int, opts HistogramOptions) []HistogramBin {
	if len(base) == 0 {
		return nil
	}
	baseWidth := base[0].BinEndUnix - base[0].BinStartUnix
	if baseWidth <= 0 {
		baseWidth = 1
	}
	totalSpan := base[len(base)-1].BinEndUnix - base[0].BinStartUnix

	targetWidth := baseWidth
	switch {
	case opts.BinDurationMinutes != nil && *opts.BinDurationMinutes > 0:
		targetWidth = float64(*opts.BinDurationMinutes) * 60
	case opts.NumBins != nil && *opts.NumBins > 0:
		targetWidth = totalSpan / float64(*opts.NumBins)
	}
	if targetWidth <= 0 {
		targetWidth = baseWidth
	}

	type group struct {
		start, end float64
		count      int
	}
	var groups []group
	for i, b := range base {
		groupIdx := int((b.BinStartUnix - base[0].BinStartUnix) / targetWidth)
		for len(groups) <= groupIdx {
			start := base[0].BinStartUnix + float64(len(groups))*targetWidth
			groups = append(groups, group{start: start, end: start + targetWidth})
		}
		groups[groupIdx].count += counted[i]
	}

	out := make([]HistogramBin, len(groups))
	for i, g := range groups {
		out[i] = HistogramBin{BinStartUnix: g.start, BinEndUnix: g.end, Count: g.count}
	}
	return out
}

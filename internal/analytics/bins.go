package analytics

import (
	"math"
	"sort"

	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/models"
)

// priorityRateBins groups blocks by integer-rounded priority.
func priorityRateBins(scheduleID int64, blocks []models.BlockAnalytics) []models.PriorityRateBin {
	type agg struct {
		count, scheduled int
	}
	byPriority := map[int]*agg{}
	for _, b := range blocks {
		rounded := int(math.Round(b.Priority))
		a, ok := byPriority[rounded]
		if !ok {
			a = &agg{}
			byPriority[rounded] = a
		}
		a.count++
		if b.IsScheduled {
			a.scheduled++
		}
	}

	rounded := make([]int, 0, len(byPriority))
	for r := range byPriority {
		rounded = append(rounded, r)
	}
	sort.Ints(rounded)

	out := make([]models.PriorityRateBin, 0, len(rounded))
	for _, r := range rounded {
		a := byPriority[r]
		rate := 0.0
		if a.count > 0 {
			rate = float64(a.scheduled) / float64(a.count)
		}
		out = append(out, models.PriorityRateBin{
			ScheduleID:      scheduleID,
			PriorityRounded: r,
			Count:           a.count,
			ScheduledCount:  a.scheduled,
			SchedulingRate:  rate,
		})
	}
	return out
}

// visibilityTrendBins partitions [min(total_visibility_hours),
// max(total_visibility_hours)] into n equal-width bins.
func visibilityTrendBins(scheduleID int64, blocks []models.BlockAnalytics, n int) []models.VisibilityTrendBin {
	if len(blocks) == 0 {
		return nil
	}
	if n <= 0 {
		n = 10
	}

	visHours := make([]float64, len(blocks))
	for i, b := range blocks {
		visHours[i] = b.TotalVisibilityHours
	}
	lo, hi := minMax(visHours)

	width := (hi - lo) / float64(n)
	degenerate := width <= 0

	type agg struct {
		count, scheduled int
		prioritySum      float64
	}
	bins := make([]agg, n)

	binIndex := func(v float64) int {
		if degenerate {
			return 0
		}
		idx := int((v - lo) / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		return idx
	}

	for _, b := range blocks {
		idx := binIndex(b.TotalVisibilityHours)
		bins[idx].count++
		bins[idx].prioritySum += b.Priority
		if b.IsScheduled {
			bins[idx].scheduled++
		}
	}

	effectiveN := n
	if degenerate {
		effectiveN = 1
	}

	out := make([]models.VisibilityTrendBin, 0, effectiveN)
	for i := 0; i < effectiveN; i++ {
		a := bins[i]
		if a.count == 0 {
			continue
		}
		var midpoint float64
		if degenerate {
			midpoint = lo
		} else {
			midpoint = lo + width*(float64(i)+0.5)
		}
		out = append(out, models.VisibilityTrendBin{
			ScheduleID:    scheduleID,
			BinIndex:      i,
			Midpoint:      midpoint,
			ScheduledRate: float64(a.scheduled) / float64(a.count),
			Count:         a.count,
			MeanPriority:  a.prioritySum / float64(a.count),
		})
	}
	return out
}

// heatmapBins 2-D equal-width bins (total_visibility_hours, requested_hours).
func heatmapBins(scheduleID int64, blocks []models.BlockAnalytics, xBins, yBins int) []models.HeatmapBin {
	if len(blocks) == 0 {
		return nil
	}
	if xBins <= 0 {
		xBins = 10
	}
	if yBins <= 0 {
		yBins = 10
	}

	xs := make([]float64, len(blocks))
	ys := make([]float64, len(blocks))
	for i, b := range blocks {
		xs[i] = b.TotalVisibilityHours
		ys[i] = b.RequestedHours
	}
	xLo, xHi := minMax(xs)
	yLo, yHi := minMax(ys)
	xWidth := (xHi - xLo) / float64(xBins)
	yWidth := (yHi - yLo) / float64(yBins)

	idxOf := func(v, lo, width float64, n int) int {
		if width <= 0 {
			return 0
		}
		idx := int((v - lo) / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		return idx
	}

	type cellKey struct{ x, y int }
	type agg struct {
		count, scheduled int
	}
	cells := map[cellKey]*agg{}
	for _, b := range blocks {
		key := cellKey{idxOf(b.TotalVisibilityHours, xLo, xWidth, xBins), idxOf(b.RequestedHours, yLo, yWidth, yBins)}
		a, ok := cells[key]
		if !ok {
			a = &agg{}
			cells[key] = a
		}
		a.count++
		if b.IsScheduled {
			a.scheduled++
		}
	}

	keys := make([]cellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].x != keys[j].x {
			return keys[i].x < keys[j].x
		}
		return keys[i].y < keys[j].y
	})

	out := make([]models.HeatmapBin, 0, len(keys))
	for _, k := range keys {
		a := cells[k]
		midX := xLo + xWidth*(float64(k.x)+0.5)
		midY := yLo + yWidth*(float64(k.y)+0.5)
		if xWidth <= 0 {
			midX = xLo
		}
		if yWidth <= 0 {
			midY = yLo
		}
		out = append(out, models.HeatmapBin{
			ScheduleID:    scheduleID,
			BinXIndex:     k.x,
			BinYIndex:     k.y,
			MidX:          midX,
			MidY:          midY,
			ScheduledRate: float64(a.scheduled) / float64(a.count),
			Count:         a.count,
		})
	}
	return out
}

// blockTimeCtx bundles the per-block values visibilityTimeBins needs that
// aren't carried by models.BlockAnalytics alone.
type blockTimeCtx struct {
	blockID           int64
	priorityBucket    int
	isScheduled       bool
	visibilityPeriods []models.Period
}

// visibilityTimeBins partitions schedulePeriod into fixed-width bins
// (binSeconds each) and, for each bin, counts how many blocks are visible in
// it, split by priority quartile (the already-computed priority_bucket) and
// by scheduled/unscheduled, plus the list of visible block ids.
func visibilityTimeBins(scheduleID int64, schedulePeriod models.Period, binSeconds int, blocks []blockTimeCtx) []models.VisibilityTimeBin {
	if binSeconds <= 0 {
		binSeconds = 900
	}
	binWidthMJD := float64(binSeconds) / mjd.SecondsPerDay
	if !(schedulePeriod.Start < schedulePeriod.Stop) || binWidthMJD <= 0 {
		return nil
	}

	// The bin count is taken from the period's length in seconds: stepping
	// start by binWidthMJD accumulates rounding error and would leave a
	// sub-millisecond bin at the end of an evenly divisible period.
	binCount := int(math.Ceil(mjd.DurationSeconds(schedulePeriod)/float64(binSeconds) - 1e-6))
	if binCount < 1 {
		binCount = 1
	}

	var out []models.VisibilityTimeBin
	for i := 0; i < binCount; i++ {
		start := schedulePeriod.Start + float64(i)*binWidthMJD
		stop := start + binWidthMJD
		if stop > schedulePeriod.Stop || i == binCount-1 {
			stop = schedulePeriod.Stop
		}
		binPeriod := models.Period{Start: start, Stop: stop}

		bin := models.VisibilityTimeBin{
			ScheduleID:   scheduleID,
			BinStartUnix: mjd.ToUnix(start),
			BinEndUnix:   mjd.ToUnix(stop),
		}

		for _, b := range blocks {
			if !blockVisibleDuring(b.visibilityPeriods, binPeriod) {
				continue
			}
			bin.TotalVisibleCount++
			bin.BlockIDs = append(bin.BlockIDs, b.blockID)
			switch b.priorityBucket {
			case 1:
				bin.Q1Count++
			case 2:
				bin.Q2Count++
			case 3:
				bin.Q3Count++
			case 4:
				bin.Q4Count++
			}
			if b.isScheduled {
				bin.ScheduledCount++
			} else {
				bin.UnscheduledCount++
			}
		}

		out = append(out, bin)
	}
	return out
}

func blockVisibleDuring(periods []models.Period, bin models.Period) bool {
	for _, p := range periods {
		if mjd.Overlaps(p, bin) {
			return true
		}
	}
	return false
}

package scenarios

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsforge/obsforge/internal/analytics"
	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/ingest"
	"github.com/obsforge/obsforge/internal/repository/memrepo"
)

// manyBlocksDoc builds a document with several blocks competing for
// overlapping and disjoint windows, some with narrow dark-period exclusions,
// so the invariant checks below exercise real placement decisions rather
// than a single trivially-schedulable block.
func manyBlocksDoc() ingest.Document {
	doc := s1Doc()
	doc.Name = "properties"
	doc.DarkPeriods = []ingest.PeriodDoc{{Start: 62116.5, Stop: 62116.6}}

	window := func(startOffsetDays, widthSec float64) []ingest.PeriodDoc {
		start := 62115.0 + startOffsetDays
		return []ingest.PeriodDoc{{Start: start, Stop: start + widthSec/86400.0}}
	}

	block := func(id string, priority float64, startOffsetDays, widthSec float64) ingest.BlockDoc {
		return ingest.BlockDoc{
			OriginalID:           strPtr(id),
			Target:               ingest.TargetDoc{Name: id, RADeg: 200.0, DecDeg: -10.0},
			Priority:             priority,
			MinObservationSec:    1800,
			RequestedDurationSec: 3600,
			Constraints:          ingest.ConstraintsDoc{MinAlt: f64Ptr(0), MaxAlt: f64Ptr(90)},
			VisibilityPeriods:    window(startOffsetDays, widthSec),
		}
	}

	doc.SchedulingBlocks = []ingest.BlockDoc{
		block("p1", 9.0, 0.0, 3600),
		block("p2", 8.0, 0.02, 3600),  // overlaps p1's window partially
		block("p3", 5.0, 0.5, 900),    // narrower than its own min_observation_sec
		block("p4", 2.0, 1.0, 3600),   // disjoint, schedulable on its own
	}
	return doc
}

func TestPropertyNoOverlapAmongPlacements(t *testing.T) {
	repo := memrepo.New()
	_, scheduleID := ingestRaw(t, repo, manyBlocksDoc())

	details, err := repo.ListBlockDetails(context.Background(), scheduleID)
	require.NoError(t, err)

	var placed []struct{ start, stop float64 }
	for _, d := range details {
		if d.Association.IsScheduled() {
			placed = append(placed, struct{ start, stop float64 }{*d.Association.ScheduledStartMJD, *d.Association.ScheduledStopMJD})
		}
	}
	for i := range placed {
		for j := range placed {
			if i == j {
				continue
			}
			assert.False(t, placed[i].start < placed[j].stop && placed[j].start < placed[i].stop,
				"placements %v and %v must not overlap", placed[i], placed[j])
		}
	}
}

func TestPropertyPlacementWithinVisibilityAndOutsideDarkPeriods(t *testing.T) {
	repo := memrepo.New()
	_, scheduleID := ingestRaw(t, repo, manyBlocksDoc())

	details, err := repo.ListBlockDetails(context.Background(), scheduleID)
	require.NoError(t, err)
	darkPeriods, err := repo.GetDarkPeriods(context.Background(), scheduleID)
	require.NoError(t, err)

	for _, d := range details {
		if !d.Association.IsScheduled() {
			continue
		}
		placement := struct{ start, stop float64 }{*d.Association.ScheduledStartMJD, *d.Association.ScheduledStopMJD}

		withinSome := false
		for _, w := range d.Block.VisibilityPeriods {
			if placement.start >= w.Start && placement.stop <= w.Stop {
				withinSome = true
				break
			}
		}
		assert.True(t, withinSome, "block %d's placement must lie within one of its visibility windows", d.Block.ID)

		for _, dp := range darkPeriods {
			assert.False(t, placement.start < dp.Stop && dp.Start < placement.stop,
				"block %d's placement must not intersect dark period %v", d.Block.ID, dp)
		}
	}
}

func TestPropertyDurationBounds(t *testing.T) {
	repo := memrepo.New()
	_, scheduleID := ingestRaw(t, repo, manyBlocksDoc())

	details, err := repo.ListBlockDetails(context.Background(), scheduleID)
	require.NoError(t, err)

	for _, d := range details {
		if !d.Association.IsScheduled() {
			continue
		}
		duration := (*d.Association.ScheduledStopMJD - *d.Association.ScheduledStartMJD) * mjd.SecondsPerDay
		assert.GreaterOrEqual(t, duration, float64(d.Block.MinObservationSec)-1e-6)
		assert.LessOrEqual(t, duration, float64(d.Block.RequestedDurationSec)+1e-6)
	}
}

func TestPropertyBlockCountAndImpossibleConsistency(t *testing.T) {
	repo := memrepo.New()
	_, scheduleID := ingestRaw(t, repo, manyBlocksDoc())

	proj, err := repo.GetAnalytics(context.Background(), scheduleID)
	require.NoError(t, err)
	summary := proj.Summary

	assert.Equal(t, summary.TotalBlocks, summary.ScheduledBlocks+summary.UnscheduledBlocks)
	assert.GreaterOrEqual(t, summary.ScheduledBlocks+summary.UnscheduledBlocks, summary.ImpossibleBlocks)

	sumVisibility := 0.0
	for _, b := range proj.Blocks {
		assert.Equal(t, b.TotalVisibilityHours == 0, b.IsImpossible,
			"block %d: is_impossible must hold exactly when total_visibility_hours is zero", b.BlockID)
		sumVisibility += b.TotalVisibilityHours
	}
	assert.InDelta(t, summary.VisibilityTotalHours, sumVisibility, 1e-9)
}

func TestPropertyETLRerunIsStable(t *testing.T) {
	repo := memrepo.New()
	doc := manyBlocksDoc()
	_, scheduleID := ingestRaw(t, repo, doc)

	first, err := repo.GetAnalytics(context.Background(), scheduleID)
	require.NoError(t, err)

	require.NoError(t, analytics.Run(context.Background(), repo, scheduleID, cfg().Analytics, cfg().Validator))
	second, err := repo.GetAnalytics(context.Background(), scheduleID)
	require.NoError(t, err)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Blocks, second.Blocks)
	assert.Equal(t, first.PriorityRateBins, second.PriorityRateBins)
	assert.Equal(t, first.VisibilityTrendBins, second.VisibilityTrendBins)
	assert.Equal(t, first.HeatmapBins, second.HeatmapBins)
	assert.Equal(t, first.Conflicts, second.Conflicts)
}

func TestPropertyPriorityBucketMonotone(t *testing.T) {
	repo := memrepo.New()
	_, scheduleID := ingestRaw(t, repo, manyBlocksDoc())

	proj, err := repo.GetAnalytics(context.Background(), scheduleID)
	require.NoError(t, err)

	for _, a := range proj.Blocks {
		for _, b := range proj.Blocks {
			if a.Priority < b.Priority {
				assert.LessOrEqual(t, a.PriorityBucket, b.PriorityBucket,
					"lower priority %v (bucket %d) must not exceed higher priority %v's bucket (%d)",
					a.Priority, a.PriorityBucket, b.Priority, b.PriorityBucket)
			}
		}
	}
}

func TestBoundaryEmptyBlocksArray(t *testing.T) {
	repo := memrepo.New()
	doc := s1Doc()
	doc.SchedulingBlocks = nil
	_, scheduleID := ingestRaw(t, repo, doc)

	proj, err := repo.GetAnalytics(context.Background(), scheduleID)
	require.NoError(t, err)
	assert.Empty(t, proj.Blocks)
	assert.Equal(t, 0, proj.Summary.TotalBlocks)
}

func TestBoundarySingleBlockBucketAndNullCorrelations(t *testing.T) {
	repo := memrepo.New()
	_, scheduleID := ingestRaw(t, repo, s1Doc())

	proj, err := repo.GetAnalytics(context.Background(), scheduleID)
	require.NoError(t, err)
	require.Len(t, proj.Blocks, 1)
	assert.Equal(t, 2, proj.Blocks[0].PriorityBucket)
	assert.Nil(t, proj.Summary.CorrPriorityVisibility)
	assert.Nil(t, proj.Summary.CorrPriorityRequested)
	assert.Nil(t, proj.Summary.CorrVisibilityRequested)
	assert.Nil(t, proj.Summary.CorrPriorityElevationRange)
}

func TestBoundaryZeroLengthIntersectionLeavesBlockUnscheduled(t *testing.T) {
	repo := memrepo.New()
	doc := s1Doc()
	// The block's only visibility window coincides exactly with the one
	// dark period: the scheduler's free time (schedule period minus dark
	// periods) has a zero-length intersection with it, so the block cannot
	// be placed even though its raw visibility window is non-empty.
	doc.SchedulingBlocks[0].VisibilityPeriods = []ingest.PeriodDoc{{Start: 62116.0, Stop: 62117.0}}
	doc.DarkPeriods = []ingest.PeriodDoc{{Start: 62116.0, Stop: 62117.0}}
	_, scheduleID := ingestRaw(t, repo, doc)

	proj, err := repo.GetAnalytics(context.Background(), scheduleID)
	require.NoError(t, err)
	require.Len(t, proj.Blocks, 1)
	assert.False(t, proj.Blocks[0].IsScheduled)
	assert.Greater(t, proj.Blocks[0].TotalVisibilityHours, 0.0,
		"the block's raw visibility window is non-empty even though no schedulable free time overlaps it")
}

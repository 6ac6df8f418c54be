package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obsforge/obsforge/internal/models"
)

func TestPriorityRateBins(t *testing.T) {
	blocks := []models.BlockAnalytics{
		{Priority: 1.2, IsScheduled: true},
		{Priority: 1.4, IsScheduled: false},
		{Priority: 2.0, IsScheduled: true},
	}
	bins := priorityRateBins(1, blocks)
	assert.Len(t, bins, 2)
	assert.Equal(t, 1, bins[0].PriorityRounded)
	assert.Equal(t, 2, bins[0].Count)
	assert.Equal(t, 0.5, bins[0].SchedulingRate)
	assert.Equal(t, 2, bins[1].PriorityRounded)
	assert.Equal(t, 1, bins[1].Count)
}

func TestVisibilityTrendBinsDegenerate(t *testing.T) {
	blocks := []models.BlockAnalytics{
		{TotalVisibilityHours: 5, Priority: 1, IsScheduled: true},
		{TotalVisibilityHours: 5, Priority: 2, IsScheduled: false},
	}
	bins := visibilityTrendBins(1, blocks, 10)
	assert.Len(t, bins, 1)
	assert.Equal(t, 5.0, bins[0].Midpoint)
	assert.Equal(t, 2, bins[0].Count)
}

func TestHeatmapBinsNonEmptyOnly(t *testing.T) {
	blocks := []models.BlockAnalytics{
		{TotalVisibilityHours: 1, RequestedHours: 1, IsScheduled: true},
		{TotalVisibilityHours: 9, RequestedHours: 9, IsScheduled: false},
	}
	bins := heatmapBins(1, blocks, 2, 2)
	assert.NotEmpty(t, bins)
	for _, b := range bins {
		assert.Greater(t, b.Count, 0)
	}
}

func TestVisibilityTimeBins(t *testing.T) {
	schedulePeriod := models.Period{Start: 60000, Stop: 60000 + 1800.0/86400}
	blocks := []blockTimeCtx{
		{blockID: 1, priorityBucket: 4, isScheduled: true, visibilityPeriods: []models.Period{{Start: 60000, Stop: 60000 + 1800.0/86400}}},
		{blockID: 2, priorityBucket: 1, isScheduled: false, visibilityPeriods: []models.Period{{Start: 60000 + 1000.0/86400, Stop: 60000 + 1800.0/86400}}},
	}
	bins := visibilityTimeBins(1, schedulePeriod, 900, blocks)
	assert.Len(t, bins, 2)
	assert.Equal(t, 1, bins[0].TotalVisibleCount)
	assert.Equal(t, 2, bins[1].TotalVisibleCount)
	assert.Contains(t, bins[1].BlockIDs, int64(1))
	assert.Contains(t, bins[1].BlockIDs, int64(2))
}

func TestConflictRecords(t *testing.T) {
	placements := []scheduledBlock{
		{blockID: 1, period: models.Period{Start: 60000, Stop: 60000 + 3600.0/86400}},
		{blockID: 2, period: models.Period{Start: 60000 + 1800.0/86400, Stop: 60000 + 5400.0/86400}},
	}
	conflicts := conflictRecords(1, placements)
	assert.Len(t, conflicts, 1)
	assert.Equal(t, int64(1), conflicts[0].BlockAID)
	assert.Equal(t, int64(2), conflicts[0].BlockBID)
	assert.Greater(t, conflicts[0].OverlapHours, 0.0)
}

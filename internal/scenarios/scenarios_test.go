// Package scenarios exercises the ingest -> analytics ETL -> query engine
// pipeline end to end against the in-memory repository, reproducing the
// literal worked examples used to validate the system's behavior.
package scenarios

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsforge/obsforge/internal/analytics"
	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/ingest"
	"github.com/obsforge/obsforge/internal/query"
	"github.com/obsforge/obsforge/internal/repository/memrepo"
)

func strPtr(s string) *string    { return &s }
func f64Ptr(f float64) *float64  { return &f }

func cfg() config.Config { return *config.Default() }

func ingestRaw(t *testing.T, repo *memrepo.Repository, doc ingest.Document) (ingest.Document, int64) {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	out, err := ingest.Ingest(context.Background(), repo, raw, cfg().Scheduler)
	require.NoError(t, err)
	require.NoError(t, analytics.Run(context.Background(), repo, out.ScheduleID, cfg().Analytics, cfg().Validator))
	return doc, out.ScheduleID
}

// s1Doc builds the S1 document: a single trivially schedulable block.
func s1Doc() ingest.Document {
	return ingest.Document{
		Name:           "s1",
		ObserverLocation: ingest.LocationDoc{Latitude: 28.7624, Longitude: -17.8892},
		SchedulePeriod: ingest.PeriodDoc{Start: 62115.0, Stop: 62120.0},
		SchedulingBlocks: []ingest.BlockDoc{
			{
				OriginalID:           strPtr("b1"),
				Target:               ingest.TargetDoc{Name: "t1", RADeg: 180.0, DecDeg: -30.0},
				Priority:             7.5,
				MinObservationSec:    1200,
				RequestedDurationSec: 3600,
				Constraints:          ingest.ConstraintsDoc{MinAlt: f64Ptr(30), MaxAlt: f64Ptr(90)},
			},
		},
	}
}

func TestS1SingleBlockTriviallySchedulable(t *testing.T) {
	repo := memrepo.New()
	_, scheduleID := ingestRaw(t, repo, s1Doc())

	res, err := query.SkyMap(context.Background(), repo, scheduleID)
	require.NoError(t, err)
	require.Len(t, res.Blocks, 1)
	b := res.Blocks[0]
	assert.Equal(t, 2, b.PriorityBucket)
	require.NotNil(t, b.ScheduledPeriod)

	dist, err := query.Distributions(context.Background(), repo, scheduleID)
	require.NoError(t, err)
	require.Len(t, dist.Blocks, 1)
	assert.True(t, dist.Blocks[0].Scheduled)
	assert.Greater(t, dist.Blocks[0].TotalVisibilityHours, 0.0)

	trends, err := query.Trends(context.Background(), repo, scheduleID, query.TrendsOptions{})
	require.NoError(t, err)
	require.Len(t, trends.PriorityRate, 1)
	assert.Equal(t, 1.0, trends.PriorityRate[0].Y)
}

func TestS2ImpossibleVisibility(t *testing.T) {
	repo := memrepo.New()
	doc := s1Doc()
	doc.SchedulingBlocks[0].Target.DecDeg = 85.0
	_, scheduleID := ingestRaw(t, repo, doc)

	dist, err := query.Distributions(context.Background(), repo, scheduleID)
	require.NoError(t, err)
	require.Len(t, dist.Blocks, 1)
	assert.Equal(t, 0.0, dist.Blocks[0].TotalVisibilityHours)
	assert.False(t, dist.Blocks[0].Scheduled)

	report, err := query.ValidationReport(context.Background(), repo, scheduleID)
	require.NoError(t, err)
	require.Len(t, report.Impossible, 1)
	assert.Equal(t, "zero_visibility", report.Impossible[0].Rule)
	assert.Equal(t, "Critical", report.Impossible[0].Criticality)
}

func TestS3DarkPeriodSwallowsVisibility(t *testing.T) {
	repo := memrepo.New()
	doc := s1Doc()
	doc.DarkPeriods = []ingest.PeriodDoc{{Start: 62115.0, Stop: 62120.0}}
	_, scheduleID := ingestRaw(t, repo, doc)

	dist, err := query.Distributions(context.Background(), repo, scheduleID)
	require.NoError(t, err)
	require.Len(t, dist.Blocks, 1)
	assert.Equal(t, 0.0, dist.Blocks[0].TotalVisibilityHours)
	assert.False(t, dist.Blocks[0].Scheduled)

	report, err := query.ValidationReport(context.Background(), repo, scheduleID)
	require.NoError(t, err)
	assert.Len(t, report.Impossible, 1)
}

func TestS4TwoOverlappingBlocksPriorityWins(t *testing.T) {
	repo := memrepo.New()
	doc := s1Doc()
	window := []ingest.PeriodDoc{{Start: 62115.0, Stop: 62115.0 + 3600.0/86400.0}}
	doc.SchedulingBlocks = []ingest.BlockDoc{
		{
			OriginalID:           strPtr("high"),
			Target:               ingest.TargetDoc{Name: "t", RADeg: 180.0, DecDeg: -30.0},
			Priority:             9.0,
			MinObservationSec:    3600,
			RequestedDurationSec: 3600,
			Constraints:          ingest.ConstraintsDoc{MinAlt: f64Ptr(0), MaxAlt: f64Ptr(90)},
			VisibilityPeriods:    window,
		},
		{
			OriginalID:           strPtr("low"),
			Target:               ingest.TargetDoc{Name: "t", RADeg: 180.0, DecDeg: -30.0},
			Priority:             3.0,
			MinObservationSec:    3600,
			RequestedDurationSec: 3600,
			Constraints:          ingest.ConstraintsDoc{MinAlt: f64Ptr(0), MaxAlt: f64Ptr(90)},
			VisibilityPeriods:    window,
		},
	}
	_, scheduleID := ingestRaw(t, repo, doc)

	dist, err := query.Distributions(context.Background(), repo, scheduleID)
	require.NoError(t, err)
	require.Equal(t, 2, dist.TotalBlocks)
	assert.Equal(t, 1, dist.ScheduledBlocks)
	assert.Equal(t, 1, dist.UnscheduledBlocks)

	skyMap, err := query.SkyMap(context.Background(), repo, scheduleID)
	require.NoError(t, err)
	var winner, loser *query.SkyMapBlock
	for i := range skyMap.Blocks {
		b := &skyMap.Blocks[i]
		if *b.OriginalID == "high" {
			winner = b
		} else {
			loser = b
		}
	}
	require.NotNil(t, winner)
	require.NotNil(t, loser)
	assert.NotNil(t, winner.ScheduledPeriod)
	assert.Nil(t, loser.ScheduledPeriod)

	insights, err := query.Insights(context.Background(), repo, scheduleID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, insights.Summary.SchedulingRate, 1e-9)
	assert.InDelta(t, 0.75, float64(9.0)/(9.0+3.0), 1e-9)
}

func TestS5DuplicateIngestionRejected(t *testing.T) {
	repo := memrepo.New()
	doc := s1Doc()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	out1, err := ingest.Ingest(context.Background(), repo, raw, cfg().Scheduler)
	require.NoError(t, err)

	_, err = ingest.Ingest(context.Background(), repo, raw, cfg().Scheduler)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindDuplicateSchedule))

	list, err := repo.ListSchedules(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, out1.ScheduleID, list[0].ID)
}

func TestS6CompareTwoSchedules(t *testing.T) {
	repo := memrepo.New()

	// Each block gets its own non-overlapping window so its scheduled/
	// unscheduled outcome is independent of which other blocks are present
	// in the same document: b1, b2, b4 each have a window exactly as wide
	// as their requested duration (schedulable); b3's window is narrower
	// than its minimum observation time (unschedulable in both A and B).
	windowFor := func(dayOffset float64, widthSec float64) []ingest.PeriodDoc {
		start := 62115.0 + dayOffset
		return []ingest.PeriodDoc{{Start: start, Stop: start + widthSec/86400.0}}
	}

	blockDoc := func(id string, priority float64, dayOffset, widthSec float64) ingest.BlockDoc {
		return ingest.BlockDoc{
			OriginalID:           strPtr(id),
			Target:               ingest.TargetDoc{Name: id, RADeg: 180.0, DecDeg: -30.0},
			Priority:             priority,
			MinObservationSec:    3600,
			RequestedDurationSec: 3600,
			Constraints:          ingest.ConstraintsDoc{MinAlt: f64Ptr(0), MaxAlt: f64Ptr(90)},
			VisibilityPeriods:    windowFor(dayOffset, widthSec),
		}
	}

	b1 := blockDoc("b1", 9.0, 0, 3600)
	b2 := blockDoc("b2", 8.0, 1, 3600)
	b3 := blockDoc("b3", 1.0, 2, 1800)
	b4 := blockDoc("b4", 7.0, 3, 3600)

	docA := s1Doc()
	docA.Name = "A"
	docA.SchedulingBlocks = []ingest.BlockDoc{b1, b2, b3}
	_, scheduleA := ingestRaw(t, repo, docA)

	docB := s1Doc()
	docB.Name = "B"
	docB.SchedulingBlocks = []ingest.BlockDoc{b2, b3, b4}
	_, scheduleB := ingestRaw(t, repo, docB)

	res, err := query.Compare(context.Background(), repo, scheduleA, scheduleB)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b2", "b3"}, res.CommonOriginalIDs)
	assert.ElementsMatch(t, []string{"b1"}, res.OnlyInCurrent)
	assert.ElementsMatch(t, []string{"b4"}, res.OnlyInComparison)

	changeFor := func(id string) query.SchedulingChangeKind {
		for _, c := range res.SchedulingChanges {
			if c.OriginalID == id {
				return c.Change
			}
		}
		return ""
	}
	assert.Equal(t, query.RemainedScheduled, changeFor("b2"))
	assert.Equal(t, query.RemainedUnscheduled, changeFor("b3"))
}

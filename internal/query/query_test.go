package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

// fakeRepo implements repository.Repository with exactly the methods these
// tests exercise; anything else panics, so an accidental call surfaces
// immediately instead of returning a silently wrong zero value.
type fakeRepo struct {
	schedules map[int64]models.Schedule
	analytics map[int64]repository.AnalyticsProjection
	dark      map[int64][]models.Period
	validated map[int64][]models.ValidationResult
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		schedules: map[int64]models.Schedule{},
		analytics: map[int64]repository.AnalyticsProjection{},
		dark:      map[int64][]models.Period{},
		validated: map[int64][]models.ValidationResult{},
	}
}

func (f *fakeRepo) IngestSchedule(context.Context, repository.IngestInput) (repository.IngestOutput, error) {
	panic("not used")
}
func (f *fakeRepo) GetSchedule(_ context.Context, id int64) (models.Schedule, error) {
	s, ok := f.schedules[id]
	if !ok {
		return models.Schedule{}, apierr.New(apierr.KindScheduleNotFound, "schedule not found")
	}
	return s, nil
}
func (f *fakeRepo) GetScheduleByChecksum(context.Context, string) (models.Schedule, bool, error) {
	panic("not used")
}
func (f *fakeRepo) ListSchedules(context.Context) ([]repository.ScheduleListItem, error) {
	panic("not used")
}
func (f *fakeRepo) DeleteSchedule(context.Context, int64) error { panic("not used") }
func (f *fakeRepo) ListBlockDetails(context.Context, int64) ([]repository.BlockDetail, error) {
	panic("not used")
}
func (f *fakeRepo) GetDarkPeriods(_ context.Context, id int64) ([]models.Period, error) {
	return f.dark[id], nil
}
func (f *fakeRepo) ReplaceAnalytics(context.Context, int64, repository.AnalyticsProjection, []models.ValidationResult) error {
	panic("not used")
}
func (f *fakeRepo) GetAnalytics(_ context.Context, id int64) (repository.AnalyticsProjection, error) {
	return f.analytics[id], nil
}
func (f *fakeRepo) GetValidationResults(_ context.Context, id int64) ([]models.ValidationResult, error) {
	return f.validated[id], nil
}

var _ repository.Repository = (*fakeRepo)(nil)

func strPtr(s string) *string { return &s }

func TestSkyMapUnknownSchedule(t *testing.T) {
	repo := newFakeRepo()
	_, err := SkyMap(context.Background(), repo, 99)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindScheduleNotFound))
}

func TestSkyMapSingleBlockBucketTwo(t *testing.T) {
	repo := newFakeRepo()
	repo.schedules[1] = models.Schedule{ID: 1}
	repo.analytics[1] = repository.AnalyticsProjection{
		Blocks: []models.BlockAnalytics{
			{OriginalID: strPtr("b1"), Priority: 5, PriorityBucket: 2, TargetRADeg: 10, TargetDecDeg: -20},
		},
		Summary: models.ScheduleSummary{PriorityOverall: models.Stats{Min: 5, Max: 5}},
	}

	res, err := SkyMap(context.Background(), repo, 1)
	require.NoError(t, err)
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, 2, res.Blocks[0].PriorityBucket)
	assert.Len(t, res.PriorityBins, 4)
}

func TestValidationReportBuckets(t *testing.T) {
	repo := newFakeRepo()
	repo.schedules[1] = models.Schedule{ID: 1}
	repo.validated[1] = []models.ValidationResult{
		{Rule: "zero_visibility", Status: "impossible"},
		{Rule: "invalid_coordinates", Status: "error"},
		{Rule: "priority_outlier", Status: "warning"},
	}

	res, err := ValidationReport(context.Background(), repo, 1)
	require.NoError(t, err)
	assert.Len(t, res.Impossible, 1)
	assert.Len(t, res.Errors, 1)
	assert.Len(t, res.Warnings, 1)
}

func TestCompareClassifiesSchedulingChanges(t *testing.T) {
	repo := newFakeRepo()
	repo.schedules[1] = models.Schedule{ID: 1}
	repo.schedules[2] = models.Schedule{ID: 2}
	repo.analytics[1] = repository.AnalyticsProjection{Blocks: []models.BlockAnalytics{
		{OriginalID: strPtr("b1"), IsScheduled: true},
		{OriginalID: strPtr("b2"), IsScheduled: true},
		{OriginalID: strPtr("b3"), IsScheduled: false},
	}}
	repo.analytics[2] = repository.AnalyticsProjection{Blocks: []models.BlockAnalytics{
		{OriginalID: strPtr("b2"), IsScheduled: true},
		{OriginalID: strPtr("b3"), IsScheduled: false},
		{OriginalID: strPtr("b4"), IsScheduled: true},
	}}

	res, err := Compare(context.Background(), repo, 1, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b2", "b3"}, res.CommonOriginalIDs)
	assert.ElementsMatch(t, []string{"b1"}, res.OnlyInCurrent)
	assert.ElementsMatch(t, []string{"b4"}, res.OnlyInComparison)

	changeFor := func(id string) SchedulingChangeKind {
		for _, c := range res.SchedulingChanges {
			if c.OriginalID == id {
				return c.Change
			}
		}
		return ""
	}
	assert.Equal(t, RemainedScheduled, changeFor("b2"))
	assert.Equal(t, RemainedUnscheduled, changeFor("b3"))
}

func TestVisibilityHistogramAmbiguous(t *testing.T) {
	repo := newFakeRepo()
	repo.schedules[1] = models.Schedule{ID: 1}
	n := 5
	d := 30
	_, err := VisibilityHistogram(context.Background(), repo, 1, HistogramOptions{NumBins: &n, BinDurationMinutes: &d})
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindAmbiguousBinningRequest))
}

func TestVisibilityHistogramNoFilterUsesTotalCounts(t *testing.T) {
	repo := newFakeRepo()
	repo.schedules[1] = models.Schedule{ID: 1}
	repo.analytics[1] = repository.AnalyticsProjection{
		VisibilityTimeBins: []models.VisibilityTimeBin{
			{BinStartUnix: 0, BinEndUnix: 900, TotalVisibleCount: 3, BlockIDs: []int64{1, 2, 3}},
			{BinStartUnix: 900, BinEndUnix: 1800, TotalVisibleCount: 1, BlockIDs: []int64{2}},
		},
	}

	res, err := VisibilityHistogram(context.Background(), repo, 1, HistogramOptions{})
	require.NoError(t, err)
	require.Len(t, res.Bins, 2)
	assert.Equal(t, 3, res.Bins[0].Count)
	assert.Equal(t, 1, res.Bins[1].Count)
}

func TestVisibilityHistogramBlockIDFilter(t *testing.T) {
	repo := newFakeRepo()
	repo.schedules[1] = models.Schedule{ID: 1}
	repo.analytics[1] = repository.AnalyticsProjection{
		VisibilityTimeBins: []models.VisibilityTimeBin{
			{BinStartUnix: 0, BinEndUnix: 900, TotalVisibleCount: 3, BlockIDs: []int64{1, 2, 3}},
		},
	}

	res, err := VisibilityHistogram(context.Background(), repo, 1, HistogramOptions{BlockIDs: []int64{2, 3, 99}})
	require.NoError(t, err)
	require.Len(t, res.Bins, 1)
	assert.Equal(t, 2, res.Bins[0].Count)
}

func TestGaussianSmoothFlatInput(t *testing.T) {
	samples := []RatePoint{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}}
	curve := gaussianSmooth(samples, 1, 5)
	require.Len(t, curve, 5)
	for _, p := range curve {
		assert.InDelta(t, 1.0, p.Y, 1e-9)
	}
}

// Package query implements the read-side operations the external API
// exposes over a schedule's persisted analytics: sky maps, distributions,
// timelines, insights, trend curves, validation reports, cross-schedule
// comparison, and dynamically re-binned visibility histograms. Every
// operation translates an unknown schedule id to ScheduleNotFound and
// returns empty slices (never nil-vs-error ambiguity) for empty result
// sets.
package query

import (
	"context"
	"sort"

	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

// loaded bundles what nearly every operation needs: the schedule itself and
// its current analytics projection.
type loaded struct {
	schedule models.Schedule
	proj     repository.AnalyticsProjection
}

func load(ctx context.Context, repo repository.Repository, scheduleID int64) (loaded, error) {
	schedule, err := repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return loaded{}, err
	}
	proj, err := repo.GetAnalytics(ctx, scheduleID)
	if err != nil {
		return loaded{}, err
	}
	return loaded{schedule: schedule, proj: proj}, nil
}

func topNByPriority(blocks []models.BlockAnalytics, n int) []models.BlockAnalytics {
	return topN(blocks, n, func(a, b models.BlockAnalytics) bool { return a.Priority > b.Priority })
}

func topNByVisibility(blocks []models.BlockAnalytics, n int) []models.BlockAnalytics {
	return topN(blocks, n, func(a, b models.BlockAnalytics) bool { return a.TotalVisibilityHours > b.TotalVisibilityHours })
}

func topN(blocks []models.BlockAnalytics, n int, less func(a, b models.BlockAnalytics) bool) []models.BlockAnalytics {
	sorted := append([]models.BlockAnalytics(nil), blocks...)
	sort.Slice(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

package query

import (
	"context"

	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

// InsightsResult is the response of the insights operation.
type InsightsResult struct {
	Blocks          []models.BlockAnalytics
	Summary         models.ScheduleSummary
	Conflicts       []models.ConflictRecord
	TopByPriority   []models.BlockAnalytics
	TopByVisibility []models.BlockAnalytics
}

const insightsTopN = 10

// Insights returns every block, the schedule summary (including
// correlations), conflict records, and the top 10 blocks by priority and by
// total visibility hours.
func Insights(ctx context.Context, repo repository.Repository, scheduleID int64) (InsightsResult, error) {
	l, err := load(ctx, repo, scheduleID)
	if err != nil {
		return InsightsResult{}, err
	}

	return InsightsResult{
		Blocks:          l.proj.Blocks,
		Summary:         l.proj.Summary,
		Conflicts:       l.proj.Conflicts,
		TopByPriority:   topNByPriority(l.proj.Blocks, insightsTopN),
		TopByVisibility: topNByVisibility(l.proj.Blocks, insightsTopN),
	}, nil
}

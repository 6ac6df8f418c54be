package query

import (
	"context"
	"sort"
	"time"

	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

// TimelineBlock is one scheduled block's entry on the timeline.
type TimelineBlock struct {
	OriginalID      *string
	ScheduledPeriod models.Period
}

// TimelineResult is the response of the timeline operation.
type TimelineResult struct {
	Blocks      []TimelineBlock
	Months      []string
	DarkPeriods []models.Period
}

// Timeline returns every scheduled block's placement, the set of unique
// YYYY-MM strings the schedule's placements span, and the dark periods.
func Timeline(ctx context.Context, repo repository.Repository, scheduleID int64) (TimelineResult, error) {
	l, err := load(ctx, repo, scheduleID)
	if err != nil {
		return TimelineResult{}, err
	}

	dark, err := repo.GetDarkPeriods(ctx, scheduleID)
	if err != nil {
		return TimelineResult{}, err
	}

	res := TimelineResult{DarkPeriods: dark}

	monthSet := map[string]bool{}
	for _, b := range l.proj.Blocks {
		if !b.IsScheduled {
			continue
		}
		period := models.Period{Start: *b.ScheduledStartMJD, Stop: *b.ScheduledStopMJD}
		res.Blocks = append(res.Blocks, TimelineBlock{OriginalID: b.OriginalID, ScheduledPeriod: period})
		for _, m := range monthsSpanned(period) {
			monthSet[m] = true
		}
	}

	months := make([]string, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Strings(months)
	res.Months = months

	return res, nil
}

func monthsSpanned(p models.Period) []string {
	start := time.Unix(int64(mjd.ToUnix(p.Start)), 0).UTC()
	stop := time.Unix(int64(mjd.ToUnix(p.Stop)), 0).UTC()

	var months []string
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(stop.Year(), stop.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		months = append(months, cur.Format("2006-01"))
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

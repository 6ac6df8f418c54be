// Package analytics implements the delete-then-insert ETL that turns a
// persisted schedule's raw blocks into the denormalized rows the query
// engine reads: per-block analytics, a schedule-wide summary, and four
// families of aggregate bins. It is safe to re-run at any time; its output
// is a pure function of the schedule's current blocks and associations.
package analytics

import (
	"context"
	"math"

	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/logging"
	"github.com/obsforge/obsforge/internal/metrics"
	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
	"github.com/obsforge/obsforge/internal/validate"
)

const (
	visibilityTrendBinCount = 10
	heatmapXBins            = 10
	heatmapYBins            = 10
)

// Run recomputes and persists every analytics row for scheduleID.
func Run(ctx context.Context, repo repository.Repository, scheduleID int64, analyticsCfg config.AnalyticsConfig, validatorCfg config.ValidatorConfig) error {
	defer metrics.Timer(metrics.ETLDuration)()
	log := logging.Ctx(ctx)

	schedule, err := repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	details, err := repo.ListBlockDetails(ctx, scheduleID)
	if err != nil {
		return err
	}

	validationResults := validate.Evaluate(scheduleID, details, validatorCfg)

	priorityMin, priorityMax := math.Inf(1), math.Inf(-1)
	for _, d := range details {
		if d.Block.Priority < priorityMin {
			priorityMin = d.Block.Priority
		}
		if d.Block.Priority > priorityMax {
			priorityMax = d.Block.Priority
		}
	}

	blockRows := make([]models.BlockAnalytics, len(details))
	timeCtx := make([]blockTimeCtx, len(details))
	var scheduledPlacements []scheduledBlock

	for i, d := range details {
		row := buildBlockAnalytics(scheduleID, d, priorityMin, priorityMax, validationResults)
		blockRows[i] = row
		timeCtx[i] = blockTimeCtx{
			blockID:           d.Block.ID,
			priorityBucket:    row.PriorityBucket,
			isScheduled:       row.IsScheduled,
			visibilityPeriods: d.Block.VisibilityPeriods,
		}
		if row.IsScheduled {
			scheduledPlacements = append(scheduledPlacements, scheduledBlock{
				blockID: d.Block.ID,
				period:  models.Period{Start: *row.ScheduledStartMJD, Stop: *row.ScheduledStopMJD},
			})
		}
	}

	proj := repository.AnalyticsProjection{
		Blocks:              blockRows,
		Summary:             buildSummary(scheduleID, blockRows),
		PriorityRateBins:    priorityRateBins(scheduleID, blockRows),
		VisibilityTrendBins: visibilityTrendBins(scheduleID, blockRows, visibilityTrendBinCount),
		HeatmapBins:         heatmapBins(scheduleID, blockRows, heatmapXBins, heatmapYBins),
		VisibilityTimeBins:  visibilityTimeBins(scheduleID, schedule.SchedulePeriod, analyticsCfg.VisibilityBinSeconds, timeCtx),
		Conflicts:           conflictRecords(scheduleID, scheduledPlacements),
	}

	if err := repo.ReplaceAnalytics(ctx, scheduleID, proj, validationResults); err != nil {
		return err
	}

	log.Info().Int64("schedule_id", scheduleID).Int("block_count", len(blockRows)).Msg("analytics recomputed")
	return nil
}

func buildBlockAnalytics(scheduleID int64, d repository.BlockDetail, priorityMin, priorityMax float64, validationResults []models.ValidationResult) models.BlockAnalytics {
	b := d.Block

	var totalVisibilitySec float64
	for _, w := range b.VisibilityPeriods {
		totalVisibilitySec += mjd.DurationSeconds(w)
	}

	row := models.BlockAnalytics{
		ScheduleID:            scheduleID,
		BlockID:               b.ID,
		OriginalID:            b.OriginalID,
		TargetRADeg:           d.Target.RADeg,
		TargetDecDeg:          d.Target.DecDeg,
		Priority:              b.Priority,
		PriorityBucket:        priorityBucket(b.Priority, priorityMin, priorityMax),
		IsScheduled:           d.Association.IsScheduled(),
		ScheduledStartMJD:     d.Association.ScheduledStartMJD,
		ScheduledStopMJD:      d.Association.ScheduledStopMJD,
		TotalVisibilityHours:  totalVisibilitySec / 3600,
		VisibilityPeriodCount: len(b.VisibilityPeriods),
		ValidationImpossible:  validate.IsImpossible(validationResults, b.ID),
		RequestedHours:        float64(b.RequestedDurationSec) / 3600,
	}

	if d.Altitude != nil {
		row.AltMinDeg = &d.Altitude.MinAltDeg
		row.AltMaxDeg = &d.Altitude.MaxAltDeg
		elevRange := d.Altitude.MaxAltDeg - d.Altitude.MinAltDeg
		row.ElevationRangeDeg = &elevRange
	}
	if d.Azimuth != nil {
		row.AzMinDeg = &d.Azimuth.MinAzDeg
		row.AzMaxDeg = &d.Azimuth.MaxAzDeg
	}
	if row.IsScheduled {
		durSec := (*row.ScheduledStopMJD - *row.ScheduledStartMJD) * mjd.SecondsPerDay
		row.ScheduledDurationSec = &durSec
	}
	row.IsImpossible = row.TotalVisibilityHours == 0

	return row
}

func priorityBucket(priority, min, max float64) int {
	r := max - min
	if r == 0 {
		return 2
	}
	q := (priority - min) / r
	switch {
	case q >= 0.75:
		return 4
	case q >= 0.50:
		return 3
	case q >= 0.25:
		return 2
	default:
		return 1
	}
}

func buildSummary(scheduleID int64, blocks []models.BlockAnalytics) models.ScheduleSummary {
	summary := models.ScheduleSummary{ScheduleID: scheduleID, TotalBlocks: len(blocks)}
	if len(blocks) == 0 {
		return summary
	}

	var priorityAll, priorityScheduled, priorityUnscheduled []float64
	var visibility, requested, elevationRange []float64
	var scheduledDuration []float64
	var raAll, decAll []float64

	var scheduledStart, scheduledStop float64
	haveScheduledRange := false

	for _, b := range blocks {
		priorityAll = append(priorityAll, b.Priority)
		visibility = append(visibility, b.TotalVisibilityHours)
		requested = append(requested, b.RequestedHours)
		raAll = append(raAll, b.TargetRADeg)
		decAll = append(decAll, b.TargetDecDeg)
		if b.ElevationRangeDeg != nil {
			elevationRange = append(elevationRange, *b.ElevationRangeDeg)
		}

		if b.IsScheduled {
			summary.ScheduledBlocks++
			priorityScheduled = append(priorityScheduled, b.Priority)
			if b.ScheduledDurationSec != nil {
				scheduledDuration = append(scheduledDuration, *b.ScheduledDurationSec/3600)
			}
			if !haveScheduledRange || *b.ScheduledStartMJD < scheduledStart {
				scheduledStart = *b.ScheduledStartMJD
			}
			if !haveScheduledRange || *b.ScheduledStopMJD > scheduledStop {
				scheduledStop = *b.ScheduledStopMJD
			}
			haveScheduledRange = true
		} else {
			summary.UnscheduledBlocks++
			priorityUnscheduled = append(priorityUnscheduled, b.Priority)
		}
		if b.IsImpossible {
			summary.ImpossibleBlocks++
		}
	}

	summary.SchedulingRate = float64(summary.ScheduledBlocks) / float64(summary.TotalBlocks)

	summary.PriorityOverall = computeStats(priorityAll)
	summary.PriorityScheduled = computeStats(priorityScheduled)
	summary.PriorityUnscheduled = computeStats(priorityUnscheduled)

	visStats := computeStats(visibility)
	summary.VisibilityTotalHours = sum(visibility)
	summary.VisibilityMeanHours = visStats.Mean

	reqStats := computeStats(requested)
	summary.RequestedTotalHours = sum(requested)
	summary.RequestedMeanHours = reqStats.Mean

	schedStats := computeStats(scheduledDuration)
	summary.ScheduledTotalHours = sum(scheduledDuration)
	summary.ScheduledMeanHours = schedStats.Mean

	summary.RAMinDeg, summary.RAMaxDeg = minMax(raAll)
	summary.DecMinDeg, summary.DecMaxDeg = minMax(decAll)

	if haveScheduledRange {
		summary.ScheduledTimeRange = &models.Period{Start: scheduledStart, Stop: scheduledStop}
	}

	summary.CorrPriorityVisibility = spearman(priorityAll, visibility)
	summary.CorrPriorityRequested = spearman(priorityAll, requested)
	summary.CorrVisibilityRequested = spearman(visibility, requested)
	if len(elevationRange) == len(priorityAll) {
		summary.CorrPriorityElevationRange = spearman(priorityAll, elevationRange)
	}

	return summary
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

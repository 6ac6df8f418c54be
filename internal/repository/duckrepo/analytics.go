package duckrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

func marshalStats(s models.Stats) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal stats: %w", err)
	}
	return string(b), nil
}

func unmarshalStats(s string) (models.Stats, error) {
	var out models.Stats
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return out, fmt.Errorf("unmarshal stats: %w", err)
	}
	return out, nil
}

// ReplaceAnalytics implements the ETL's delete-then-insert protocol: every
// analytics/validation row for scheduleID is deleted, then proj is inserted,
// inside one transaction.
func (r *Repository) ReplaceAnalytics(ctx context.Context, scheduleID int64, proj repository.AnalyticsProjection, validation []models.ValidationResult) error {
	if _, err := r.GetSchedule(ctx, scheduleID); err != nil {
		return err
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin analytics tx: %w", err)
	}
	defer tx.Rollback()

	tables := []string{
		"block_analytics", "schedule_summaries", "priority_rate_bins", "visibility_trend_bins",
		"heatmap_bins", "visibility_time_bins", "conflict_records", "validation_results",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE schedule_id = ?", table), scheduleID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, b := range proj.Blocks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO block_analytics (schedule_id, block_id, original_id, target_ra_deg, target_dec_deg,
				priority, priority_bucket, alt_min_deg, alt_max_deg, az_min_deg, az_max_deg,
				is_scheduled, scheduled_start_mjd, scheduled_stop_mjd, total_visibility_hours,
				visibility_period_count, validation_impossible, requested_hours, elevation_range_deg,
				scheduled_duration_sec, is_impossible)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			scheduleID, b.BlockID, b.OriginalID, b.TargetRADeg, b.TargetDecDeg,
			b.Priority, b.PriorityBucket, b.AltMinDeg, b.AltMaxDeg, b.AzMinDeg, b.AzMaxDeg,
			b.IsScheduled, b.ScheduledStartMJD, b.ScheduledStopMJD, b.TotalVisibilityHours,
			b.VisibilityPeriodCount, b.ValidationImpossible, b.RequestedHours, b.ElevationRangeDeg,
			b.ScheduledDurationSec, b.IsImpossible)
		if err != nil {
			return fmt.Errorf("insert block_analytics: %w", err)
		}
	}

	overallJSON, err := marshalStats(proj.Summary.PriorityOverall)
	if err != nil {
		return err
	}
	scheduledJSON, err := marshalStats(proj.Summary.PriorityScheduled)
	if err != nil {
		return err
	}
	unscheduledJSON, err := marshalStats(proj.Summary.PriorityUnscheduled)
	if err != nil {
		return err
	}
	var rangeJSON *string
	if proj.Summary.ScheduledTimeRange != nil {
		b, err := json.Marshal(proj.Summary.ScheduledTimeRange)
		if err != nil {
			return fmt.Errorf("marshal scheduled time range: %w", err)
		}
		s := string(b)
		rangeJSON = &s
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedule_summaries (schedule_id, total_blocks, scheduled_blocks, unscheduled_blocks,
			impossible_blocks, scheduling_rate, priority_overall_json, priority_scheduled_json,
			priority_unscheduled_json, visibility_total_hours, visibility_mean_hours,
			requested_total_hours, requested_mean_hours, scheduled_total_hours, scheduled_mean_hours,
			ra_min_deg, ra_max_deg, dec_min_deg, dec_max_deg, scheduled_time_range_json,
			corr_priority_visibility, corr_priority_requested, corr_visibility_requested,
			corr_priority_elevation_range)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scheduleID, proj.Summary.TotalBlocks, proj.Summary.ScheduledBlocks, proj.Summary.UnscheduledBlocks,
		proj.Summary.ImpossibleBlocks, proj.Summary.SchedulingRate, overallJSON, scheduledJSON,
		unscheduledJSON, proj.Summary.VisibilityTotalHours, proj.Summary.VisibilityMeanHours,
		proj.Summary.RequestedTotalHours, proj.Summary.RequestedMeanHours, proj.Summary.ScheduledTotalHours,
		proj.Summary.ScheduledMeanHours, proj.Summary.RAMinDeg, proj.Summary.RAMaxDeg,
		proj.Summary.DecMinDeg, proj.Summary.DecMaxDeg, rangeJSON,
		proj.Summary.CorrPriorityVisibility, proj.Summary.CorrPriorityRequested,
		proj.Summary.CorrVisibilityRequested, proj.Summary.CorrPriorityElevationRange)
	if err != nil {
		return fmt.Errorf("insert schedule_summaries: %w", err)
	}

	for _, bin := range proj.PriorityRateBins {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO priority_rate_bins (schedule_id, priority_rounded, count, scheduled_count, scheduling_rate)
			VALUES (?, ?, ?, ?, ?)`,
			scheduleID, bin.PriorityRounded, bin.Count, bin.ScheduledCount, bin.SchedulingRate)
		if err != nil {
			return fmt.Errorf("insert priority_rate_bins: %w", err)
		}
	}

	for _, bin := range proj.VisibilityTrendBins {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO visibility_trend_bins (schedule_id, bin_index, midpoint, scheduled_rate, count, mean_priority)
			VALUES (?, ?, ?, ?, ?, ?)`,
			scheduleID, bin.BinIndex, bin.Midpoint, bin.ScheduledRate, bin.Count, bin.MeanPriority)
		if err != nil {
			return fmt.Errorf("insert visibility_trend_bins: %w", err)
		}
	}

	for _, bin := range proj.HeatmapBins {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO heatmap_bins (schedule_id, bin_x_index, bin_y_index, mid_x, mid_y, scheduled_rate, count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			scheduleID, bin.BinXIndex, bin.BinYIndex, bin.MidX, bin.MidY, bin.ScheduledRate, bin.Count)
		if err != nil {
			return fmt.Errorf("insert heatmap_bins: %w", err)
		}
	}

	for _, bin := range proj.VisibilityTimeBins {
		idsJSON, err := marshalInt64s(bin.BlockIDs)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO visibility_time_bins (schedule_id, bin_start_unix, bin_end_unix, total_visible_count,
				q1_count, q2_count, q3_count, q4_count, scheduled_count, unscheduled_count, block_ids_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			scheduleID, bin.BinStartUnix, bin.BinEndUnix, bin.TotalVisibleCount,
			bin.Q1Count, bin.Q2Count, bin.Q3Count, bin.Q4Count, bin.ScheduledCount, bin.UnscheduledCount, idsJSON)
		if err != nil {
			return fmt.Errorf("insert visibility_time_bins: %w", err)
		}
	}

	for _, c := range proj.Conflicts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO conflict_records (schedule_id, block_a_id, block_b_id, overlap_hours)
			VALUES (?, ?, ?, ?)`, scheduleID, c.BlockAID, c.BlockBID, c.OverlapHours)
		if err != nil {
			return fmt.Errorf("insert conflict_records: %w", err)
		}
	}

	for i := range validation {
		id, err := nextID(ctx, tx, "validation_results")
		if err != nil {
			return err
		}
		v := validation[i]
		v.ID = id
		v.ScheduleID = scheduleID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO validation_results (id, schedule_id, block_id, rule, status, category,
				criticality, field, current_value, expected_value, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.ScheduleID, v.BlockID, v.Rule, v.Status, v.Category,
			v.Criticality, v.Field, v.CurrentValue, v.ExpectedValue, v.Description)
		if err != nil {
			return fmt.Errorf("insert validation_results: %w", err)
		}
	}

	return tx.Commit()
}

// GetAnalytics implements repository.Repository.
func (r *Repository) GetAnalytics(ctx context.Context, scheduleID int64) (repository.AnalyticsProjection, error) {
	if _, err := r.GetSchedule(ctx, scheduleID); err != nil {
		return repository.AnalyticsProjection{}, err
	}

	var proj repository.AnalyticsProjection
	var err error

	proj.Blocks, err = r.queryBlockAnalytics(ctx, scheduleID)
	if err != nil {
		return repository.AnalyticsProjection{}, err
	}
	proj.Summary, err = r.querySummary(ctx, scheduleID)
	if err != nil {
		return repository.AnalyticsProjection{}, err
	}
	proj.PriorityRateBins, err = r.queryPriorityRateBins(ctx, scheduleID)
	if err != nil {
		return repository.AnalyticsProjection{}, err
	}
	proj.VisibilityTrendBins, err = r.queryVisibilityTrendBins(ctx, scheduleID)
	if err != nil {
		return repository.AnalyticsProjection{}, err
	}
	proj.HeatmapBins, err = r.queryHeatmapBins(ctx, scheduleID)
	if err != nil {
		return repository.AnalyticsProjection{}, err
	}
	proj.VisibilityTimeBins, err = r.queryVisibilityTimeBins(ctx, scheduleID)
	if err != nil {
		return repository.AnalyticsProjection{}, err
	}
	proj.Conflicts, err = r.queryConflicts(ctx, scheduleID)
	if err != nil {
		return repository.AnalyticsProjection{}, err
	}
	return proj, nil
}

func (r *Repository) queryBlockAnalytics(ctx context.Context, scheduleID int64) ([]models.BlockAnalytics, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT block_id, original_id, target_ra_deg, target_dec_deg, priority, priority_bucket,
			alt_min_deg, alt_max_deg, az_min_deg, az_max_deg, is_scheduled, scheduled_start_mjd,
			scheduled_stop_mjd, total_visibility_hours, visibility_period_count, validation_impossible,
			requested_hours, elevation_range_deg, scheduled_duration_sec, is_impossible
		FROM block_analytics WHERE schedule_id = ? ORDER BY block_id`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("query block_analytics: %w", err)
	}
	defer rows.Close()

	var out []models.BlockAnalytics
	for rows.Next() {
		var b models.BlockAnalytics
		b.ScheduleID = scheduleID
		if err := rows.Scan(&b.BlockID, &b.OriginalID, &b.TargetRADeg, &b.TargetDecDeg, &b.Priority,
			&b.PriorityBucket, &b.AltMinDeg, &b.AltMaxDeg, &b.AzMinDeg, &b.AzMaxDeg, &b.IsScheduled,
			&b.ScheduledStartMJD, &b.ScheduledStopMJD, &b.TotalVisibilityHours, &b.VisibilityPeriodCount,
			&b.ValidationImpossible, &b.RequestedHours, &b.ElevationRangeDeg, &b.ScheduledDurationSec,
			&b.IsImpossible); err != nil {
			return nil, fmt.Errorf("scan block_analytics: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) querySummary(ctx context.Context, scheduleID int64) (models.ScheduleSummary, error) {
	var s models.ScheduleSummary
	s.ScheduleID = scheduleID
	var overallJSON, scheduledJSON, unscheduledJSON string
	var rangeJSON sql.NullString

	err := r.conn.QueryRowContext(ctx, `
		SELECT total_blocks, scheduled_blocks, unscheduled_blocks, impossible_blocks, scheduling_rate,
			priority_overall_json, priority_scheduled_json, priority_unscheduled_json,
			visibility_total_hours, visibility_mean_hours, requested_total_hours, requested_mean_hours,
			scheduled_total_hours, scheduled_mean_hours, ra_min_deg, ra_max_deg, dec_min_deg, dec_max_deg,
			scheduled_time_range_json, corr_priority_visibility, corr_priority_requested,
			corr_visibility_requested, corr_priority_elevation_range
		FROM schedule_summaries WHERE schedule_id = ?`, scheduleID).Scan(
		&s.TotalBlocks, &s.ScheduledBlocks, &s.UnscheduledBlocks, &s.ImpossibleBlocks, &s.SchedulingRate,
		&overallJSON, &scheduledJSON, &unscheduledJSON,
		&s.VisibilityTotalHours, &s.VisibilityMeanHours, &s.RequestedTotalHours, &s.RequestedMeanHours,
		&s.ScheduledTotalHours, &s.ScheduledMeanHours, &s.RAMinDeg, &s.RAMaxDeg, &s.DecMinDeg, &s.DecMaxDeg,
		&rangeJSON, &s.CorrPriorityVisibility, &s.CorrPriorityRequested,
		&s.CorrVisibilityRequested, &s.CorrPriorityElevationRange)
	if err == sql.ErrNoRows {
		return models.ScheduleSummary{ScheduleID: scheduleID}, nil
	}
	if err != nil {
		return models.ScheduleSummary{}, fmt.Errorf("query schedule_summaries: %w", err)
	}

	if s.PriorityOverall, err = unmarshalStats(overallJSON); err != nil {
		return models.ScheduleSummary{}, err
	}
	if s.PriorityScheduled, err = unmarshalStats(scheduledJSON); err != nil {
		return models.ScheduleSummary{}, err
	}
	if s.PriorityUnscheduled, err = unmarshalStats(unscheduledJSON); err != nil {
		return models.ScheduleSummary{}, err
	}
	if rangeJSON.Valid {
		var p models.Period
		if err := json.Unmarshal([]byte(rangeJSON.String), &p); err != nil {
			return models.ScheduleSummary{}, fmt.Errorf("unmarshal scheduled time range: %w", err)
		}
		s.ScheduledTimeRange = &p
	}
	return s, nil
}

func (r *Repository) queryPriorityRateBins(ctx context.Context, scheduleID int64) ([]models.PriorityRateBin, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT priority_rounded, count, scheduled_count, scheduling_rate
		FROM priority_rate_bins WHERE schedule_id = ? ORDER BY priority_rounded`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("query priority_rate_bins: %w", err)
	}
	defer rows.Close()

	var out []models.PriorityRateBin
	for rows.Next() {
		bin := models.PriorityRateBin{ScheduleID: scheduleID}
		if err := rows.Scan(&bin.PriorityRounded, &bin.Count, &bin.ScheduledCount, &bin.SchedulingRate); err != nil {
			return nil, fmt.Errorf("scan priority_rate_bins: %w", err)
		}
		out = append(out, bin)
	}
	return out, rows.Err()
}

func (r *Repository) queryVisibilityTrendBins(ctx context.Context, scheduleID int64) ([]models.VisibilityTrendBin, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT bin_index, midpoint, scheduled_rate, count, mean_priority
		FROM visibility_trend_bins WHERE schedule_id = ? ORDER BY bin_index`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("query visibility_trend_bins: %w", err)
	}
	defer rows.Close()

	var out []models.VisibilityTrendBin
	for rows.Next() {
		bin := models.VisibilityTrendBin{ScheduleID: scheduleID}
		if err := rows.Scan(&bin.BinIndex, &bin.Midpoint, &bin.ScheduledRate, &bin.Count, &bin.MeanPriority); err != nil {
			return nil, fmt.Errorf("scan visibility_trend_bins: %w", err)
		}
		out = append(out, bin)
	}
	return out, rows.Err()
}

func (r *Repository) queryHeatmapBins(ctx context.Context, scheduleID int64) ([]models.HeatmapBin, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT bin_x_index, bin_y_index, mid_x, mid_y, scheduled_rate, count
		FROM heatmap_bins WHERE schedule_id = ? ORDER BY bin_x_index, bin_y_index`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("query heatmap_bins: %w", err)
	}
	defer rows.Close()

	var out []models.HeatmapBin
	for rows.Next() {
		bin := models.HeatmapBin{ScheduleID: scheduleID}
		if err := rows.Scan(&bin.BinXIndex, &bin.BinYIndex, &bin.MidX, &bin.MidY, &bin.ScheduledRate, &bin.Count); err != nil {
			return nil, fmt.Errorf("scan heatmap_bins: %w", err)
		}
		out = append(out, bin)
	}
	return out, rows.Err()
}

func (r *Repository) queryVisibilityTimeBins(ctx context.Context, scheduleID int64) ([]models.VisibilityTimeBin, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT bin_start_unix, bin_end_unix, total_visible_count, q1_count, q2_count, q3_count, q4_count,
			scheduled_count, unscheduled_count, block_ids_json
		FROM visibility_time_bins WHERE schedule_id = ? ORDER BY bin_start_unix`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("query visibility_time_bins: %w", err)
	}
	defer rows.Close()

	var out []models.VisibilityTimeBin
	for rows.Next() {
		bin := models.VisibilityTimeBin{ScheduleID: scheduleID}
		var idsJSON string
		if err := rows.Scan(&bin.BinStartUnix, &bin.BinEndUnix, &bin.TotalVisibleCount, &bin.Q1Count,
			&bin.Q2Count, &bin.Q3Count, &bin.Q4Count, &bin.ScheduledCount, &bin.UnscheduledCount, &idsJSON); err != nil {
			return nil, fmt.Errorf("scan visibility_time_bins: %w", err)
		}
		bin.BlockIDs, err = unmarshalInt64s(idsJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, bin)
	}
	return out, rows.Err()
}

func (r *Repository) queryConflicts(ctx context.Context, scheduleID int64) ([]models.ConflictRecord, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT block_a_id, block_b_id, overlap_hours
		FROM conflict_records WHERE schedule_id = ? ORDER BY block_a_id, block_b_id`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("query conflict_records: %w", err)
	}
	defer rows.Close()

	var out []models.ConflictRecord
	for rows.Next() {
		c := models.ConflictRecord{ScheduleID: scheduleID}
		if err := rows.Scan(&c.BlockAID, &c.BlockBID, &c.OverlapHours); err != nil {
			return nil, fmt.Errorf("scan conflict_records: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetValidationResults implements repository.Repository.
func (r *Repository) GetValidationResults(ctx context.Context, scheduleID int64) ([]models.ValidationResult, error) {
	if _, err := r.GetSchedule(ctx, scheduleID); err != nil {
		return nil, err
	}

	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, block_id, rule, status, category, criticality, field, current_value, expected_value, description
		FROM validation_results WHERE schedule_id = ? ORDER BY id`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("query validation_results: %w", err)
	}
	defer rows.Close()

	var out []models.ValidationResult
	for rows.Next() {
		v := models.ValidationResult{ScheduleID: scheduleID}
		if err := rows.Scan(&v.ID, &v.BlockID, &v.Rule, &v.Status, &v.Category, &v.Criticality,
			&v.Field, &v.CurrentValue, &v.ExpectedValue, &v.Description); err != nil {
			return nil, fmt.Errorf("scan validation_results: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

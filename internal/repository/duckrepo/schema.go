package duckrepo

// schemaStatements returns the full set of CREATE TABLE statements run once
// against a fresh database. Arrays (visibility periods, dark periods, block
// id lists) are stored as JSON text columns rather than normalized rows —
// nothing downstream ever queries into them by SQL, only round-trips them.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schedules (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		observer_lat DOUBLE NOT NULL,
		observer_lon DOUBLE NOT NULL,
		observer_elevation_m DOUBLE,
		schedule_start_mjd DOUBLE NOT NULL,
		schedule_stop_mjd DOUBLE NOT NULL,
		dark_periods_json TEXT NOT NULL,
		checksum TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS targets (
		id BIGINT PRIMARY KEY,
		name TEXT,
		ra_deg DOUBLE NOT NULL,
		dec_deg DOUBLE NOT NULL,
		ra_pm_masyr DOUBLE NOT NULL DEFAULT 0,
		dec_pm_masyr DOUBLE NOT NULL DEFAULT 0,
		equinox TEXT NOT NULL DEFAULT '',
		UNIQUE (ra_deg, dec_deg, ra_pm_masyr, dec_pm_masyr, equinox)
	)`,
	`CREATE TABLE IF NOT EXISTS altitude_constraints (
		id BIGINT PRIMARY KEY,
		min_alt_deg DOUBLE NOT NULL,
		max_alt_deg DOUBLE NOT NULL,
		UNIQUE (min_alt_deg, max_alt_deg)
	)`,
	`CREATE TABLE IF NOT EXISTS azimuth_constraints (
		id BIGINT PRIMARY KEY,
		min_az_deg DOUBLE NOT NULL,
		max_az_deg DOUBLE NOT NULL,
		UNIQUE (min_az_deg, max_az_deg)
	)`,
	`CREATE TABLE IF NOT EXISTS block_constraints (
		id BIGINT PRIMARY KEY,
		has_time BOOLEAN NOT NULL,
		start_mjd DOUBLE NOT NULL DEFAULT 0,
		stop_mjd DOUBLE NOT NULL DEFAULT 0,
		altitude_id BIGINT,
		azimuth_id BIGINT,
		UNIQUE (has_time, start_mjd, stop_mjd, altitude_id, azimuth_id)
	)`,
	`CREATE TABLE IF NOT EXISTS blocks (
		id BIGINT PRIMARY KEY,
		schedule_id BIGINT NOT NULL,
		original_id TEXT,
		target_id BIGINT NOT NULL,
		constraints_id BIGINT NOT NULL,
		priority DOUBLE NOT NULL,
		min_observation_sec BIGINT NOT NULL,
		requested_duration_sec BIGINT NOT NULL,
		visibility_periods_json TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_block_associations (
		schedule_id BIGINT NOT NULL,
		block_id BIGINT NOT NULL,
		scheduled_start_mjd DOUBLE,
		scheduled_stop_mjd DOUBLE,
		PRIMARY KEY (schedule_id, block_id)
	)`,
	`CREATE TABLE IF NOT EXISTS block_analytics (
		schedule_id BIGINT NOT NULL,
		block_id BIGINT NOT NULL,
		original_id TEXT,
		target_ra_deg DOUBLE NOT NULL,
		target_dec_deg DOUBLE NOT NULL,
		priority DOUBLE NOT NULL,
		priority_bucket INTEGER NOT NULL,
		alt_min_deg DOUBLE,
		alt_max_deg DOUBLE,
		az_min_deg DOUBLE,
		az_max_deg DOUBLE,
		is_scheduled BOOLEAN NOT NULL,
		scheduled_start_mjd DOUBLE,
		scheduled_stop_mjd DOUBLE,
		total_visibility_hours DOUBLE NOT NULL,
		visibility_period_count INTEGER NOT NULL,
		validation_impossible BOOLEAN NOT NULL,
		requested_hours DOUBLE NOT NULL,
		elevation_range_deg DOUBLE,
		scheduled_duration_sec DOUBLE,
		is_impossible BOOLEAN NOT NULL,
		PRIMARY KEY (schedule_id, block_id)
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_summaries (
		schedule_id BIGINT PRIMARY KEY,
		total_blocks INTEGER NOT NULL,
		scheduled_blocks INTEGER NOT NULL,
		unscheduled_blocks INTEGER NOT NULL,
		impossible_blocks INTEGER NOT NULL,
		scheduling_rate DOUBLE NOT NULL,
		priority_overall_json TEXT NOT NULL,
		priority_scheduled_json TEXT NOT NULL,
		priority_unscheduled_json TEXT NOT NULL,
		visibility_total_hours DOUBLE NOT NULL,
		visibility_mean_hours DOUBLE NOT NULL,
		requested_total_hours DOUBLE NOT NULL,
		requested_mean_hours DOUBLE NOT NULL,
		scheduled_total_hours DOUBLE NOT NULL,
		scheduled_mean_hours DOUBLE NOT NULL,
		ra_min_deg DOUBLE NOT NULL,
		ra_max_deg DOUBLE NOT NULL,
		dec_min_deg DOUBLE NOT NULL,
		dec_max_deg DOUBLE NOT NULL,
		scheduled_time_range_json TEXT,
		corr_priority_visibility DOUBLE,
		corr_priority_requested DOUBLE,
		corr_visibility_requested DOUBLE,
		corr_priority_elevation_range DOUBLE
	)`,
	`CREATE TABLE IF NOT EXISTS priority_rate_bins (
		schedule_id BIGINT NOT NULL,
		priority_rounded INTEGER NOT NULL,
		count INTEGER NOT NULL,
		scheduled_count INTEGER NOT NULL,
		scheduling_rate DOUBLE NOT NULL,
		PRIMARY KEY (schedule_id, priority_rounded)
	)`,
	`CREATE TABLE IF NOT EXISTS visibility_trend_bins (
		schedule_id BIGINT NOT NULL,
		bin_index INTEGER NOT NULL,
		midpoint DOUBLE NOT NULL,
		scheduled_rate DOUBLE NOT NULL,
		count INTEGER NOT NULL,
		mean_priority DOUBLE NOT NULL,
		PRIMARY KEY (schedule_id, bin_index)
	)`,
	`CREATE TABLE IF NOT EXISTS heatmap_bins (
		schedule_id BIGINT NOT NULL,
		bin_x_index INTEGER NOT NULL,
		bin_y_index INTEGER NOT NULL,
		mid_x DOUBLE NOT NULL,
		mid_y DOUBLE NOT NULL,
		scheduled_rate DOUBLE NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (schedule_id, bin_x_index, bin_y_index)
	)`,
	`CREATE TABLE IF NOT EXISTS visibility_time_bins (
		schedule_id BIGINT NOT NULL,
		bin_start_unix DOUBLE NOT NULL,
		bin_end_unix DOUBLE NOT NULL,
		total_visible_count INTEGER NOT NULL,
		q1_count INTEGER NOT NULL,
		q2_count INTEGER NOT NULL,
		q3_count INTEGER NOT NULL,
		q4_count INTEGER NOT NULL,
		scheduled_count INTEGER NOT NULL,
		unscheduled_count INTEGER NOT NULL,
		block_ids_json TEXT NOT NULL,
		PRIMARY KEY (schedule_id, bin_start_unix)
	)`,
	`CREATE TABLE IF NOT EXISTS conflict_records (
		schedule_id BIGINT NOT NULL,
		block_a_id BIGINT NOT NULL,
		block_b_id BIGINT NOT NULL,
		overlap_hours DOUBLE NOT NULL,
		PRIMARY KEY (schedule_id, block_a_id, block_b_id)
	)`,
	`CREATE TABLE IF NOT EXISTS validation_results (
		id BIGINT PRIMARY KEY,
		schedule_id BIGINT NOT NULL,
		block_id BIGINT NOT NULL,
		rule TEXT NOT NULL,
		status TEXT NOT NULL,
		category TEXT NOT NULL,
		criticality TEXT NOT NULL,
		field TEXT NOT NULL,
		current_value TEXT NOT NULL,
		expected_value TEXT NOT NULL,
		description TEXT NOT NULL
	)`,
}

// Package duckrepo is the DuckDB-backed Repository implementation used in
// production deployments. It mirrors memrepo's contract exactly, trading
// the in-memory maps for SQL tables and sync.RWMutex for real transactions.
package duckrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

// Repository is a DuckDB-backed implementation of repository.Repository.
type Repository struct {
	conn *sql.DB
}

// Open opens (creating if absent) a DuckDB database at path and ensures its
// schema exists. path may be ":memory:" for an ephemeral instance.
func Open(path string) (*Repository, error) {
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	r := &Repository{conn: conn}
	if err := r.createSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, stmt := range schemaStatements {
		if _, err := r.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (r *Repository) Close() error {
	return r.conn.Close()
}

var _ repository.Repository = (*Repository)(nil)

func nextID(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var id int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(id), 0) + 1 FROM %s", table)
	if err := tx.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("next id for %s: %w", table, err)
	}
	return id, nil
}

func marshalPeriods(periods []models.Period) (string, error) {
	if periods == nil {
		periods = []models.Period{}
	}
	b, err := json.Marshal(periods)
	if err != nil {
		return "", fmt.Errorf("marshal periods: %w", err)
	}
	return string(b), nil
}

func unmarshalPeriods(s string) ([]models.Period, error) {
	if s == "" {
		return nil, nil
	}
	var periods []models.Period
	if err := json.Unmarshal([]byte(s), &periods); err != nil {
		return nil, fmt.Errorf("unmarshal periods: %w", err)
	}
	return periods, nil
}

func marshalInt64s(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal ids: %w", err)
	}
	return string(b), nil
}

func unmarshalInt64s(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal ids: %w", err)
	}
	return ids, nil
}

// IngestSchedule implements repository.Repository.
func (r *Repository) IngestSchedule(ctx context.Context, in repository.IngestInput) (repository.IngestOutput, error) {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return repository.IngestOutput{}, fmt.Errorf("begin ingest tx: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM schedules WHERE checksum = ?`, in.Checksum).Scan(&existing)
	if err == nil {
		return repository.IngestOutput{}, apierr.New(apierr.KindDuplicateSchedule,
			"a schedule with this checksum already exists")
	}
	if err != sql.ErrNoRows {
		return repository.IngestOutput{}, fmt.Errorf("checksum lookup: %w", err)
	}

	scheduleID, err := nextID(ctx, tx, "schedules")
	if err != nil {
		return repository.IngestOutput{}, err
	}

	darkJSON, err := marshalPeriods(in.DarkPeriods)
	if err != nil {
		return repository.IngestOutput{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedules (id, name, observer_lat, observer_lon, observer_elevation_m,
			schedule_start_mjd, schedule_stop_mjd, dark_periods_json, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scheduleID, in.Name, in.ObserverLocation.LatitudeDeg, in.ObserverLocation.LongitudeDeg,
		in.ObserverLocation.ElevationM, in.SchedulePeriod.Start, in.SchedulePeriod.Stop,
		darkJSON, in.Checksum, time.Now().UTC())
	if err != nil {
		return repository.IngestOutput{}, fmt.Errorf("insert schedule: %w", err)
	}

	for _, b := range in.Blocks {
		targetID, err := upsertTarget(ctx, tx, b.Target)
		if err != nil {
			return repository.IngestOutput{}, err
		}
		var altitudeID *int64
		if b.Altitude != nil {
			id, err := upsertAltitude(ctx, tx, *b.Altitude)
			if err != nil {
				return repository.IngestOutput{}, err
			}
			altitudeID = &id
		}
		var azimuthID *int64
		if b.Azimuth != nil {
			id, err := upsertAzimuth(ctx, tx, *b.Azimuth)
			if err != nil {
				return repository.IngestOutput{}, err
			}
			azimuthID = &id
		}
		constraintsValue := b.Constraints
		constraintsValue.AltitudeID = altitudeID
		constraintsValue.AzimuthID = azimuthID
		constraintsID, err := upsertConstraints(ctx, tx, constraintsValue)
		if err != nil {
			return repository.IngestOutput{}, err
		}

		blockID, err := nextID(ctx, tx, "blocks")
		if err != nil {
			return repository.IngestOutput{}, err
		}
		visJSON, err := marshalPeriods(b.VisibilityPeriods)
		if err != nil {
			return repository.IngestOutput{}, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO blocks (id, schedule_id, original_id, target_id, constraints_id,
				priority, min_observation_sec, requested_duration_sec, visibility_periods_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			blockID, scheduleID, b.OriginalID, targetID, constraintsID,
			b.Priority, b.MinObservationSec, b.RequestedDurationSec, visJSON)
		if err != nil {
			return repository.IngestOutput{}, fmt.Errorf("insert block: %w", err)
		}

		var startMJD, stopMJD *float64
		if b.ScheduledPeriod != nil {
			start, stop := b.ScheduledPeriod.Start, b.ScheduledPeriod.Stop
			startMJD, stopMJD = &start, &stop
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO schedule_block_associations (schedule_id, block_id, scheduled_start_mjd, scheduled_stop_mjd)
			VALUES (?, ?, ?, ?)`, scheduleID, blockID, startMJD, stopMJD)
		if err != nil {
			return repository.IngestOutput{}, fmt.Errorf("insert association: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return repository.IngestOutput{}, fmt.Errorf("commit ingest tx: %w", err)
	}
	return repository.IngestOutput{ScheduleID: scheduleID, Checksum: in.Checksum}, nil
}

func upsertTarget(ctx context.Context, tx *sql.Tx, t models.Target) (int64, error) {
	key := t.NaturalKey()
	var id int64
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM targets WHERE ra_deg = ? AND dec_deg = ? AND ra_pm_masyr = ? AND dec_pm_masyr = ? AND equinox = ?`,
		key.RADeg, key.DecDeg, key.RAPMMasYr, key.DecPMMasYr, key.Equinox).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup target: %w", err)
	}
	id, err = nextID(ctx, tx, "targets")
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO targets (id, name, ra_deg, dec_deg, ra_pm_masyr, dec_pm_masyr, equinox)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, t.Name, key.RADeg, key.DecDeg, key.RAPMMasYr, key.DecPMMasYr, key.Equinox)
	if err != nil {
		return 0, fmt.Errorf("insert target: %w", err)
	}
	return id, nil
}

func upsertAltitude(ctx context.Context, tx *sql.Tx, a models.AltitudeConstraint) (int64, error) {
	key := a.NaturalKey()
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM altitude_constraints WHERE min_alt_deg = ? AND max_alt_deg = ?`,
		key[0], key[1]).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup altitude constraint: %w", err)
	}
	id, err = nextID(ctx, tx, "altitude_constraints")
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO altitude_constraints (id, min_alt_deg, max_alt_deg) VALUES (?, ?, ?)`,
		id, key[0], key[1])
	if err != nil {
		return 0, fmt.Errorf("insert altitude constraint: %w", err)
	}
	return id, nil
}

func upsertAzimuth(ctx context.Context, tx *sql.Tx, a models.AzimuthConstraint) (int64, error) {
	key := a.NaturalKey()
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM azimuth_constraints WHERE min_az_deg = ? AND max_az_deg = ?`,
		key[0], key[1]).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup azimuth constraint: %w", err)
	}
	id, err = nextID(ctx, tx, "azimuth_constraints")
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO azimuth_constraints (id, min_az_deg, max_az_deg) VALUES (?, ?, ?)`,
		id, key[0], key[1])
	if err != nil {
		return 0, fmt.Errorf("insert azimuth constraint: %w", err)
	}
	return id, nil
}

func upsertConstraints(ctx context.Context, tx *sql.Tx, c models.Constraints) (int64, error) {
	key := c.NaturalKey()
	var id int64
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM block_constraints WHERE has_time = ? AND start_mjd = ? AND stop_mjd = ?
			AND altitude_id IS NOT DISTINCT FROM ? AND azimuth_id IS NOT DISTINCT FROM ?`,
		key.HasTime, key.StartMJD, key.StopMJD, c.AltitudeID, c.AzimuthID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup constraints: %w", err)
	}
	id, err = nextID(ctx, tx, "block_constraints")
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO block_constraints (id, has_time, start_mjd, stop_mjd, altitude_id, azimuth_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, key.HasTime, key.StartMJD, key.StopMJD, c.AltitudeID, c.AzimuthID)
	if err != nil {
		return 0, fmt.Errorf("insert constraints: %w", err)
	}
	return id, nil
}

// GetSchedule implements repository.Repository.
func (r *Repository) GetSchedule(ctx context.Context, scheduleID int64) (models.Schedule, error) {
	var s models.Schedule
	var elevation sql.NullFloat64
	var darkJSON string
	err := r.conn.QueryRowContext(ctx, `
		SELECT id, name, observer_lat, observer_lon, observer_elevation_m,
			schedule_start_mjd, schedule_stop_mjd, dark_periods_json, checksum, created_at
		FROM schedules WHERE id = ?`, scheduleID).Scan(
		&s.ID, &s.Name, &s.ObserverLoc.LatitudeDeg, &s.ObserverLoc.LongitudeDeg, &elevation,
		&s.SchedulePeriod.Start, &s.SchedulePeriod.Stop, &darkJSON, &s.Checksum, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Schedule{}, apierr.New(apierr.KindScheduleNotFound, "schedule not found")
	}
	if err != nil {
		return models.Schedule{}, fmt.Errorf("get schedule: %w", err)
	}
	if elevation.Valid {
		v := elevation.Float64
		s.ObserverLoc.ElevationM = &v
	}
	s.DarkPeriods, err = unmarshalPeriods(darkJSON)
	if err != nil {
		return models.Schedule{}, err
	}
	return s, nil
}

// GetScheduleByChecksum implements repository.Repository.
func (r *Repository) GetScheduleByChecksum(ctx context.Context, checksum string) (models.Schedule, bool, error) {
	var id int64
	err := r.conn.QueryRowContext(ctx, `SELECT id FROM schedules WHERE checksum = ?`, checksum).Scan(&id)
	if err == sql.ErrNoRows {
		return models.Schedule{}, false, nil
	}
	if err != nil {
		return models.Schedule{}, false, fmt.Errorf("lookup checksum: %w", err)
	}
	s, err := r.GetSchedule(ctx, id)
	if err != nil {
		return models.Schedule{}, false, err
	}
	return s, true, nil
}

// ListSchedules implements repository.Repository.
func (r *Repository) ListSchedules(ctx context.Context) ([]repository.ScheduleListItem, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT id, name FROM schedules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var out []repository.ScheduleListItem
	for rows.Next() {
		var item repository.ScheduleListItem
		if err := rows.Scan(&item.ID, &item.Name); err != nil {
			return nil, fmt.Errorf("scan schedule list item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// DeleteSchedule implements repository.Repository, cascading to every
// dependent row owned exclusively by the schedule.
func (r *Repository) DeleteSchedule(ctx context.Context, scheduleID int64) error {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, scheduleID)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apierr.New(apierr.KindScheduleNotFound, "schedule not found")
	}

	tables := []string{
		"blocks", "schedule_block_associations", "block_analytics", "schedule_summaries",
		"priority_rate_bins", "visibility_trend_bins", "heatmap_bins", "visibility_time_bins",
		"conflict_records", "validation_results",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE schedule_id = ?", table), scheduleID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// ListBlockDetails implements repository.Repository.
func (r *Repository) ListBlockDetails(ctx context.Context, scheduleID int64) ([]repository.BlockDetail, error) {
	if _, err := r.GetSchedule(ctx, scheduleID); err != nil {
		return nil, err
	}

	rows, err := r.conn.QueryContext(ctx, `
		SELECT b.id, b.original_id, b.target_id, b.constraints_id, b.priority,
			b.min_observation_sec, b.requested_duration_sec, b.visibility_periods_json,
			t.name, t.ra_deg, t.dec_deg, t.ra_pm_masyr, t.dec_pm_masyr, t.equinox,
			c.has_time, c.start_mjd, c.stop_mjd, c.altitude_id, c.azimuth_id,
			a.scheduled_start_mjd, a.scheduled_stop_mjd
		FROM blocks b
		JOIN targets t ON t.id = b.target_id
		JOIN block_constraints c ON c.id = b.constraints_id
		JOIN schedule_block_associations a ON a.schedule_id = b.schedule_id AND a.block_id = b.id
		WHERE b.schedule_id = ?
		ORDER BY b.id`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list block details: %w", err)
	}
	defer rows.Close()

	var out []repository.BlockDetail
	for rows.Next() {
		var d repository.BlockDetail
		var visJSON string
		var raPM, decPM float64
		var equinox string
		var hasTime bool
		var startMJD, stopMJD float64
		var altitudeID, azimuthID sql.NullInt64
		var schedStart, schedStop sql.NullFloat64

		if err := rows.Scan(&d.Block.ID, &d.Block.OriginalID, &d.Block.TargetID, &d.Block.ConstraintsID,
			&d.Block.Priority, &d.Block.MinObservationSec, &d.Block.RequestedDurationSec, &visJSON,
			&d.Target.Name, &d.Target.RADeg, &d.Target.DecDeg, &raPM, &decPM, &equinox,
			&hasTime, &startMJD, &stopMJD, &altitudeID, &azimuthID,
			&schedStart, &schedStop); err != nil {
			return nil, fmt.Errorf("scan block detail: %w", err)
		}

		d.Block.VisibilityPeriods, err = unmarshalPeriods(visJSON)
		if err != nil {
			return nil, err
		}
		d.Target.ID = d.Block.TargetID
		if raPM != 0 {
			d.Target.RAPMMasYr = &raPM
		}
		if decPM != 0 {
			d.Target.DecPMMasYr = &decPM
		}
		if equinox != "" {
			d.Target.Equinox = &equinox
		}

		d.Constraints.ID = d.Block.ConstraintsID
		if hasTime {
			d.Constraints.StartMJD = &startMJD
			d.Constraints.StopMJD = &stopMJD
		}
		if altitudeID.Valid {
			d.Constraints.AltitudeID = &altitudeID.Int64
			alt, err := r.getAltitude(ctx, altitudeID.Int64)
			if err != nil {
				return nil, err
			}
			d.Altitude = &alt
		}
		if azimuthID.Valid {
			d.Constraints.AzimuthID = &azimuthID.Int64
			az, err := r.getAzimuth(ctx, azimuthID.Int64)
			if err != nil {
				return nil, err
			}
			d.Azimuth = &az
		}

		d.Association = models.ScheduleBlockAssociation{ScheduleID: scheduleID, BlockID: d.Block.ID}
		if schedStart.Valid && schedStop.Valid {
			d.Association.ScheduledStartMJD = &schedStart.Float64
			d.Association.ScheduledStopMJD = &schedStop.Float64
		}

		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) getAltitude(ctx context.Context, id int64) (models.AltitudeConstraint, error) {
	var a models.AltitudeConstraint
	a.ID = id
	err := r.conn.QueryRowContext(ctx, `SELECT min_alt_deg, max_alt_deg FROM altitude_constraints WHERE id = ?`, id).
		Scan(&a.MinAltDeg, &a.MaxAltDeg)
	if err != nil {
		return models.AltitudeConstraint{}, fmt.Errorf("get altitude constraint: %w", err)
	}
	return a, nil
}

func (r *Repository) getAzimuth(ctx context.Context, id int64) (models.AzimuthConstraint, error) {
	var a models.AzimuthConstraint
	a.ID = id
	err := r.conn.QueryRowContext(ctx, `SELECT min_az_deg, max_az_deg FROM azimuth_constraints WHERE id = ?`, id).
		Scan(&a.MinAzDeg, &a.MaxAzDeg)
	if err != nil {
		return models.AzimuthConstraint{}, fmt.Errorf("get azimuth constraint: %w", err)
	}
	return a, nil
}

// GetDarkPeriods implements repository.Repository.
func (r *Repository) GetDarkPeriods(ctx context.Context, scheduleID int64) ([]models.Period, error) {
	s, err := r.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	return s.DarkPeriods, nil
}

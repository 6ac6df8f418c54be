// Package memrepo is the in-memory Repository implementation used for
// development and tests. It protects its state with a single exclusive
// write lock and shared read locks.
package memrepo

import (
	"context"
	"sync"
	"time"

	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

// Repository is an in-memory implementation of repository.Repository.
type Repository struct {
	mu sync.RWMutex

	nextScheduleID    int64
	nextTargetID      int64
	nextAltitudeID    int64
	nextAzimuthID     int64
	nextConstraintsID int64
	nextBlockID       int64
	nextValidationID  int64

	schedules   map[int64]models.Schedule
	checksums   map[string]int64
	darkPeriods map[int64][]models.Period

	targets     map[int64]models.Target
	targetIndex map[models.TargetKey]int64

	altitudes     map[int64]models.AltitudeConstraint
	altitudeIndex map[[2]float64]int64

	azimuths     map[int64]models.AzimuthConstraint
	azimuthIndex map[[2]float64]int64

	constraints     map[int64]models.Constraints
	constraintsIndex map[models.ConstraintsKey]int64

	blocks           map[int64]models.SchedulingBlock
	blocksBySchedule map[int64][]int64

	associations map[int64]map[int64]models.ScheduleBlockAssociation

	analytics  map[int64]repository.AnalyticsProjection
	validation map[int64][]models.ValidationResult
}

// New returns an empty in-memory repository.
func New() *Repository {
	return &Repository{
		schedules:        make(map[int64]models.Schedule),
		checksums:        make(map[string]int64),
		darkPeriods:      make(map[int64][]models.Period),
		targets:          make(map[int64]models.Target),
		targetIndex:      make(map[models.TargetKey]int64),
		altitudes:        make(map[int64]models.AltitudeConstraint),
		altitudeIndex:    make(map[[2]float64]int64),
		azimuths:         make(map[int64]models.AzimuthConstraint),
		azimuthIndex:     make(map[[2]float64]int64),
		constraints:      make(map[int64]models.Constraints),
		constraintsIndex: make(map[models.ConstraintsKey]int64),
		blocks:           make(map[int64]models.SchedulingBlock),
		blocksBySchedule: make(map[int64][]int64),
		associations:     make(map[int64]map[int64]models.ScheduleBlockAssociation),
		analytics:        make(map[int64]repository.AnalyticsProjection),
		validation:       make(map[int64][]models.ValidationResult),
	}
}

var _ repository.Repository = (*Repository)(nil)

// IngestSchedule implements repository.Repository.
func (r *Repository) IngestSchedule(_ context.Context, in repository.IngestInput) (repository.IngestOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.checksums[in.Checksum]; ok {
		return repository.IngestOutput{}, apierr.New(apierr.KindDuplicateSchedule,
			"a schedule with this checksum already exists")
	}

	r.nextScheduleID++
	scheduleID := r.nextScheduleID

	r.schedules[scheduleID] = models.Schedule{
		ID:             scheduleID,
		Name:           in.Name,
		ObserverLoc:    in.ObserverLocation,
		SchedulePeriod: in.SchedulePeriod,
		DarkPeriods:    mjd.Merge(in.DarkPeriods),
		Checksum:       in.Checksum,
		CreatedAt:      time.Now().UTC(),
	}
	r.checksums[in.Checksum] = scheduleID
	r.darkPeriods[scheduleID] = mjd.Merge(in.DarkPeriods)

	r.associations[scheduleID] = make(map[int64]models.ScheduleBlockAssociation)

	for _, b := range in.Blocks {
		targetID := r.upsertTarget(b.Target)
		var altitudeID *int64
		if b.Altitude != nil {
			id := r.upsertAltitude(*b.Altitude)
			altitudeID = &id
		}
		var azimuthID *int64
		if b.Azimuth != nil {
			id := r.upsertAzimuth(*b.Azimuth)
			azimuthID = &id
		}
		constraintsValue := b.Constraints
		constraintsValue.AltitudeID = altitudeID
		constraintsValue.AzimuthID = azimuthID
		constraintsID := r.upsertConstraints(constraintsValue)

		r.nextBlockID++
		blockID := r.nextBlockID
		r.blocks[blockID] = models.SchedulingBlock{
			ID:                   blockID,
			OriginalID:           b.OriginalID,
			TargetID:             targetID,
			ConstraintsID:        constraintsID,
			Priority:             b.Priority,
			MinObservationSec:    b.MinObservationSec,
			RequestedDurationSec: b.RequestedDurationSec,
			VisibilityPeriods:    b.VisibilityPeriods,
		}
		r.blocksBySchedule[scheduleID] = append(r.blocksBySchedule[scheduleID], blockID)

		assoc := models.ScheduleBlockAssociation{ScheduleID: scheduleID, BlockID: blockID}
		if b.ScheduledPeriod != nil {
			start, stop := b.ScheduledPeriod.Start, b.ScheduledPeriod.Stop
			assoc.ScheduledStartMJD = &start
			assoc.ScheduledStopMJD = &stop
		}
		r.associations[scheduleID][blockID] = assoc
	}

	return repository.IngestOutput{ScheduleID: scheduleID, Checksum: in.Checksum}, nil
}

func (r *Repository) upsertTarget(t models.Target) int64 {
	key := t.NaturalKey()
	if id, ok := r.targetIndex[key]; ok {
		return id
	}
	r.nextTargetID++
	id := r.nextTargetID
	t.ID = id
	r.targets[id] = t
	r.targetIndex[key] = id
	return id
}

func (r *Repository) upsertAltitude(a models.AltitudeConstraint) int64 {
	key := a.NaturalKey()
	if id, ok := r.altitudeIndex[key]; ok {
		return id
	}
	r.nextAltitudeID++
	id := r.nextAltitudeID
	a.ID = id
	r.altitudes[id] = a
	r.altitudeIndex[key] = id
	return id
}

func (r *Repository) upsertAzimuth(a models.AzimuthConstraint) int64 {
	key := a.NaturalKey()
	if id, ok := r.azimuthIndex[key]; ok {
		return id
	}
	r.nextAzimuthID++
	id := r.nextAzimuthID
	a.ID = id
	r.azimuths[id] = a
	r.azimuthIndex[key] = id
	return id
}

func (r *Repository) upsertConstraints(c models.Constraints) int64 {
	key := c.NaturalKey()
	if id, ok := r.constraintsIndex[key]; ok {
		return id
	}
	r.nextConstraintsID++
	id := r.nextConstraintsID
	c.ID = id
	r.constraints[id] = c
	r.constraintsIndex[key] = id
	return id
}

// GetSchedule implements repository.Repository.
func (r *Repository) GetSchedule(_ context.Context, scheduleID int64) (models.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schedules[scheduleID]
	if !ok {
		return models.Schedule{}, apierr.New(apierr.KindScheduleNotFound, "schedule not found")
	}
	return s, nil
}

// GetScheduleByChecksum implements repository.Repository.
func (r *Repository) GetScheduleByChecksum(_ context.Context, checksum string) (models.Schedule, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.checksums[checksum]
	if !ok {
		return models.Schedule{}, false, nil
	}
	return r.schedules[id], true, nil
}

// ListSchedules implements repository.Repository.
func (r *Repository) ListSchedules(_ context.Context) ([]repository.ScheduleListItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repository.ScheduleListItem, 0, len(r.schedules))
	for id, s := range r.schedules {
		out = append(out, repository.ScheduleListItem{ID: id, Name: s.Name})
	}
	return out, nil
}

// DeleteSchedule implements repository.Repository, cascading to every
// dependent row owned exclusively by the schedule.
func (r *Repository) DeleteSchedule(_ context.Context, scheduleID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[scheduleID]
	if !ok {
		return apierr.New(apierr.KindScheduleNotFound, "schedule not found")
	}
	delete(r.checksums, s.Checksum)
	delete(r.schedules, scheduleID)
	delete(r.darkPeriods, scheduleID)
	for _, blockID := range r.blocksBySchedule[scheduleID] {
		delete(r.blocks, blockID)
	}
	delete(r.blocksBySchedule, scheduleID)
	delete(r.associations, scheduleID)
	delete(r.analytics, scheduleID)
	delete(r.validation, scheduleID)
	return nil
}

// ListBlockDetails implements repository.Repository.
func (r *Repository) ListBlockDetails(_ context.Context, scheduleID int64) ([]repository.BlockDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.schedules[scheduleID]; !ok {
		return nil, apierr.New(apierr.KindScheduleNotFound, "schedule not found")
	}

	var out []repository.BlockDetail
	for _, blockID := range r.blocksBySchedule[scheduleID] {
		block := r.blocks[blockID]
		constraints := r.constraints[block.ConstraintsID]
		detail := repository.BlockDetail{
			Block:       block,
			Target:      r.targets[block.TargetID],
			Constraints: constraints,
			Association: r.associations[scheduleID][blockID],
		}
		if constraints.AltitudeID != nil {
			a := r.altitudes[*constraints.AltitudeID]
			detail.Altitude = &a
		}
		if constraints.AzimuthID != nil {
			a := r.azimuths[*constraints.AzimuthID]
			detail.Azimuth = &a
		}
		out = append(out, detail)
	}
	return out, nil
}

// GetDarkPeriods implements repository.Repository.
func (r *Repository) GetDarkPeriods(_ context.Context, scheduleID int64) ([]models.Period, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.schedules[scheduleID]; !ok {
		return nil, apierr.New(apierr.KindScheduleNotFound, "schedule not found")
	}
	return r.darkPeriods[scheduleID], nil
}

// ReplaceAnalytics implements the ETL's delete-then-insert protocol.
func (r *Repository) ReplaceAnalytics(_ context.Context, scheduleID int64, proj repository.AnalyticsProjection, validation []models.ValidationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[scheduleID]; !ok {
		return apierr.New(apierr.KindScheduleNotFound, "schedule not found")
	}
	delete(r.analytics, scheduleID)
	delete(r.validation, scheduleID)

	r.analytics[scheduleID] = proj

	rows := make([]models.ValidationResult, len(validation))
	copy(rows, validation)
	for i := range rows {
		r.nextValidationID++
		rows[i].ID = r.nextValidationID
		rows[i].ScheduleID = scheduleID
	}
	r.validation[scheduleID] = rows
	return nil
}

// GetAnalytics implements repository.Repository.
func (r *Repository) GetAnalytics(_ context.Context, scheduleID int64) (repository.AnalyticsProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.schedules[scheduleID]; !ok {
		return repository.AnalyticsProjection{}, apierr.New(apierr.KindScheduleNotFound, "schedule not found")
	}
	return r.analytics[scheduleID], nil
}

// GetValidationResults implements repository.Repository.
func (r *Repository) GetValidationResults(_ context.Context, scheduleID int64) ([]models.ValidationResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.schedules[scheduleID]; !ok {
		return nil, apierr.New(apierr.KindScheduleNotFound, "schedule not found")
	}
	return r.validation[scheduleID], nil
}

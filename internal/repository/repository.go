// Package repository defines the storage contract satisfied by two
// interchangeable implementations: memrepo (in-memory, development) and
// duckrepo (DuckDB-backed, production). Callers above this package (ingest,
// analytics, query) never branch on which one is in use.
package repository

import (
	"context"

	"github.com/obsforge/obsforge/internal/models"
)

// BlockInput is everything the normalizer has resolved for one scheduling
// block before persistence: entity values (not yet assigned ids) plus the
// block's own fields. The repository upserts Target/Constraints/Altitude/
// Azimuth by natural key as part of the ingest transaction.
type BlockInput struct {
	OriginalID           *string
	Target               models.Target
	Constraints          models.Constraints
	Altitude             *models.AltitudeConstraint
	Azimuth              *models.AzimuthConstraint
	Priority             float64
	MinObservationSec    int64
	RequestedDurationSec int64
	VisibilityPeriods    []models.Period
	ScheduledPeriod      *models.Period
}

// IngestInput is a fully-parsed, validated schedule document ready to
// persist.
type IngestInput struct {
	Name             string
	ObserverLocation models.Location
	SchedulePeriod   models.Period
	DarkPeriods      []models.Period
	Blocks           []BlockInput
	Checksum         string
}

// IngestOutput is returned on a successful ingest.
type IngestOutput struct {
	ScheduleID int64
	Checksum   string
}

// ScheduleListItem is one row of ListSchedules.
type ScheduleListItem struct {
	ID   int64
	Name string
}

// BlockDetail joins a persisted block with its target and constraint
// entities and its association row, the shape the analytics ETL and the
// validator both need.
type BlockDetail struct {
	Block       models.SchedulingBlock
	Target      models.Target
	Constraints models.Constraints
	Altitude    *models.AltitudeConstraint
	Azimuth     *models.AzimuthConstraint
	Association models.ScheduleBlockAssociation
}

// AnalyticsProjection bundles every row the ETL derives for one schedule,
// persisted and read back atomically as a unit.
type AnalyticsProjection struct {
	Blocks              []models.BlockAnalytics
	Summary             models.ScheduleSummary
	PriorityRateBins    []models.PriorityRateBin
	VisibilityTrendBins []models.VisibilityTrendBin
	HeatmapBins         []models.HeatmapBin
	VisibilityTimeBins  []models.VisibilityTimeBin
	Conflicts           []models.ConflictRecord
}

// Repository is the capability set every backend implements.
type Repository interface {
	// IngestSchedule persists a fully-normalized document in one
	// transaction (relational) or one locked atomic section (in-memory).
	// Fails with apierr.KindDuplicateSchedule if in.Checksum already
	// exists; no partial state is written in that case.
	IngestSchedule(ctx context.Context, in IngestInput) (IngestOutput, error)

	GetSchedule(ctx context.Context, scheduleID int64) (models.Schedule, error)
	GetScheduleByChecksum(ctx context.Context, checksum string) (models.Schedule, bool, error)
	ListSchedules(ctx context.Context) ([]ScheduleListItem, error)
	DeleteSchedule(ctx context.Context, scheduleID int64) error

	ListBlockDetails(ctx context.Context, scheduleID int64) ([]BlockDetail, error)
	GetDarkPeriods(ctx context.Context, scheduleID int64) ([]models.Period, error)

	// ReplaceAnalytics implements the ETL's delete-then-insert protocol:
	// it deletes every analytics/validation row for scheduleID, then
	// inserts proj, atomically.
	ReplaceAnalytics(ctx context.Context, scheduleID int64, proj AnalyticsProjection, validation []models.ValidationResult) error
	GetAnalytics(ctx context.Context, scheduleID int64) (AnalyticsProjection, error)
	GetValidationResults(ctx context.Context, scheduleID int64) ([]models.ValidationResult, error)
}

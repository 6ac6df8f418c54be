// Package models defines the normalized entity graph and the
// denormalized analytics-projection types the ETL (internal/analytics)
// produces and the query engine (internal/query) reads.
package models

import "time"

// Location is an observer's geographic position.
type Location struct {
	LatitudeDeg  float64  `json:"latitude"`
	LongitudeDeg float64  `json:"longitude"`
	ElevationM   *float64 `json:"elevation_m,omitempty"`
}

// Target is a celestial target, deduplicated by natural key
// (ra, dec, pm_ra, pm_dec, equinox).
type Target struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	RADeg       float64  `json:"ra_deg"`
	DecDeg      float64  `json:"dec_deg"`
	RAPMMasYr   *float64 `json:"ra_pm_masyr,omitempty"`
	DecPMMasYr  *float64 `json:"dec_pm_masyr,omitempty"`
	Equinox     *string  `json:"equinox,omitempty"`
}

// NaturalKey returns the dedup key used by the normalizer's target cache.
func (t Target) NaturalKey() TargetKey {
	key := TargetKey{RADeg: t.RADeg, DecDeg: t.DecDeg}
	if t.RAPMMasYr != nil {
		key.RAPMMasYr = *t.RAPMMasYr
	}
	if t.DecPMMasYr != nil {
		key.DecPMMasYr = *t.DecPMMasYr
	}
	if t.Equinox != nil {
		key.Equinox = *t.Equinox
	}
	return key
}

// TargetKey is Target's natural key, comparable so it can be a map key.
type TargetKey struct {
	RADeg, DecDeg, RAPMMasYr, DecPMMasYr float64
	Equinox                              string
}

// AltitudeConstraint bounds horizontal altitude, in degrees, min <= max.
type AltitudeConstraint struct {
	ID        int64   `json:"id"`
	MinAltDeg float64 `json:"min_alt_deg"`
	MaxAltDeg float64 `json:"max_alt_deg"`
}

// NaturalKey is (min, max).
func (a AltitudeConstraint) NaturalKey() [2]float64 { return [2]float64{a.MinAltDeg, a.MaxAltDeg} }

// AzimuthConstraint bounds horizontal azimuth, in degrees. MinAzDeg > MaxAzDeg
// denotes the wrap-around convention: the accepted union is
// [MinAzDeg,360) ∪ [0,MaxAzDeg). In both conventions MinAzDeg is included
// and MaxAzDeg is excluded.
type AzimuthConstraint struct {
	ID       int64   `json:"id"`
	MinAzDeg float64 `json:"min_az_deg"`
	MaxAzDeg float64 `json:"max_az_deg"`
}

// NaturalKey is (min, max).
func (a AzimuthConstraint) NaturalKey() [2]float64 { return [2]float64{a.MinAzDeg, a.MaxAzDeg} }

// Wraps reports whether this constraint uses the wrap-around convention.
func (a AzimuthConstraint) Wraps() bool { return a.MinAzDeg > a.MaxAzDeg }

// Constraints bundles an optional explicit time window with optional
// altitude/azimuth refs. At least one component must be non-nil.
type Constraints struct {
	ID          int64    `json:"id"`
	StartMJD    *float64 `json:"start_mjd,omitempty"`
	StopMJD     *float64 `json:"stop_mjd,omitempty"`
	AltitudeID  *int64   `json:"altitude_id,omitempty"`
	AzimuthID   *int64   `json:"azimuth_id,omitempty"`
}

// NaturalKey identifies a Constraints row by its four components.
type ConstraintsKey struct {
	HasTime            bool
	StartMJD, StopMJD  float64
	AltitudeID         int64
	AzimuthID          int64
}

func (c Constraints) NaturalKey() ConstraintsKey {
	key := ConstraintsKey{}
	if c.StartMJD != nil && c.StopMJD != nil {
		key.HasTime = true
		key.StartMJD, key.StopMJD = *c.StartMJD, *c.StopMJD
	}
	if c.AltitudeID != nil {
		key.AltitudeID = *c.AltitudeID
	}
	if c.AzimuthID != nil {
		key.AzimuthID = *c.AzimuthID
	}
	return key
}

// Period is a half-open MJD interval [Start, Stop).
type Period struct {
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
}

// SchedulingBlock is a candidate observation request.
type SchedulingBlock struct {
	ID                   int64    `json:"id"`
	OriginalID           *string  `json:"original_id,omitempty"`
	TargetID             int64    `json:"target_id"`
	ConstraintsID        int64    `json:"constraints_id"`
	Priority             float64  `json:"priority"`
	MinObservationSec    int64    `json:"min_observation_sec"`
	RequestedDurationSec int64    `json:"requested_duration_sec"`
	VisibilityPeriods    []Period `json:"visibility_periods"`
}

// ScheduleBlockAssociation is the (schedule, block) placement row.
type ScheduleBlockAssociation struct {
	ScheduleID        int64    `json:"schedule_id"`
	BlockID           int64    `json:"block_id"`
	ScheduledStartMJD *float64 `json:"scheduled_start_mjd,omitempty"`
	ScheduledStopMJD  *float64 `json:"scheduled_stop_mjd,omitempty"`
}

// IsScheduled reports whether this association carries a placement.
func (a ScheduleBlockAssociation) IsScheduled() bool {
	return a.ScheduledStartMJD != nil && a.ScheduledStopMJD != nil
}

// Schedule is the top-level, immutable-after-creation aggregate.
type Schedule struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	ObserverLoc    Location  `json:"observer_location"`
	SchedulePeriod Period    `json:"schedule_period"`
	DarkPeriods    []Period  `json:"dark_periods"`
	Checksum       string    `json:"checksum"`
	CreatedAt      time.Time `json:"created_at"`
}

// BlockAnalytics is the denormalized, per-(schedule,block) analytics row
// produced by the ETL.
type BlockAnalytics struct {
	ScheduleID            int64    `json:"schedule_id"`
	BlockID               int64    `json:"block_id"`
	OriginalID            *string  `json:"original_id,omitempty"`
	TargetRADeg           float64  `json:"target_ra_deg"`
	TargetDecDeg          float64  `json:"target_dec_deg"`
	Priority              float64  `json:"priority"`
	PriorityBucket        int      `json:"priority_bucket"`
	AltMinDeg             *float64 `json:"alt_min_deg,omitempty"`
	AltMaxDeg             *float64 `json:"alt_max_deg,omitempty"`
	AzMinDeg              *float64 `json:"az_min_deg,omitempty"`
	AzMaxDeg              *float64 `json:"az_max_deg,omitempty"`
	IsScheduled           bool     `json:"is_scheduled"`
	ScheduledStartMJD     *float64 `json:"scheduled_start_mjd,omitempty"`
	ScheduledStopMJD      *float64 `json:"scheduled_stop_mjd,omitempty"`
	TotalVisibilityHours  float64  `json:"total_visibility_hours"`
	VisibilityPeriodCount int      `json:"visibility_period_count"`
	ValidationImpossible  bool     `json:"validation_impossible"`

	// Derived fields, computed from the base fields above rather than stored independently.
	RequestedHours      float64  `json:"requested_hours"`
	ElevationRangeDeg    *float64 `json:"elevation_range_deg,omitempty"`
	ScheduledDurationSec *float64 `json:"scheduled_duration_sec,omitempty"`
	IsImpossible         bool     `json:"is_impossible"`
}

// ValidationResult is one detected issue from the domain rule catalog.
type ValidationResult struct {
	ID            int64  `json:"id"`
	ScheduleID    int64  `json:"schedule_id"`
	BlockID       int64  `json:"block_id"`
	Rule          string `json:"rule"`
	Status        string `json:"status"` // valid | impossible | error | warning
	Category      string `json:"category"`
	Criticality   string `json:"criticality"` // Critical | High | Medium | Low
	Field         string `json:"field"`
	CurrentValue  string `json:"current_value"`
	ExpectedValue string `json:"expected_value"`
	Description   string `json:"description"`
}

// Stats bundles the min/max/mean/median/std summary the ETL computes
// for priority, visibility, and requested-hours distributions.
type Stats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// ScheduleSummary is the per-schedule aggregate row.
type ScheduleSummary struct {
	ScheduleID int64 `json:"schedule_id"`

	TotalBlocks       int     `json:"total_blocks"`
	ScheduledBlocks   int     `json:"scheduled_blocks"`
	UnscheduledBlocks int     `json:"unscheduled_blocks"`
	ImpossibleBlocks  int     `json:"impossible_blocks"`
	SchedulingRate    float64 `json:"scheduling_rate"`

	PriorityOverall     Stats `json:"priority_overall"`
	PriorityScheduled   Stats `json:"priority_scheduled"`
	PriorityUnscheduled Stats `json:"priority_unscheduled"`

	VisibilityTotalHours float64 `json:"visibility_total_hours"`
	VisibilityMeanHours  float64 `json:"visibility_mean_hours"`
	RequestedTotalHours  float64 `json:"requested_total_hours"`
	RequestedMeanHours   float64 `json:"requested_mean_hours"`
	ScheduledTotalHours  float64 `json:"scheduled_total_hours"`
	ScheduledMeanHours   float64 `json:"scheduled_mean_hours"`

	RAMinDeg  float64 `json:"ra_min_deg"`
	RAMaxDeg  float64 `json:"ra_max_deg"`
	DecMinDeg float64 `json:"dec_min_deg"`
	DecMaxDeg float64 `json:"dec_max_deg"`

	ScheduledTimeRange *Period `json:"scheduled_time_range,omitempty"`

	CorrPriorityVisibility     *float64 `json:"corr_priority_visibility,omitempty"`
	CorrPriorityRequested      *float64 `json:"corr_priority_requested,omitempty"`
	CorrVisibilityRequested    *float64 `json:"corr_visibility_requested,omitempty"`
	CorrPriorityElevationRange *float64 `json:"corr_priority_elevation_range,omitempty"`
}

// PriorityRateBin groups blocks by integer-rounded priority.
type PriorityRateBin struct {
	ScheduleID      int64   `json:"schedule_id"`
	PriorityRounded int     `json:"priority_rounded"`
	Count           int     `json:"count"`
	ScheduledCount  int     `json:"scheduled_count"`
	SchedulingRate  float64 `json:"scheduling_rate"`
}

// VisibilityTrendBin is one of the N equal-width visibility bins.
type VisibilityTrendBin struct {
	ScheduleID     int64   `json:"schedule_id"`
	BinIndex       int     `json:"bin_index"`
	Midpoint       float64 `json:"midpoint"`
	ScheduledRate  float64 `json:"scheduled_rate"`
	Count          int     `json:"count"`
	MeanPriority   float64 `json:"mean_priority"`
}

// HeatmapBin is one non-empty cell of the visibility×requested-hours 2-D
// histogram.
type HeatmapBin struct {
	ScheduleID    int64   `json:"schedule_id"`
	BinXIndex     int     `json:"bin_x_index"`
	BinYIndex     int     `json:"bin_y_index"`
	MidX          float64 `json:"mid_x"`
	MidY          float64 `json:"mid_y"`
	ScheduledRate float64 `json:"scheduled_rate"`
	Count         int     `json:"count"`
}

// VisibilityTimeBin is one fixed-width (default 15 minute) bin of the
// schedule's overall time range.
type VisibilityTimeBin struct {
	ScheduleID        int64   `json:"schedule_id"`
	BinStartUnix      float64 `json:"bin_start_unix"`
	BinEndUnix        float64 `json:"bin_end_unix"`
	TotalVisibleCount int     `json:"total_visible_count"`
	Q1Count           int     `json:"q1_count"`
	Q2Count           int     `json:"q2_count"`
	Q3Count           int     `json:"q3_count"`
	Q4Count           int     `json:"q4_count"`
	ScheduledCount    int     `json:"scheduled_count"`
	UnscheduledCount  int     `json:"unscheduled_count"`
	BlockIDs          []int64 `json:"block_ids"`
}

// ConflictRecord is a pair of scheduled placements within a schedule whose
// intervals overlap. The scheduler never produces these;
// externally supplied assignments might.
type ConflictRecord struct {
	ScheduleID   int64   `json:"schedule_id"`
	BlockAID     int64   `json:"block_a_id"`
	BlockBID     int64   `json:"block_b_id"`
	OverlapHours float64 `json:"overlap_hours"`
}

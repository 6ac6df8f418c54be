// Package ingest parses a schedule document, deduplicates its entities,
// computes visibility windows and placements where the document omits them,
// and persists the normalized graph.
package ingest

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/obsforge/obsforge/internal/apierr"
)

// Document is the wire shape of an ingestion request: a schedule plus its
// candidate scheduling blocks.
type Document struct {
	Name             string      `json:"name" validate:"required"`
	ObserverLocation LocationDoc `json:"observer_location" validate:"required"`
	SchedulePeriod   PeriodDoc   `json:"schedule_period" validate:"required"`
	DarkPeriods      []PeriodDoc `json:"dark_periods"`
	// An empty array is valid: ingestion succeeds with no blocks, and every
	// downstream analytics row and query result is simply empty.
	SchedulingBlocks []BlockDoc `json:"scheduling_blocks" validate:"dive"`
}

// LocationDoc is the observer's geographic position.
type LocationDoc struct {
	Latitude   float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64  `json:"longitude" validate:"gte=-180,lte=180"`
	ElevationM *float64 `json:"elevation_m,omitempty"`
}

// PeriodDoc is a half-open MJD interval as it appears on the wire.
type PeriodDoc struct {
	Start float64 `json:"start" validate:"ltfield=Stop"`
	Stop  float64 `json:"stop"`
}

// TargetDoc is a celestial target as it appears on the wire.
type TargetDoc struct {
	Name       string   `json:"name"`
	RADeg      float64  `json:"ra_deg" validate:"gte=0,lt=360"`
	DecDeg     float64  `json:"dec_deg" validate:"gte=-90,lte=90"`
	RAPMMasYr  *float64 `json:"ra_pm_masyr,omitempty"`
	DecPMMasYr *float64 `json:"dec_pm_masyr,omitempty"`
	Equinox    *string  `json:"equinox,omitempty"`
}

// ConstraintsDoc bundles an optional explicit time window with optional
// altitude/azimuth bounds. At least one field must be set; checked in Parse
// since validator's struct tags can't express "at least one of six" cleanly.
type ConstraintsDoc struct {
	Start  *float64 `json:"start,omitempty"`
	Stop   *float64 `json:"stop,omitempty"`
	MinAlt *float64 `json:"min_alt,omitempty"`
	MaxAlt *float64 `json:"max_alt,omitempty"`
	MinAz  *float64 `json:"min_az,omitempty"`
	MaxAz  *float64 `json:"max_az,omitempty"`
}

func (c ConstraintsDoc) empty() bool {
	return c.Start == nil && c.Stop == nil && c.MinAlt == nil && c.MaxAlt == nil && c.MinAz == nil && c.MaxAz == nil
}

// BlockDoc is one candidate observation request as it appears on the wire.
type BlockDoc struct {
	OriginalID           *string        `json:"original_id,omitempty"`
	Target               TargetDoc      `json:"target" validate:"required"`
	Priority             float64        `json:"priority"`
	MinObservationSec    int64          `json:"min_observation_sec" validate:"gte=0"`
	RequestedDurationSec int64          `json:"requested_duration_sec" validate:"gtefield=MinObservationSec"`
	Constraints          ConstraintsDoc `json:"constraints"`
	VisibilityPeriods    []PeriodDoc    `json:"visibility_periods,omitempty"`
	ScheduledPeriod      *PeriodDoc     `json:"scheduled_period,omitempty"`
}

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

func shapeValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInstance = validator.New(validator.WithRequiredStructEnabled())
	})
	return validatorInstance
}

// Parse decodes and shape-validates raw into a Document. It does not touch
// the repository or run any astronomical computation.
func Parse(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, apierr.Wrap(apierr.KindInvalidDocument, "malformed ingestion document", err)
	}

	if err := shapeValidator().Struct(doc); err != nil {
		return Document{}, apierr.Wrap(apierr.KindInvalidDocument, "ingestion document failed shape validation", err)
	}

	for i, b := range doc.SchedulingBlocks {
		if b.Constraints.empty() {
			return Document{}, apierr.New(apierr.KindMissingRequiredField,
				"scheduling block constraints must set at least one field")
		}
		for _, w := range b.VisibilityPeriods {
			if !(w.Start < w.Stop) {
				return Document{}, apierr.New(apierr.KindInvalidRange,
					"scheduling block visibility period must satisfy start < stop")
			}
		}
		if b.ScheduledPeriod != nil && !(b.ScheduledPeriod.Start < b.ScheduledPeriod.Stop) {
			return Document{}, apierr.New(apierr.KindInvalidRange,
				"scheduling block scheduled period must satisfy start < stop")
		}
		_ = i
	}

	return doc, nil
}

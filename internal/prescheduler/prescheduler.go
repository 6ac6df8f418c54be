// Package prescheduler computes each scheduling block's visibility windows
// within a schedule's execution period:
//
//	start_set = { execution_period }
//	minus dark periods
//	intersected with the block's constraint evaluator output
//	intersected with the explicit constraint time window (if present)
//
// If an ingestion document already carries visibility_periods for a block,
// the prescheduler is skipped for that block; its input is authoritative.
package prescheduler

import (
	"github.com/obsforge/obsforge/internal/astro/constraints"
	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/models"
)

// BlockInputs bundles everything the prescheduler needs for one block,
// beyond the schedule-level execution period and dark periods.
type BlockInputs struct {
	Block       models.SchedulingBlock
	Target      models.Target
	Constraints models.Constraints
	Altitude    *models.AltitudeConstraint
	Azimuth     *models.AzimuthConstraint
}

// NeedsComputation reports whether a block's visibility must be computed
// rather than taken as authoritative from the input document.
func NeedsComputation(b models.SchedulingBlock) bool {
	return len(b.VisibilityPeriods) == 0
}

// Compute returns in.Block's visibility windows: sorted by start, coalesced,
// each at least in.Block.MinObservationSec long.
func Compute(loc models.Location, executionPeriod models.Period, darkPeriods []models.Period, in BlockInputs) ([]models.Period, error) {
	free := mjd.Subtract(executionPeriod, darkPeriods)

	var windows []models.Period
	for _, freeSpan := range free {
		spans, err := constraints.Evaluate(in.Target, loc, in.Constraints, in.Altitude, in.Azimuth, freeSpan)
		if err != nil {
			return nil, err
		}
		windows = append(windows, spans...)
	}

	windows = mjd.Merge(windows)

	minDuration := float64(in.Block.MinObservationSec)
	out := windows[:0]
	for _, w := range windows {
		if mjd.DurationSeconds(w) >= minDuration {
			out = append(out, w)
		}
	}
	return out, nil
}

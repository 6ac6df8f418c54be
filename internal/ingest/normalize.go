package ingest

import (
	"context"

	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/prescheduler"
	"github.com/obsforge/obsforge/internal/repository"
	"github.com/obsforge/obsforge/internal/scheduler"
)

func toLocation(d LocationDoc) models.Location {
	return models.Location{LatitudeDeg: d.Latitude, LongitudeDeg: d.Longitude, ElevationM: d.ElevationM}
}

func toPeriod(d PeriodDoc) models.Period { return models.Period{Start: d.Start, Stop: d.Stop} }

func toPeriods(ds []PeriodDoc) []models.Period {
	out := make([]models.Period, len(ds))
	for i, d := range ds {
		out[i] = toPeriod(d)
	}
	return out
}

func toTarget(d TargetDoc) models.Target {
	return models.Target{
		Name:       d.Name,
		RADeg:      d.RADeg,
		DecDeg:     d.DecDeg,
		RAPMMasYr:  d.RAPMMasYr,
		DecPMMasYr: d.DecPMMasYr,
		Equinox:    d.Equinox,
	}
}

// toConstraints splits a wire ConstraintsDoc into the persisted Constraints
// row (time window only; AltitudeID/AzimuthID are filled in by the
// repository once it has assigned ids to the sibling rows) plus the
// altitude/azimuth entities themselves.
func toConstraints(d ConstraintsDoc) (models.Constraints, *models.AltitudeConstraint, *models.AzimuthConstraint) {
	c := models.Constraints{StartMJD: d.Start, StopMJD: d.Stop}

	var alt *models.AltitudeConstraint
	if d.MinAlt != nil && d.MaxAlt != nil {
		alt = &models.AltitudeConstraint{MinAltDeg: *d.MinAlt, MaxAltDeg: *d.MaxAlt}
	}
	var az *models.AzimuthConstraint
	if d.MinAz != nil && d.MaxAz != nil {
		az = &models.AzimuthConstraint{MinAzDeg: *d.MinAz, MaxAzDeg: *d.MaxAz}
	}
	return c, alt, az
}

// Normalize converts a parsed Document into a repository.IngestInput,
// computing any visibility windows the document omitted (via the
// prescheduler) and then, when no block carries a scheduled_period, the
// placements (via the scheduler). If at least one block has a
// scheduled_period, the scheduler does not run and blocks without one stay
// unscheduled.
func Normalize(ctx context.Context, doc Document, schedCfg config.SchedulerConfig) (repository.IngestInput, error) {
	loc := toLocation(doc.ObserverLocation)
	executionPeriod := toPeriod(doc.SchedulePeriod)
	darkPeriods := mjd.Merge(toPeriods(doc.DarkPeriods))

	inputs := make([]repository.BlockInput, len(doc.SchedulingBlocks))
	transientBlocks := make([]models.SchedulingBlock, len(doc.SchedulingBlocks))

	for i, bd := range doc.SchedulingBlocks {
		target := toTarget(bd.Target)
		cons, alt, az := toConstraints(bd.Constraints)

		bi := repository.BlockInput{
			OriginalID:           bd.OriginalID,
			Target:               target,
			Constraints:          cons,
			Altitude:             alt,
			Azimuth:              az,
			Priority:             bd.Priority,
			MinObservationSec:    bd.MinObservationSec,
			RequestedDurationSec: bd.RequestedDurationSec,
		}

		transientID := int64(i + 1)
		visibility := toPeriods(bd.VisibilityPeriods)
		transientBlock := models.SchedulingBlock{
			ID:                   transientID,
			TargetID:             transientID,
			Priority:             bd.Priority,
			MinObservationSec:    bd.MinObservationSec,
			RequestedDurationSec: bd.RequestedDurationSec,
			VisibilityPeriods:    visibility,
		}

		if len(visibility) == 0 {
			computed, err := prescheduler.Compute(loc, executionPeriod, darkPeriods, prescheduler.BlockInputs{
				Block:       transientBlock,
				Target:      target,
				Constraints: cons,
				Altitude:    alt,
				Azimuth:     az,
			})
			if err != nil {
				return repository.IngestInput{}, err
			}
			visibility = computed
			transientBlock.VisibilityPeriods = computed
		}

		bi.VisibilityPeriods = visibility
		if bd.ScheduledPeriod != nil {
			p := toPeriod(*bd.ScheduledPeriod)
			bi.ScheduledPeriod = &p
		}

		inputs[i] = bi
		transientBlocks[i] = transientBlock
	}

	if !anyScheduled(doc.SchedulingBlocks) && len(transientBlocks) > 0 {
		placements, err := runScheduler(ctx, transientBlocks, executionPeriod, darkPeriods, schedCfg)
		if err != nil {
			return repository.IngestInput{}, err
		}
		for _, pl := range placements {
			p := pl.Period
			inputs[pl.BlockID-1].ScheduledPeriod = &p
		}
	}

	return repository.IngestInput{
		Name:             doc.Name,
		ObserverLocation: loc,
		SchedulePeriod:   executionPeriod,
		DarkPeriods:      darkPeriods,
		Blocks:           inputs,
	}, nil
}

func anyScheduled(blocks []BlockDoc) bool {
	for _, b := range blocks {
		if b.ScheduledPeriod != nil {
			return true
		}
	}
	return false
}

func runScheduler(ctx context.Context, blocks []models.SchedulingBlock, executionPeriod models.Period, darkPeriods []models.Period, cfg config.SchedulerConfig) ([]scheduler.Placement, error) {
	if cfg.DefaultAlgorithm == config.AlgorithmHybrid {
		res, err := scheduler.RunHybrid(ctx, blocks, executionPeriod, darkPeriods, scheduler.HybridOptions{
			Seeds:     cfg.DefaultSeeds,
			Reattempt: true,
		})
		if err != nil {
			return nil, err
		}
		return res.Placements, nil
	}

	res, err := scheduler.Accumulative(ctx, blocks, executionPeriod, darkPeriods, scheduler.Options{Reattempt: true})
	if err != nil {
		return nil, err
	}
	return res.Placements, nil
}

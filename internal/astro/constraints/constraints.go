// Package constraints evaluates altitude/azimuth/time-window constraints
// for a target over a candidate period. Because altitude and azimuth vary
// continuously, the period is sampled at an adaptive step and transitions
// are bracketed by bisection until time resolution is <=1s. Sub-periods
// shorter than 1s are discarded.
package constraints

import (
	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/astro/horizontal"
	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/models"
)

// minFragmentSeconds is the shortest sub-period the evaluator will yield.
const minFragmentSeconds = 1.0

// bisectionToleranceSeconds is the time resolution transitions are
// bracketed to.
const bisectionToleranceSeconds = 1.0

// maxSamples bounds the coarse sampling pass regardless of period length.
const maxSamples = 4096

// Evaluate returns the maximal sub-periods of outer during which target,
// viewed from loc, satisfies c's explicit time window (if set), altitude
// bound (if set), and azimuth bound (if set, with the wrap-around
// convention documented on models.AzimuthConstraint).
func Evaluate(
	target models.Target,
	loc models.Location,
	c models.Constraints,
	altitude *models.AltitudeConstraint,
	azimuth *models.AzimuthConstraint,
	outer models.Period,
) ([]models.Period, error) {
	candidates := []models.Period{outer}

	if c.StartMJD != nil && c.StopMJD != nil {
		window := models.Period{Start: *c.StartMJD, Stop: *c.StopMJD}
		intersected, ok := mjd.Intersect(outer, window)
		if !ok {
			return nil, nil
		}
		candidates = []models.Period{intersected}
	}

	predicate := func(atMJD float64) (bool, error) {
		h, err := horizontal.Transform(target.RADeg, target.DecDeg, loc, atMJD)
		if err != nil {
			return false, err
		}
		// Edge policy: inclusive of min, exclusive of max.
		if altitude != nil && (h.AltitudeDeg < altitude.MinAltDeg || h.AltitudeDeg >= altitude.MaxAltDeg) {
			return false, nil
		}
		if azimuth != nil && !azimuthSatisfied(*azimuth, h.AzimuthDeg) {
			return false, nil
		}
		return true, nil
	}

	var result []models.Period
	for _, cand := range candidates {
		segments, err := evaluateOne(cand, predicate)
		if err != nil {
			return nil, err
		}
		result = append(result, segments...)
	}
	return mjd.Merge(result), nil
}

// azimuthSatisfied applies the inclusive-min/exclusive-max edge policy,
// including the wrap-around union when min > max.
func azimuthSatisfied(c models.AzimuthConstraint, azDeg float64) bool {
	if c.Wraps() {
		return azDeg >= c.MinAzDeg || azDeg < c.MaxAzDeg
	}
	return azDeg >= c.MinAzDeg && azDeg < c.MaxAzDeg
}

type predicateFunc func(atMJD float64) (bool, error)

// evaluateOne samples p at an adaptive step, then bisects every sign change
// in the predicate's value down to bisectionToleranceSeconds.
func evaluateOne(p models.Period, predicate predicateFunc) ([]models.Period, error) {
	durationSec := mjd.DurationSeconds(p)
	if durationSec <= 0 {
		return nil, nil
	}

	samples := int(durationSec/30.0) + 2
	if samples > maxSamples {
		samples = maxSamples
	}
	if samples < 2 {
		samples = 2
	}
	stepMJD := (p.Stop - p.Start) / float64(samples-1)

	times := make([]float64, samples)
	values := make([]bool, samples)
	for i := 0; i < samples; i++ {
		t := p.Start + float64(i)*stepMJD
		if i == samples-1 {
			t = p.Stop
		}
		ok, err := predicate(t)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindInvalidCoordinate, "constraint evaluation failed", err)
		}
		times[i] = t
		values[i] = ok
	}

	var segments []models.Period
	var segStart float64
	inSegment := false

	for i := 0; i < samples-1; i++ {
		t0, v0 := times[i], values[i]
		t1, v1 := times[i+1], values[i+1]

		if v0 && !inSegment {
			segStart = t0
			inSegment = true
		}

		if v0 != v1 {
			transition, err := bisectTransition(t0, t1, v0, predicate)
			if err != nil {
				return nil, err
			}
			if inSegment && !v1 {
				segments = append(segments, models.Period{Start: segStart, Stop: transition})
				inSegment = false
			} else if !inSegment && v1 {
				segStart = transition
				inSegment = true
			}
		}
	}
	if inSegment {
		segments = append(segments, models.Period{Start: segStart, Stop: p.Stop})
	}

	filtered := segments[:0]
	for _, s := range segments {
		if mjd.DurationSeconds(s) >= minFragmentSeconds {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// bisectTransition finds the instant in (t0,t1) where predicate flips from
// v0 to its complement, to within bisectionToleranceSeconds.
func bisectTransition(t0, t1 float64, v0 bool, predicate predicateFunc) (float64, error) {
	lo, hi := t0, t1
	for mjd.DurationSeconds(models.Period{Start: lo, Stop: hi}) > bisectionToleranceSeconds {
		mid := (lo + hi) / 2
		ok, err := predicate(mid)
		if err != nil {
			return 0, err
		}
		if ok == v0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

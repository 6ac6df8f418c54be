package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsforge/obsforge/internal/models"
)

func TestAzimuthSatisfiedStraddlesZeroWhenMinExceedsMax(t *testing.T) {
	c := models.AzimuthConstraint{MinAzDeg: 350, MaxAzDeg: 10}
	require.True(t, c.Wraps())

	assert.True(t, azimuthSatisfied(c, 359), "near 359 deg sits in the [350,360) arm of the wrap")
	assert.True(t, azimuthSatisfied(c, 1), "near 1 deg sits in the [0,10) arm of the wrap")
	assert.True(t, azimuthSatisfied(c, 350), "the min bound is inclusive")
	assert.False(t, azimuthSatisfied(c, 10), "the max bound is exclusive")
	assert.False(t, azimuthSatisfied(c, 180), "180 deg sits in neither wrap arm")
}

func TestAzimuthSatisfiedNonWrappingIsAPlainRange(t *testing.T) {
	c := models.AzimuthConstraint{MinAzDeg: 90, MaxAzDeg: 180}
	require.False(t, c.Wraps())

	assert.True(t, azimuthSatisfied(c, 90))
	assert.True(t, azimuthSatisfied(c, 135))
	assert.False(t, azimuthSatisfied(c, 180), "max bound is exclusive")
	assert.False(t, azimuthSatisfied(c, 0))
	assert.False(t, azimuthSatisfied(c, 359))
}

// polarTarget sits at the north celestial pole, where altitude is constant
// (equal to the observer's latitude) and azimuth is undefined but stable at
// whatever horizontal.Transform happens to resolve it to for every sample
// instant, keeping these Evaluate-level tests independent of sidereal time.
func polarTarget() models.Target { return models.Target{Name: "pole", RADeg: 0, DecDeg: 90} }

func TestEvaluateAltitudeBoundSelectsWholePeriodWhenAlwaysSatisfied(t *testing.T) {
	loc := models.Location{LatitudeDeg: 60, LongitudeDeg: 0}
	alt := &models.AltitudeConstraint{MinAltDeg: 30, MaxAltDeg: 90}
	outer := models.Period{Start: 60000, Stop: 60001}

	segments, err := Evaluate(polarTarget(), loc, models.Constraints{}, alt, nil, outer)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.InDelta(t, outer.Start, segments[0].Start, 1e-6)
	assert.InDelta(t, outer.Stop, segments[0].Stop, 1e-6)
}

func TestEvaluateAltitudeBoundExcludesWholePeriodWhenNeverSatisfied(t *testing.T) {
	loc := models.Location{LatitudeDeg: 60, LongitudeDeg: 0}
	alt := &models.AltitudeConstraint{MinAltDeg: 70, MaxAltDeg: 90}
	outer := models.Period{Start: 60000, Stop: 60001}

	segments, err := Evaluate(polarTarget(), loc, models.Constraints{}, alt, nil, outer)
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestEvaluateTimeWindowIntersectsOuterPeriod(t *testing.T) {
	loc := models.Location{LatitudeDeg: 60, LongitudeDeg: 0}
	alt := &models.AltitudeConstraint{MinAltDeg: 0, MaxAltDeg: 90}
	start, stop := 60000.25, 60000.75
	c := models.Constraints{StartMJD: &start, StopMJD: &stop}
	outer := models.Period{Start: 60000, Stop: 60001}

	segments, err := Evaluate(polarTarget(), loc, c, alt, nil, outer)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.InDelta(t, start, segments[0].Start, 1e-6)
	assert.InDelta(t, stop, segments[0].Stop, 1e-6)
}

func TestEvaluateTimeWindowDisjointFromOuterYieldsNothing(t *testing.T) {
	loc := models.Location{LatitudeDeg: 60, LongitudeDeg: 0}
	start, stop := 59000.0, 59001.0
	c := models.Constraints{StartMJD: &start, StopMJD: &stop}
	outer := models.Period{Start: 60000, Stop: 60001}

	segments, err := Evaluate(polarTarget(), loc, c, nil, nil, outer)
	require.NoError(t, err)
	assert.Empty(t, segments)
}

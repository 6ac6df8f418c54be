package prescheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/models"
)

// polarTarget sits at the north celestial pole, where altitude is constant
// (equal to the observer's latitude) for every instant, keeping these tests
// independent of sidereal time.
func polarTarget() models.Target { return models.Target{Name: "pole", RADeg: 0, DecDeg: 90} }

func alwaysVisibleAltitude() *models.AltitudeConstraint {
	return &models.AltitudeConstraint{MinAltDeg: 0, MaxAltDeg: 90}
}

func TestNeedsComputationOnlyWhenVisibilityPeriodsAbsent(t *testing.T) {
	assert.True(t, NeedsComputation(models.SchedulingBlock{}))
	assert.False(t, NeedsComputation(models.SchedulingBlock{
		VisibilityPeriods: []models.Period{{Start: 0, Stop: 1}},
	}))
}

func TestComputeSplitsOneVisibilityWindowAroundMultipleDarkPeriods(t *testing.T) {
	loc := models.Location{LatitudeDeg: 60, LongitudeDeg: 0}
	exec := models.Period{Start: 60000, Stop: 60001}
	darkPeriods := []models.Period{
		{Start: 60000.2, Stop: 60000.4},
		{Start: 60000.6, Stop: 60000.8},
	}
	in := BlockInputs{
		Block:       models.SchedulingBlock{MinObservationSec: 3600},
		Target:      polarTarget(),
		Constraints: models.Constraints{},
		Altitude:    alwaysVisibleAltitude(),
	}

	windows, err := Compute(loc, exec, darkPeriods, in)
	require.NoError(t, err)
	require.Len(t, windows, 3, "two dark periods split the day into three free spans")

	want := []models.Period{
		{Start: 60000, Stop: 60000.2},
		{Start: 60000.4, Stop: 60000.6},
		{Start: 60000.8, Stop: 60001},
	}
	for i, w := range want {
		assert.InDelta(t, w.Start, windows[i].Start, 1e-9)
		assert.InDelta(t, w.Stop, windows[i].Stop, 1e-9)
	}
}

func TestComputeIntersectsExplicitConstraintTimeWindowWithExecutionPeriod(t *testing.T) {
	loc := models.Location{LatitudeDeg: 60, LongitudeDeg: 0}
	exec := models.Period{Start: 60000, Stop: 60001}
	start, stop := 60000.3, 60000.7
	in := BlockInputs{
		Block:       models.SchedulingBlock{MinObservationSec: 3600},
		Target:      polarTarget(),
		Constraints: models.Constraints{StartMJD: &start, StopMJD: &stop},
		Altitude:    alwaysVisibleAltitude(),
	}

	windows, err := Compute(loc, exec, nil, in)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.InDelta(t, start, windows[0].Start, 1e-9)
	assert.InDelta(t, stop, windows[0].Stop, 1e-9)
}

func TestComputeDropsWindowsShorterThanMinObservationSec(t *testing.T) {
	loc := models.Location{LatitudeDeg: 60, LongitudeDeg: 0}
	exec := models.Period{Start: 60000, Stop: 60000 + 1000.0/mjd.SecondsPerDay}
	in := BlockInputs{
		Block:       models.SchedulingBlock{MinObservationSec: 3600},
		Target:      polarTarget(),
		Constraints: models.Constraints{},
		Altitude:    alwaysVisibleAltitude(),
	}

	windows, err := Compute(loc, exec, nil, in)
	require.NoError(t, err)
	assert.Empty(t, windows, "a 1000s free span can't satisfy a 3600s minimum observation length")
}

func TestComputeExcludesWindowsWhereAltitudeNeverSatisfied(t *testing.T) {
	loc := models.Location{LatitudeDeg: 10, LongitudeDeg: 0}
	exec := models.Period{Start: 60000, Stop: 60001}
	in := BlockInputs{
		Block:       models.SchedulingBlock{MinObservationSec: 3600},
		Target:      polarTarget(),
		Constraints: models.Constraints{},
		Altitude:    &models.AltitudeConstraint{MinAltDeg: 50, MaxAltDeg: 90},
	}

	windows, err := Compute(loc, exec, nil, in)
	require.NoError(t, err)
	assert.Empty(t, windows, "the pole sits at altitude == latitude (10 deg), below the 50 deg floor")
}

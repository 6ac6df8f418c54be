package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsforge/obsforge/internal/models"
)

func TestBetterPrefersHigherFitnessFirst(t *testing.T) {
	candidate := Result{Fitness: 0.9, Unscheduled: []int64{1, 2}, Seed: 5}
	current := Result{Fitness: 0.5, Unscheduled: nil, Seed: 1}
	assert.True(t, better(candidate, current))
	assert.False(t, better(current, candidate))
}

func TestBetterFallsBackToFewerUnscheduledOnTiedFitness(t *testing.T) {
	candidate := Result{Fitness: 0.5, Unscheduled: []int64{1}, Seed: 9}
	current := Result{Fitness: 0.5, Unscheduled: []int64{1, 2}, Seed: 1}
	assert.True(t, better(candidate, current))
}

func TestBetterFallsBackToTighterPackingOnTiedFitnessAndUnscheduled(t *testing.T) {
	candidate := Result{
		Fitness:     0.5,
		Unscheduled: []int64{1},
		Placements:  []Placement{{BlockID: 1, Period: period(0, 1000.0/86400.0)}},
		Seed:        9,
	}
	current := Result{
		Fitness:     0.5,
		Unscheduled: []int64{1},
		Placements:  []Placement{{BlockID: 1, Period: period(0, 2000.0/86400.0)}},
		Seed:        1,
	}
	assert.True(t, better(candidate, current), "a tighter total placed duration should win a three-way tie")
}

func TestBetterFallsBackToLowestSeedOnFullTie(t *testing.T) {
	candidate := Result{Fitness: 0.5, Seed: 2}
	current := Result{Fitness: 0.5, Seed: 7}
	assert.True(t, better(candidate, current))
	assert.False(t, better(current, candidate))
}

func TestRunHybridFansOutAcrossSeedsAndReturnsAPlacement(t *testing.T) {
	exec := period(0, 1)
	window := []models.Period{period(0, 3600.0/86400.0)}
	blocks := []models.SchedulingBlock{
		{ID: 1, Priority: 5, MinObservationSec: 1800, RequestedDurationSec: 1800, VisibilityPeriods: window},
		{ID: 2, Priority: 3, MinObservationSec: 1800, RequestedDurationSec: 1800, VisibilityPeriods: window},
	}

	res, err := RunHybrid(context.Background(), blocks, exec, nil, HybridOptions{Seeds: 4})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Placements)
	assert.GreaterOrEqual(t, res.Seed, int64(1))
	assert.LessOrEqual(t, res.Seed, int64(4))
}

func TestRunHybridDefaultsSeedCountWhenUnset(t *testing.T) {
	exec := period(0, 1)
	window := []models.Period{period(0, 3600.0/86400.0)}
	blocks := []models.SchedulingBlock{
		{ID: 1, Priority: 1, MinObservationSec: 1800, RequestedDurationSec: 1800, VisibilityPeriods: window},
	}

	res, err := RunHybrid(context.Background(), blocks, exec, nil, HybridOptions{})
	require.NoError(t, err)
	require.Len(t, res.Placements, 1)
	assert.Equal(t, int64(1), res.Placements[0].BlockID)
}

func TestRunHybridPropagatesAccumulativeError(t *testing.T) {
	_, err := RunHybrid(context.Background(), nil, period(0, 1), nil, HybridOptions{Seeds: 2})
	require.Error(t, err)
}

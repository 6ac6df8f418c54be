package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

func detail(id int64, priority float64, ra, dec float64, minSec, reqSec int64, windows []models.Period) repository.BlockDetail {
	return repository.BlockDetail{
		Block: models.SchedulingBlock{
			ID:                   id,
			Priority:             priority,
			MinObservationSec:    minSec,
			RequestedDurationSec: reqSec,
			VisibilityPeriods:    windows,
		},
		Target: models.Target{RADeg: ra, DecDeg: dec},
	}
}

func TestEvaluateZeroVisibility(t *testing.T) {
	details := []repository.BlockDetail{detail(1, 1, 10, 10, 600, 1200, nil)}
	results := Evaluate(1, details, config.ValidatorConfig{PriorityOutlierZ: 3})
	require.Len(t, results, 1)
	assert.Equal(t, ruleZeroVisibility, results[0].Rule)
	assert.Equal(t, statusImpossible, results[0].Status)
}

func TestEvaluateVisibilityBelowMin(t *testing.T) {
	windows := []models.Period{{Start: 60000, Stop: 60000 + 100.0/86400}}
	details := []repository.BlockDetail{detail(1, 1, 10, 10, 600, 1200, windows)}
	results := Evaluate(1, details, config.ValidatorConfig{PriorityOutlierZ: 3})
	require.Len(t, results, 2)
	assert.Equal(t, ruleVisibilityBelowMin, results[0].Rule)
	assert.Equal(t, ruleVeryShortVisibility, results[1].Rule)
}

func TestEvaluateInvalidCoordinates(t *testing.T) {
	windows := []models.Period{{Start: 60000, Stop: 60001}}
	details := []repository.BlockDetail{detail(1, 1, 400, -95, 600, 1200, windows)}
	results := Evaluate(1, details, config.ValidatorConfig{PriorityOutlierZ: 3})

	rules := map[string]int{}
	for _, r := range results {
		rules[r.Rule+r.Field]++
	}
	assert.Equal(t, 1, rules[ruleInvalidCoordinates+"ra_deg"])
	assert.Equal(t, 1, rules[ruleInvalidCoordinates+"dec_deg"])
}

func TestEvaluateDurationInvariant(t *testing.T) {
	windows := []models.Period{{Start: 60000, Stop: 60001}}
	details := []repository.BlockDetail{detail(1, 1, 10, 10, 2000, 1000, windows)}
	results := Evaluate(1, details, config.ValidatorConfig{PriorityOutlierZ: 3})

	found := false
	for _, r := range results {
		if r.Rule == ruleDurationInvariant {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEvaluatePriorityOutlier(t *testing.T) {
	windows := []models.Period{{Start: 60000, Stop: 60001}}
	details := []repository.BlockDetail{
		detail(1, 1, 10, 10, 60, 1000, windows),
		detail(2, 1, 20, 10, 60, 1000, windows),
		detail(3, 1, 30, 10, 60, 1000, windows),
		detail(4, 1000, 40, 10, 60, 1000, windows),
	}
	// With four blocks the largest population z-score any one of them can
	// reach is sqrt(3) ≈ 1.73, so the threshold is set below it.
	results := Evaluate(1, details, config.ValidatorConfig{PriorityOutlierZ: 1.5})

	var got bool
	for _, r := range results {
		if r.BlockID == 4 && r.Rule == rulePriorityOutlier {
			got = true
		}
	}
	assert.True(t, got)
}

func TestEvaluateNoIssues(t *testing.T) {
	windows := []models.Period{{Start: 60000, Stop: 60000 + 7200.0/86400}}
	details := []repository.BlockDetail{detail(1, 1, 10, 10, 600, 1200, windows)}
	results := Evaluate(1, details, config.ValidatorConfig{PriorityOutlierZ: 3})
	assert.Empty(t, results)
}

func TestIsImpossible(t *testing.T) {
	results := []models.ValidationResult{
		{BlockID: 1, Status: statusImpossible},
		{BlockID: 2, Status: statusWarning},
	}
	assert.True(t, IsImpossible(results, 1))
	assert.False(t, IsImpossible(results, 2))
	assert.False(t, IsImpossible(results, 3))
}

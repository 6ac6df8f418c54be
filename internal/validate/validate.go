// Package validate implements the domain rule catalog that flags
// impossible, erroneous, or merely suspicious scheduling blocks once they
// are persisted. It is distinct from the struct-shape validation applied to
// a raw ingestion document (internal/ingest): this package answers "is this
// persisted block sane", not "is this document well-formed".
package validate

import (
	"fmt"
	"math"

	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

const (
	ruleZeroVisibility       = "zero_visibility"
	ruleVisibilityBelowMin   = "visibility_below_min"
	ruleInvalidCoordinates   = "invalid_coordinates"
	rulePriorityNonFinite    = "priority_non_finite"
	ruleDurationInvariant    = "duration_invariant"
	rulePriorityOutlier      = "priority_outlier"
	ruleVeryShortVisibility  = "very_short_visibility"
)

const (
	statusImpossible = "impossible"
	statusError      = "error"
	statusWarning    = "warning"
)

// Evaluate runs the rule catalog over every block in details, returning one
// ValidationResult per detected issue. priority_outlier compares each
// block's priority against the mean/stddev of every priority in details, so
// the whole set must be passed together, not block by block.
func Evaluate(scheduleID int64, details []repository.BlockDetail, cfg config.ValidatorConfig) []models.ValidationResult {
	var priorities []float64
	for _, d := range details {
		priorities = append(priorities, d.Block.Priority)
	}
	meanPriority, stdPriority := meanStdDev(priorities)

	var results []models.ValidationResult
	for _, d := range details {
		results = append(results, evaluateBlock(scheduleID, d, meanPriority, stdPriority, cfg)...)
	}
	return results
}

// IsImpossible reports whether results contains at least one impossible-
// status row for blockID, the condition that sets
// BlockAnalytics.ValidationImpossible.
func IsImpossible(results []models.ValidationResult, blockID int64) bool {
	for _, r := range results {
		if r.BlockID == blockID && r.Status == statusImpossible {
			return true
		}
	}
	return false
}

func evaluateBlock(scheduleID int64, d repository.BlockDetail, meanPriority, stdPriority float64, cfg config.ValidatorConfig) []models.ValidationResult {
	b := d.Block
	var out []models.ValidationResult

	add := func(rule, status, category, criticality, field, current, expected, description string) {
		out = append(out, models.ValidationResult{
			ScheduleID:    scheduleID,
			BlockID:       b.ID,
			Rule:          rule,
			Status:        status,
			Category:      category,
			Criticality:   criticality,
			Field:         field,
			CurrentValue:  current,
			ExpectedValue: expected,
			Description:   description,
		})
	}

	totalVisibilitySec := 0.0
	maxVisibilitySec := 0.0
	for _, w := range b.VisibilityPeriods {
		sec := mjd.DurationSeconds(w)
		totalVisibilitySec += sec
		if sec > maxVisibilitySec {
			maxVisibilitySec = sec
		}
	}
	totalVisibilityHours := totalVisibilitySec / 3600

	if totalVisibilityHours == 0 {
		add(ruleZeroVisibility, statusImpossible, "visibility", "Critical",
			"total_visibility_hours", "0", ">0",
			"the target has no visibility windows within the schedule's dark, constraint, and execution-period intersection")
	} else if maxVisibilitySec < float64(b.MinObservationSec) {
		add(ruleVisibilityBelowMin, statusImpossible, "visibility", "Critical",
			"visibility_windows_max_sec",
			fmt.Sprintf("%.1f", maxVisibilitySec),
			fmt.Sprintf(">=%d", b.MinObservationSec),
			"no single visibility window is long enough to satisfy the minimum observation duration")
	}

	if d.Target.RADeg < 0 || d.Target.RADeg >= 360 {
		add(ruleInvalidCoordinates, statusError, "coordinate", "Critical",
			"ra_deg", fmt.Sprintf("%g", d.Target.RADeg), "[0,360)",
			"right ascension is outside its valid range")
	}
	if d.Target.DecDeg < -90 || d.Target.DecDeg > 90 {
		add(ruleInvalidCoordinates, statusError, "coordinate", "Critical",
			"dec_deg", fmt.Sprintf("%g", d.Target.DecDeg), "[-90,90]",
			"declination is outside its valid range")
	}

	if math.IsNaN(b.Priority) || math.IsInf(b.Priority, 0) {
		add(rulePriorityNonFinite, statusError, "priority", "High",
			"priority", fmt.Sprintf("%v", b.Priority), "finite",
			"priority must be a finite number")
	}

	if b.MinObservationSec > b.RequestedDurationSec {
		add(ruleDurationInvariant, statusError, "duration", "High",
			"min_observation_sec",
			fmt.Sprintf("%d", b.MinObservationSec),
			fmt.Sprintf("<=%d", b.RequestedDurationSec),
			"minimum observation duration exceeds requested duration")
	}

	z := cfg.PriorityOutlierZ
	if z <= 0 {
		z = 3.0
	}
	if stdPriority > 0 && math.Abs(b.Priority-meanPriority) > z*stdPriority {
		add(rulePriorityOutlier, statusWarning, "priority", "Low",
			"priority", fmt.Sprintf("%g", b.Priority),
			fmt.Sprintf("within %.1f sigma of mean %.3f", z, meanPriority),
			"priority is a statistical outlier relative to the rest of the schedule")
	}

	if len(b.VisibilityPeriods) > 0 && maxVisibilitySec > 0 && maxVisibilitySec < 2*float64(b.MinObservationSec) {
		add(ruleVeryShortVisibility, statusWarning, "visibility", "Medium",
			"visibility_windows_max_sec",
			fmt.Sprintf("%.1f", maxVisibilitySec),
			fmt.Sprintf(">=%d", 2*b.MinObservationSec),
			"every visibility window is less than twice the minimum observation duration, leaving little scheduling slack")
	}

	return out
}

func meanStdDev(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	std = math.Sqrt(sq / float64(len(xs)))
	return mean, std
}

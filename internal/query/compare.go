package query

import (
	"context"
	"sort"

	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

// ScheduleStats summarizes one side of a comparison.
type ScheduleStats struct {
	TotalBlocks     int
	ScheduledBlocks int
	PriorityMean    float64
	PriorityMedian  float64
	TotalHours      float64
}

// SchedulingChangeKind classifies how a block's scheduled status changed
// between two schedules.
type SchedulingChangeKind string

const (
	NewlyScheduled      SchedulingChangeKind = "newly_scheduled"
	NewlyUnscheduled    SchedulingChangeKind = "newly_unscheduled"
	RemainedScheduled   SchedulingChangeKind = "remained_scheduled"
	RemainedUnscheduled SchedulingChangeKind = "remained_unscheduled"
)

// SchedulingChange describes one block common to both schedules.
type SchedulingChange struct {
	OriginalID string
	Change     SchedulingChangeKind
}

// CompareResult is the response of the compare operation. Blocks are
// matched across schedules by original_id, the document's stable external
// identifier, since internal block ids are assigned per-ingestion and never
// repeat across schedules even for conceptually identical blocks. Blocks
// with no original_id cannot be matched and appear only in their own
// schedule's "only in" set.
type CompareResult struct {
	CurrentStats      ScheduleStats
	ComparisonStats   ScheduleStats
	CommonOriginalIDs []string
	OnlyInCurrent     []string
	OnlyInComparison  []string
	SchedulingChanges []SchedulingChange
}

// Compare loads scheduleID (current) and otherID (comparison) and reports
// their set differences and scheduling-status deltas by original_id.
func Compare(ctx context.Context, repo repository.Repository, scheduleID, otherID int64) (CompareResult, error) {
	current, err := load(ctx, repo, scheduleID)
	if err != nil {
		return CompareResult{}, err
	}
	comparison, err := load(ctx, repo, otherID)
	if err != nil {
		return CompareResult{}, err
	}

	currentByOriginal := indexByOriginalID(current.proj.Blocks)
	comparisonByOriginal := indexByOriginalID(comparison.proj.Blocks)

	var common, onlyCurrent, onlyComparison []string
	for id := range currentByOriginal {
		if _, ok := comparisonByOriginal[id]; ok {
			common = append(common, id)
		} else {
			onlyCurrent = append(onlyCurrent, id)
		}
	}
	for id := range comparisonByOriginal {
		if _, ok := currentByOriginal[id]; !ok {
			onlyComparison = append(onlyComparison, id)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyCurrent)
	sort.Strings(onlyComparison)

	changes := make([]SchedulingChange, 0, len(common))
	for _, id := range common {
		wasScheduled := currentByOriginal[id].IsScheduled
		isScheduled := comparisonByOriginal[id].IsScheduled
		changes = append(changes, SchedulingChange{OriginalID: id, Change: classify(wasScheduled, isScheduled)})
	}

	return CompareResult{
		CurrentStats:      scheduleStats(current.proj.Blocks),
		ComparisonStats:    scheduleStats(comparison.proj.Blocks),
		CommonOriginalIDs: common,
		OnlyInCurrent:     onlyCurrent,
		OnlyInComparison:  onlyComparison,
		SchedulingChanges: changes,
	}, nil
}

func classify(before, after bool) SchedulingChangeKind {
	switch {
	case !before && after:
		return NewlyScheduled
	case before && !after:
		return NewlyUnscheduled
	case before && after:
		return RemainedScheduled
	default:
		return RemainedUnscheduled
	}
}

func indexByOriginalID(blocks []models.BlockAnalytics) map[string]models.BlockAnalytics {
	out := make(map[string]models.BlockAnalytics, len(blocks))
	for _, b := range blocks {
		if b.OriginalID == nil {
			continue
		}
		out[*b.OriginalID] = b
	}
	return out
}

func scheduleStats(blocks []models.BlockAnalytics) ScheduleStats {
	stats := ScheduleStats{TotalBlocks: len(blocks)}
	if len(blocks) == 0 {
		return stats
	}

	var priorities []float64
	for _, b := range blocks {
		priorities = append(priorities, b.Priority)
		if b.IsScheduled {
			stats.ScheduledBlocks++
		}
		stats.TotalHours += b.TotalVisibilityHours
	}

	s := statsOf(priorities)
	stats.PriorityMean = s.Mean
	stats.PriorityMedian = s.Median
	return stats
}

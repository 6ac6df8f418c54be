// Package scheduler assigns non-overlapping time intervals to scheduling
// blocks, maximizing a priority-weighted figure of merit.
//
// Two algorithms are exposed: Accumulative, a single deterministic pass, and
// RunHybrid, which fans out several Accumulative passes with distinct seeds
// in parallel and keeps the fittest result.
package scheduler

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/models"
)

// Placement is one block's assigned interval.
type Placement struct {
	BlockID int64
	Period  models.Period
}

// Result is the outcome of one scheduling pass.
type Result struct {
	Placements       []Placement
	Unscheduled      []int64
	Fitness          float64
	Seed             int64
	TimeLimitReached bool
}

// Options configures a single Accumulative pass.
type Options struct {
	// Seed permutes the tie-break among blocks tied on priority and
	// requested duration. Seed 0 keeps the default tie-break (ascending
	// block id).
	Seed int64
	// Reattempt, if true, runs a second full pass ordered by earliest
	// visibility-window start ascending instead of priority, and keeps
	// whichever of the two passes is fitter. A block the priority pass
	// greedily starved of its only feasible slot sometimes gets placed
	// when blocks with early, narrow windows are seated first.
	Reattempt bool
}

func totalPlacedDurationSec(placements []Placement) float64 {
	var total float64
	for _, p := range placements {
		total += mjd.DurationSeconds(p.Period)
	}
	return total
}

// Accumulative runs the single-pass greedy algorithm.
// Blocks must already carry their visibility windows (run the prescheduler
// first if the input document lacked them). executionPeriod and darkPeriods
// define the schedule-wide free time; ctx is checked for cancellation
// between block-placement iterations only, never mid-placement.
func Accumulative(ctx context.Context, blocks []models.SchedulingBlock, executionPeriod models.Period, darkPeriods []models.Period, opts Options) (Result, error) {
	if !(executionPeriod.Start < executionPeriod.Stop) {
		return Result{}, apierr.New(apierr.KindInvalidRange, "EmptyExecutionPeriod")
	}
	if len(blocks) == 0 {
		return Result{}, apierr.New(apierr.KindInvalidRange, "NoBlocks")
	}

	free := mjd.Subtract(executionPeriod, darkPeriods)
	primary := runPass(ctx, blocks, rank(blocks, opts.Seed), free, opts.Seed)

	if !opts.Reattempt {
		return primary, nil
	}

	byWindow := make([]models.SchedulingBlock, len(blocks))
	copy(byWindow, blocks)
	sort.SliceStable(byWindow, func(i, j int) bool {
		return earliestVisibilityStart(byWindow[i]) < earliestVisibilityStart(byWindow[j])
	})
	retry := runPass(ctx, blocks, byWindow, free, opts.Seed)

	if better(retry, primary) {
		return retry, nil
	}
	return primary, nil
}

// runPass greedily places order's blocks, each against the shrinking free
// list left by its predecessors, and summarizes the outcome against the
// full blocks set (so a block order omits still counts as unscheduled).
func runPass(ctx context.Context, blocks, order []models.SchedulingBlock, free []models.Period, seed int64) Result {
	placed := make(map[int64]Placement, len(order))

	for _, b := range order {
		if err := ctx.Err(); err != nil {
			break
		}
		pl, newFree, ok := tryPlace(b, free)
		if ok {
			placed[b.ID] = pl
			free = newFree
		}
	}

	result := Result{Seed: seed, TimeLimitReached: ctx.Err() != nil}
	var totalPriority, placedPriority float64
	for _, b := range blocks {
		totalPriority += b.Priority
		if pl, ok := placed[b.ID]; ok {
			result.Placements = append(result.Placements, pl)
			placedPriority += b.Priority
		} else {
			result.Unscheduled = append(result.Unscheduled, b.ID)
		}
	}
	sort.Slice(result.Placements, func(i, j int) bool { return result.Placements[i].BlockID < result.Placements[j].BlockID })
	sort.Slice(result.Unscheduled, func(i, j int) bool { return result.Unscheduled[i] < result.Unscheduled[j] })

	if totalPriority != 0 {
		result.Fitness = placedPriority / totalPriority
	}
	return result
}

// placementToleranceSec absorbs the rounding of MJD differences, so a window
// exactly min_observation_sec long (3599.9999998 s for a 3600 s window
// starting at MJD 62115) still admits a placement.
const placementToleranceSec = 1e-6

// tryPlace finds the earliest feasible placement for b within free,
// returning the updated free-interval list with the placement subtracted.
func tryPlace(b models.SchedulingBlock, free []models.Period) (Placement, []models.Period, bool) {
	windows := make([]models.Period, len(b.VisibilityPeriods))
	copy(windows, b.VisibilityPeriods)
	sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })

	minSec := float64(b.MinObservationSec)
	requestedSec := float64(b.RequestedDurationSec)

	for freeIdx, f := range free {
		for _, w := range windows {
			overlap, ok := mjd.Intersect(f, w)
			if !ok {
				continue
			}
			overlapSec := mjd.DurationSeconds(overlap)
			if overlapSec < minSec-placementToleranceSec {
				continue
			}
			placedSec := requestedSec
			if placedSec > overlapSec {
				placedSec = overlapSec
			}
			placementPeriod := models.Period{
				Start: overlap.Start,
				Stop:  overlap.Start + placedSec/mjd.SecondsPerDay,
			}

			remaining := mjd.Subtract(f, []models.Period{placementPeriod})
			newFree := make([]models.Period, 0, len(free)+1)
			newFree = append(newFree, free[:freeIdx]...)
			newFree = append(newFree, remaining...)
			newFree = append(newFree, free[freeIdx+1:]...)
			sort.Slice(newFree, func(i, j int) bool { return newFree[i].Start < newFree[j].Start })

			return Placement{BlockID: b.ID, Period: placementPeriod}, newFree, true
		}
	}
	return Placement{}, free, false
}

func earliestVisibilityStart(b models.SchedulingBlock) float64 {
	earliest := math.Inf(1)
	for _, w := range b.VisibilityPeriods {
		if w.Start < earliest {
			earliest = w.Start
		}
	}
	return earliest
}

// rank orders blocks by priority descending, requested duration descending,
// then a tie-break that defaults to ascending block id (seed 0) or a
// seed-permuted order otherwise.
func rank(blocks []models.SchedulingBlock, seed int64) []models.SchedulingBlock {
	out := make([]models.SchedulingBlock, len(blocks))
	copy(out, blocks)

	tieOrder := tieBreakOrder(out, seed)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.RequestedDurationSec != b.RequestedDurationSec {
			return a.RequestedDurationSec > b.RequestedDurationSec
		}
		return tieOrder[a.ID] < tieOrder[b.ID]
	})
	return out
}

// tieBreakOrder maps block id -> rank. Seed 0 yields ascending-id rank,
// the default tie-break. A non-zero seed yields a deterministic
// pseudo-random permutation of that rank, used by the hybrid scheduler to
// explore different tie resolutions while staying reproducible.
func tieBreakOrder(blocks []models.SchedulingBlock, seed int64) map[int64]int {
	ids := make([]int64, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	order := make(map[int64]int, len(ids))
	for rank, id := range ids {
		order[id] = rank
	}
	if seed == 0 {
		return order
	}

	perm := rand.New(rand.NewSource(seed)).Perm(len(ids))
	permuted := make(map[int64]int, len(ids))
	for originalRank, id := range ids {
		permuted[id] = perm[originalRank]
	}
	return permuted
}

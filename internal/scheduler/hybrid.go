package scheduler

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/obsforge/obsforge/internal/models"
)

// HybridOptions configures the parallel multi-seed variant.
type HybridOptions struct {
	// Seeds is the number of independent accumulative passes to run. If
	// <= 0, it defaults to max(1, runtime.NumCPU()).
	Seeds     int
	Reattempt bool
}

// RunHybrid runs Seeds independent Accumulative passes in parallel, each
// with a distinct seed permuting tie-breaks, and returns the fittest
// result. Ties break by smaller unscheduled count, then lower total placed
// duration (tighter packing), then lowest seed index. Workers share no
// mutable state: each gets its own copy of the free-interval list.
func RunHybrid(ctx context.Context, blocks []models.SchedulingBlock, executionPeriod models.Period, darkPeriods []models.Period, opts HybridOptions) (Result, error) {
	n := opts.Seeds
	if n <= 0 {
		n = runtime.NumCPU()
		if n < 1 {
			n = 1
		}
	}

	results := make([]Result, n)
	errs := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			seed := int64(i + 1)
			res, err := Accumulative(gctx, blocks, executionPeriod, darkPeriods, Options{Seed: seed, Reattempt: opts.Reattempt})
			results[i] = res
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return Result{}, err
		}
	}

	best := results[0]
	for _, r := range results[1:] {
		if better(r, best) {
			best = r
		}
	}
	return best, nil
}

// better reports whether candidate should replace current as the best
// hybrid result, using the same fitness-then-tie-break chain as a single
// accumulative pass.
func better(candidate, current Result) bool {
	if candidate.Fitness != current.Fitness {
		return candidate.Fitness > current.Fitness
	}
	if len(candidate.Unscheduled) != len(current.Unscheduled) {
		return len(candidate.Unscheduled) < len(current.Unscheduled)
	}
	cDur := totalPlacedDurationSec(candidate.Placements)
	curDur := totalPlacedDurationSec(current.Placements)
	if cDur != curDur {
		return cDur < curDur
	}
	return candidate.Seed < current.Seed
}

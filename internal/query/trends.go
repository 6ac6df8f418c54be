package query

import (
	"context"
	"math"

	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

const defaultTrendsPoints = 50

// TrendsOptions configures the trends operation. A nil field takes the
// operation's default.
type TrendsOptions struct {
	Bandwidth *float64
	Points    *int
}

// RatePoint is one empirical-rate sample: X is the bin's representative
// value, Y is its scheduling rate.
type RatePoint struct {
	X float64
	Y float64
}

// CurvePoint is one sample of a kernel-smoothed curve.
type CurvePoint struct {
	X float64
	Y float64
}

// TrendsResult is the response of the trends operation.
type TrendsResult struct {
	PriorityRate       []RatePoint
	VisibilityRate     []RatePoint
	TimeRate           []RatePoint
	SmoothedVisibility []CurvePoint
	SmoothedTime       []CurvePoint
	Heatmap            []models.HeatmapBin
}

// Trends returns per-priority, per-visibility, and per-time empirical
// scheduling rates, Gaussian-kernel-smoothed visibility and time curves, and
// the 2-D heatmap bins.
func Trends(ctx context.Context, repo repository.Repository, scheduleID int64, opts TrendsOptions) (TrendsResult, error) {
	points := defaultTrendsPoints
	if opts.Points != nil {
		if *opts.Points <= 0 {
			return TrendsResult{}, apierr.New(apierr.KindInvalidParameters, "points must be positive")
		}
		points = *opts.Points
	}
	if opts.Bandwidth != nil && *opts.Bandwidth <= 0 {
		return TrendsResult{}, apierr.New(apierr.KindInvalidParameters, "bandwidth must be positive")
	}

	l, err := load(ctx, repo, scheduleID)
	if err != nil {
		return TrendsResult{}, err
	}

	res := TrendsResult{Heatmap: l.proj.HeatmapBins}

	for _, b := range l.proj.PriorityRateBins {
		res.PriorityRate = append(res.PriorityRate, RatePoint{X: float64(b.PriorityRounded), Y: b.SchedulingRate})
	}
	for _, b := range l.proj.VisibilityTrendBins {
		res.VisibilityRate = append(res.VisibilityRate, RatePoint{X: b.Midpoint, Y: b.ScheduledRate})
	}
	for _, b := range l.proj.VisibilityTimeBins {
		rate := 0.0
		if b.TotalVisibleCount > 0 {
			rate = float64(b.ScheduledCount) / float64(b.TotalVisibleCount)
		}
		res.TimeRate = append(res.TimeRate, RatePoint{X: b.BinStartUnix, Y: rate})
	}

	res.SmoothedVisibility = gaussianSmooth(res.VisibilityRate, bandwidthOrDefault(opts.Bandwidth, res.VisibilityRate), points)
	res.SmoothedTime = gaussianSmooth(res.TimeRate, bandwidthOrDefault(opts.Bandwidth, res.TimeRate), points)

	return res, nil
}

// bandwidthOrDefault returns the explicit bandwidth if set, else the
// spacing between the first two samples (one bin width), else 1.
func bandwidthOrDefault(explicit *float64, samples []RatePoint) float64 {
	if explicit != nil {
		return *explicit
	}
	if len(samples) >= 2 {
		d := samples[1].X - samples[0].X
		if d < 0 {
			d = -d
		}
		if d > 0 {
			return d
		}
	}
	return 1
}

// gaussianSmooth performs Nadaraya-Watson kernel regression of samples over
// `points` equally spaced positions spanning the samples' x range.
func gaussianSmooth(samples []RatePoint, bandwidth float64, points int) []CurvePoint {
	if len(samples) == 0 || points <= 0 {
		return nil
	}
	if bandwidth <= 0 {
		bandwidth = 1
	}

	lo, hi := samples[0].X, samples[0].X
	for _, s := range samples[1:] {
		if s.X < lo {
			lo = s.X
		}
		if s.X > hi {
			hi = s.X
		}
	}

	step := 0.0
	if points > 1 {
		step = (hi - lo) / float64(points-1)
	}

	out := make([]CurvePoint, points)
	for i := 0; i < points; i++ {
		x := lo + step*float64(i)
		var weightSum, valueSum float64
		for _, s := range samples {
			d := (x - s.X) / bandwidth
			w := math.Exp(-0.5 * d * d)
			weightSum += w
			valueSum += w * s.Y
		}
		y := 0.0
		if weightSum > 0 {
			y = valueSum / weightSum
		}
		out[i] = CurvePoint{X: x, Y: y}
	}
	return out
}

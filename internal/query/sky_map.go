package query

import (
	"context"

	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

// SkyMapBlock is one block's entry in a sky map.
type SkyMapBlock struct {
	OriginalID      *string
	Priority        float64
	PriorityBucket  int
	TargetRADeg     float64
	TargetDecDeg    float64
	ScheduledPeriod *models.Period
}

// PriorityBin describes one of the four fixed priority-bucket colors used
// to render a sky map legend.
type PriorityBin struct {
	Label       string
	MinPriority float64
	MaxPriority float64
	Color       string
}

// SkyMapResult is the response of the sky_map operation.
type SkyMapResult struct {
	Blocks         []SkyMapBlock
	PriorityBins   []PriorityBin
	RAMinDeg       float64
	RAMaxDeg       float64
	DecMinDeg      float64
	DecMaxDeg      float64
	PriorityMinVal float64
	PriorityMaxVal float64
}

var bucketLabels = []struct {
	bucket int
	label  string
	color  string
}{
	{1, "Low", "#4575b4"},
	{2, "Medium", "#91bfdb"},
	{3, "High", "#fc8d59"},
	{4, "Critical", "#d73027"},
}

// SkyMap returns every block's position, priority, and scheduled placement,
// plus the priority-bucket legend and the schedule's coordinate/priority
// ranges.
func SkyMap(ctx context.Context, repo repository.Repository, scheduleID int64) (SkyMapResult, error) {
	l, err := load(ctx, repo, scheduleID)
	if err != nil {
		return SkyMapResult{}, err
	}

	res := SkyMapResult{
		RAMinDeg:       l.proj.Summary.RAMinDeg,
		RAMaxDeg:       l.proj.Summary.RAMaxDeg,
		DecMinDeg:      l.proj.Summary.DecMinDeg,
		DecMaxDeg:      l.proj.Summary.DecMaxDeg,
		PriorityMinVal: l.proj.Summary.PriorityOverall.Min,
		PriorityMaxVal: l.proj.Summary.PriorityOverall.Max,
	}

	priorityRange := res.PriorityMaxVal - res.PriorityMinVal
	for _, bl := range bucketLabels {
		bin := PriorityBin{Label: bl.label, Color: bl.color}
		if priorityRange == 0 {
			bin.MinPriority, bin.MaxPriority = res.PriorityMinVal, res.PriorityMaxVal
		} else {
			lo := float64(bl.bucket-1) / 4
			hi := float64(bl.bucket) / 4
			bin.MinPriority = res.PriorityMinVal + lo*priorityRange
			bin.MaxPriority = res.PriorityMinVal + hi*priorityRange
		}
		res.PriorityBins = append(res.PriorityBins, bin)
	}

	res.Blocks = make([]SkyMapBlock, 0, len(l.proj.Blocks))
	for _, b := range l.proj.Blocks {
		entry := SkyMapBlock{
			OriginalID:     b.OriginalID,
			Priority:       b.Priority,
			PriorityBucket: b.PriorityBucket,
			TargetRADeg:    b.TargetRADeg,
			TargetDecDeg:   b.TargetDecDeg,
		}
		if b.IsScheduled {
			entry.ScheduledPeriod = &models.Period{Start: *b.ScheduledStartMJD, Stop: *b.ScheduledStopMJD}
		}
		res.Blocks = append(res.Blocks, entry)
	}

	return res, nil
}

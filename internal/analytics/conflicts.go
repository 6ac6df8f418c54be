package analytics

import (
	"github.com/obsforge/obsforge/internal/astro/mjd"
	"github.com/obsforge/obsforge/internal/models"
)

type scheduledBlock struct {
	blockID int64
	period  models.Period
}

// conflictRecords reports every pair of scheduled placements whose
// intervals overlap. The scheduler itself never produces these (its
// non-overlap invariant forbids it); externally supplied assignments might.
func conflictRecords(scheduleID int64, placements []scheduledBlock) []models.ConflictRecord {
	var out []models.ConflictRecord
	for i := 0; i < len(placements); i++ {
		for j := i + 1; j < len(placements); j++ {
			a, b := placements[i], placements[j]
			overlap, ok := mjd.Intersect(a.period, b.period)
			if !ok {
				continue
			}
			out = append(out, models.ConflictRecord{
				ScheduleID:   scheduleID,
				BlockAID:     a.blockID,
				BlockBID:     b.blockID,
				OverlapHours: mjd.DurationSeconds(overlap) / 3600,
			})
		}
	}
	return out
}

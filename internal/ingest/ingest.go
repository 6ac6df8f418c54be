package ingest

import (
	"context"

	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/logging"
	"github.com/obsforge/obsforge/internal/metrics"
	"github.com/obsforge/obsforge/internal/repository"
)

// Ingest parses, normalizes, and persists raw as a new schedule. It computes
// any missing visibility windows and placements (prescheduling and
// scheduling), then hands the fully-resolved document to repo in one
// transaction. The checksum covers the parsed, canonicalized document rather
// than the raw bytes, so content that differs only in whitespace or field
// order still collides; re-ingesting a checksum that already exists fails
// with DuplicateSchedule and writes no partial state.
func Ingest(ctx context.Context, repo repository.Repository, raw []byte, cfg config.SchedulerConfig) (repository.IngestOutput, error) {
	defer metrics.Timer(metrics.IngestDuration)()
	log := logging.Ctx(ctx)

	doc, err := Parse(raw)
	if err != nil {
		recordError(err)
		return repository.IngestOutput{}, err
	}

	checksum, err := Checksum(doc)
	if err != nil {
		recordError(err)
		return repository.IngestOutput{}, apierr.Wrap(apierr.KindInvalidDocument, "failed to compute document checksum", err)
	}

	if _, found, err := repo.GetScheduleByChecksum(ctx, checksum); err != nil {
		recordError(err)
		return repository.IngestOutput{}, err
	} else if found {
		err := apierr.New(apierr.KindDuplicateSchedule, "a schedule with this checksum already exists")
		recordError(err)
		return repository.IngestOutput{}, err
	}

	in, err := Normalize(ctx, doc, cfg)
	if err != nil {
		recordError(err)
		return repository.IngestOutput{}, err
	}
	in.Checksum = checksum

	out, err := repo.IngestSchedule(ctx, in)
	if err != nil {
		recordError(err)
		return repository.IngestOutput{}, err
	}

	log.Info().Int64("schedule_id", out.ScheduleID).Int("block_count", len(in.Blocks)).Msg("schedule ingested")
	return out, nil
}

func recordError(err error) {
	kind, ok := apierr.KindOf(err)
	if !ok {
		kind = "Unknown"
	}
	metrics.IngestErrorsTotal.WithLabelValues(string(kind)).Inc()
}

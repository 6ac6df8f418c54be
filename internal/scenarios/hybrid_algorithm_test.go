package scenarios

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsforge/obsforge/internal/analytics"
	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/ingest"
	"github.com/obsforge/obsforge/internal/query"
	"github.com/obsforge/obsforge/internal/repository/memrepo"
)

// TestHybridAlgorithmProducesAPlacement exercises the one code path the
// other scenario tests never touch: Scheduler.DefaultAlgorithm set to
// AlgorithmHybrid, which routes ingestion through scheduler.RunHybrid's
// multi-seed fan-out instead of a single Accumulative pass.
func TestHybridAlgorithmProducesAPlacement(t *testing.T) {
	repo := memrepo.New()
	doc := s1Doc()

	hybridCfg := *config.Default()
	hybridCfg.Scheduler.DefaultAlgorithm = config.AlgorithmHybrid
	hybridCfg.Scheduler.DefaultSeeds = 4

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	out, err := ingest.Ingest(context.Background(), repo, raw, hybridCfg.Scheduler)
	require.NoError(t, err)
	require.NoError(t, analytics.Run(context.Background(), repo, out.ScheduleID, hybridCfg.Analytics, hybridCfg.Validator))

	res, err := query.SkyMap(context.Background(), repo, out.ScheduleID)
	require.NoError(t, err)
	require.Len(t, res.Blocks, 1)
	assert.NotNil(t, res.Blocks[0].ScheduledPeriod, "the hybrid scheduler must place the trivially schedulable block")

	dist, err := query.Distributions(context.Background(), repo, out.ScheduleID)
	require.NoError(t, err)
	require.Len(t, dist.Blocks, 1)
	assert.True(t, dist.Blocks[0].Scheduled)
}

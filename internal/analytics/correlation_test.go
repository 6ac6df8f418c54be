package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpearmanPerfectPositive(t *testing.T) {
	rho := spearman([]float64{1, 2, 3, 4}, []float64{10, 20, 30, 40})
	require.NotNil(t, rho)
	assert.InDelta(t, 1.0, *rho, 1e-9)
}

func TestSpearmanPerfectNegative(t *testing.T) {
	rho := spearman([]float64{1, 2, 3, 4}, []float64{40, 30, 20, 10})
	require.NotNil(t, rho)
	assert.InDelta(t, -1.0, *rho, 1e-9)
}

func TestSpearmanDegenerateConstant(t *testing.T) {
	rho := spearman([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.Nil(t, rho)
}

func TestSpearmanTooShort(t *testing.T) {
	rho := spearman([]float64{1}, []float64{2})
	assert.Nil(t, rho)
}

func TestRankWithTies(t *testing.T) {
	ranks := rank([]float64{1, 2, 2, 3})
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks)
}

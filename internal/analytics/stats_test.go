package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	s := computeStats([]float64{1, 2, 3, 4})
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 2.5, s.Median)
}

func TestComputeStatsEmpty(t *testing.T) {
	s := computeStats(nil)
	assert.Equal(t, 0, s.Count)
}

func TestMedianOdd(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{1, 2, 3}))
}

func TestMinMax(t *testing.T) {
	lo, hi := minMax([]float64{3, 1, 4, 1, 5})
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 5.0, hi)
}

package mjd

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obsforge/obsforge/internal/models"
)

func TestUnixMJDRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		// ±2e9 s (about 1906–2033) keeps the MJD below 65536, where a float64
		// day count resolves about 0.63 µs; above it one ULP alone exceeds 1 µs.
		unix := (r.Float64() - 0.5) * 4e9
		mjdVal := FromUnix(unix)
		back := ToUnix(mjdVal)
		assert.InDelta(t, unix, back, 1e-6, "round trip must be identity within 1 microsecond")
	}
}

func TestMJDUnixRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		m := 40000 + r.Float64()*40000
		unix := ToUnix(m)
		back := FromUnix(unix)
		assert.InDelta(t, m, back, 1e-11)
	}
}

func TestSubtractOrderIndependence(t *testing.T) {
	p := models.Period{Start: 0, Stop: 10}
	holes := []models.Period{
		{Start: 1, Stop: 2},
		{Start: 5, Stop: 6},
		{Start: 3, Stop: 4},
	}

	forward := Subtract(p, holes)

	reversed := make([]models.Period, len(holes))
	for i, h := range holes {
		reversed[len(holes)-1-i] = h
	}
	backward := Subtract(p, reversed)

	assert.Equal(t, forward, backward, "subtract must not depend on hole ordering, since holes are merged first")
}

func TestSubtractFullyCovered(t *testing.T) {
	p := models.Period{Start: 0, Stop: 10}
	holes := []models.Period{{Start: -1, Stop: 11}}
	assert.Empty(t, Subtract(p, holes))
}

func TestMergeCoalescesOverlapsAndAdjacency(t *testing.T) {
	periods := []models.Period{
		{Start: 5, Stop: 6},
		{Start: 0, Stop: 2},
		{Start: 2, Stop: 4},
		{Start: 1, Stop: 1.5},
	}
	merged := Merge(periods)
	assert.Equal(t, []models.Period{{Start: 0, Stop: 4}, {Start: 5, Stop: 6}}, merged)
}

func TestIntersectZeroLength(t *testing.T) {
	a := models.Period{Start: 0, Stop: 5}
	b := models.Period{Start: 5, Stop: 10}
	_, ok := Intersect(a, b)
	assert.False(t, ok, "a zero-length overlap is not an intersection")
	assert.False(t, math.IsNaN(a.Start))
}

// Package horizontal converts equatorial (RA/Dec) coordinates to horizontal
// (altitude/azimuth) coordinates for a given observer and UTC instant.
// Proper motion is not propagated: the transform takes (ra, dec, location,
// instant) with no stated epoch model, and Target's proper-motion fields
// exist only to round out the ingestion document and natural key, not to
// drive a propagation here.
package horizontal

import (
	"math"

	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/models"
)

// Horizontal is an altitude/azimuth pair, both in degrees. Azimuth is a
// compass bearing: 0=North, 90=East, measured clockwise.
type Horizontal struct {
	AltitudeDeg float64
	AzimuthDeg  float64
}

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// Transform computes the horizontal coordinates of (raDeg, decDeg) as seen
// from loc at the instant atMJD. Returns InvalidCoordinate if raDeg/decDeg
// are out of range.
func Transform(raDeg, decDeg float64, loc models.Location, atMJD float64) (Horizontal, error) {
	if raDeg < 0 || raDeg >= 360 {
		return Horizontal{}, apierr.New(apierr.KindInvalidCoordinate, "ra_deg out of [0,360)")
	}
	if decDeg < -90 || decDeg > 90 {
		return Horizontal{}, apierr.New(apierr.KindInvalidCoordinate, "dec_deg out of [-90,90]")
	}

	lst := localSiderealTimeDeg(atMJD, loc.LongitudeDeg)
	hourAngleDeg := normalizeDeg(lst - raDeg)

	latRad := loc.LatitudeDeg * degToRad
	decRad := decDeg * degToRad
	hRad := hourAngleDeg * degToRad

	sinAlt := math.Sin(latRad)*math.Sin(decRad) + math.Cos(latRad)*math.Cos(decRad)*math.Cos(hRad)
	sinAlt = clamp(sinAlt, -1, 1)
	altRad := math.Asin(sinAlt)

	// Azimuth measured from South, westward (Meeus convention), then
	// rotated to the compass convention (from North, clockwise).
	azFromSouthRad := math.Atan2(
		math.Sin(hRad),
		math.Cos(hRad)*math.Sin(latRad)-math.Tan(decRad)*math.Cos(latRad),
	)
	azDeg := normalizeDeg(azFromSouthRad*radToDeg + 180)

	return Horizontal{
		AltitudeDeg: altRad * radToDeg,
		AzimuthDeg:  azDeg,
	}, nil
}

// localSiderealTimeDeg returns the local apparent... in practice mean...
// sidereal time in degrees at the given MJD instant and east longitude.
func localSiderealTimeDeg(atMJD, longitudeDeg float64) float64 {
	jd := atMJD + 2400000.5
	t := (jd - 2451545.0) / 36525.0

	gmstDeg := 280.46061837 +
		360.98564736629*(jd-2451545.0) +
		0.000387933*t*t -
		t*t*t/38710000.0

	return normalizeDeg(gmstDeg + longitudeDeg)
}

func normalizeDeg(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

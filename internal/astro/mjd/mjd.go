// Package mjd converts between Modified Julian Date and Unix time, and
// implements Period (the half-open MJD interval) algebra: overlap, merge,
// subtract, and duration. Conventions follow jankampherbeek/segoport's
// sweDate.go MJD handling, generalized from calendar<->MJD to MJD<->Unix.
package mjd

import "github.com/obsforge/obsforge/internal/models"

// Epoch is the MJD of the Unix epoch (1970-01-01T00:00:00 UTC).
const Epoch = 40587.0

// SecondsPerDay is the number of seconds in one MJD day.
const SecondsPerDay = 86400.0

// ToUnix converts an MJD value to a Unix timestamp (seconds since epoch).
// The conversion is lossy beyond ~microsecond precision.
func ToUnix(m float64) float64 {
	return (m - Epoch) * SecondsPerDay
}

// FromUnix converts a Unix timestamp to MJD.
func FromUnix(unix float64) float64 {
	return unix/SecondsPerDay + Epoch
}

// Package clock provides the simulated-time scalar used throughout the
// kernel and network packages. Two backends implement the same Time
// contract — Float64Time and Fixed128Time — selected once at build time via
// config.TimeBackend; everything above this package programs against the
// Time interface and never cares which backend is live.
package clock

import (
	"errors"
	"fmt"
	"math"
)

// ErrNegativeDuration is returned by Sub when the result would be negative,
// and (wrapped) by FromSeconds for a negative time. Add does not return it:
// Add panics when the duration being added is negative.
var ErrNegativeDuration = errors.New("clock: negative duration")

// ErrNaN is returned when an operation would otherwise produce a NaN time
// or duration.
var ErrNaN = errors.New("clock: NaN")

// Duration is a non-negative span of simulated time, in seconds.
type Duration float64

// Time is simulated time, seconds since simulation start. Implementations
// must never expose a negative value and must be totally ordered.
type Time interface {
	// Add returns t + d. d must be non-negative.
	Add(d Duration) Time
	// Sub returns t - other as a Duration, or an error if the result would
	// be negative.
	Sub(other Time) (Duration, error)
	// Compare returns -1, 0, or 1 as t is less than, equal to, or greater
	// than other.
	Compare(other Time) int
	// Seconds returns the time as a float64 number of seconds.
	Seconds() float64
	// String formats the time as "Dd Hh Mm Ss.fffffffff".
	String() string
}

// Backend selects which Time implementation the Builder constructs.
type Backend string

const (
	BackendFloat64  Backend = "float64"
	BackendFixed128 Backend = "fixed128"
)

// Zero returns the zero time for the given backend.
func Zero(backend Backend) Time {
	switch backend {
	case BackendFixed128:
		return NewFixed128Seconds(0)
	default:
		return Float64Time(0)
	}
}

// FromSeconds constructs a Time from a (possibly fractional) number of
// seconds using the given backend.
func FromSeconds(seconds float64, backend Backend) (Time, error) {
	if math.IsNaN(seconds) {
		return nil, ErrNaN
	}
	if seconds < 0 {
		return nil, fmt.Errorf("clock: negative time %v: %w", seconds, ErrNegativeDuration)
	}
	switch backend {
	case BackendFixed128:
		return NewFixed128Seconds(seconds), nil
	default:
		return Float64Time(seconds), nil
	}
}

// formatDuration renders seconds as "Dd Hh Mm Ss.fffffffff", shared by both
// backends so their textual contract is identical modulo rounding.
func formatDuration(totalSeconds float64) string {
	neg := totalSeconds < 0
	if neg {
		totalSeconds = -totalSeconds
	}
	days := int64(totalSeconds / 86400)
	rem := totalSeconds - float64(days)*86400
	hours := int64(rem / 3600)
	rem -= float64(hours) * 3600
	minutes := int64(rem / 60)
	rem -= float64(minutes) * 60
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%dd %dh %dm %.9fs", sign, days, hours, minutes, rem)
}

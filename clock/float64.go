package clock

import "math"

// Float64Time is the floating-point seconds backend. It is the default
// (simplest, good enough for most workloads) — the teacher's own Simulator
// clock is a plain scalar (int64 microseconds in sim/simulator.go); this is
// its floating-point analogue generalized to fractional seconds.
type Float64Time float64

func (t Float64Time) Add(d Duration) Time {
	if d < 0 {
		panic("clock: Float64Time.Add called with negative duration")
	}
	return Float64Time(float64(t) + float64(d))
}

func (t Float64Time) Sub(other Time) (Duration, error) {
	o, ok := other.(Float64Time)
	if !ok {
		return 0, errBackendMismatch(t, other)
	}
	delta := float64(t) - float64(o)
	if math.IsNaN(delta) {
		return 0, ErrNaN
	}
	if delta < 0 {
		return 0, ErrNegativeDuration
	}
	return Duration(delta), nil
}

func (t Float64Time) Compare(other Time) int {
	o, ok := other.(Float64Time)
	if !ok {
		panic("clock: Float64Time.Compare called with a different backend")
	}
	switch {
	case float64(t) < float64(o):
		return -1
	case float64(t) > float64(o):
		return 1
	default:
		return 0
	}
}

func (t Float64Time) Seconds() float64 { return float64(t) }

func (t Float64Time) String() string { return formatDuration(float64(t)) }

func errBackendMismatch(t Time, other Time) error {
	return &backendMismatchError{have: t, other: other}
}

type backendMismatchError struct {
	have, other Time
}

func (e *backendMismatchError) Error() string {
	return "clock: cannot compare times from different backends"
}

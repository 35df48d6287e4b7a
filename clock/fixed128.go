package clock

import (
	"fmt"
	"math/big"
)

// picosecondsPerSecond is the fixed-point scale factor: Fixed128Time stores
// whole picoseconds in a big.Int, giving 128-bit range at picosecond
// granularity, per spec.md §3/§4.A.
const picosecondsPerSecond = 1_000_000_000_000

// Fixed128Time is the fixed-point picosecond backend, for callers that need
// exact arithmetic (no float rounding) over very long horizons.
type Fixed128Time struct {
	picoseconds *big.Int
}

// NewFixed128Seconds constructs a Fixed128Time from a (possibly fractional)
// number of seconds, rounding to the nearest picosecond.
func NewFixed128Seconds(seconds float64) Fixed128Time {
	scaled := new(big.Float).Mul(big.NewFloat(seconds), big.NewFloat(picosecondsPerSecond))
	half := big.NewFloat(0.5)
	if scaled.Sign() < 0 {
		scaled.Sub(scaled, half)
	} else {
		scaled.Add(scaled, half)
	}
	ps, _ := scaled.Int(nil)
	return Fixed128Time{picoseconds: ps}
}

// NewFixed128Picoseconds constructs a Fixed128Time directly from a whole
// number of picoseconds.
func NewFixed128Picoseconds(ps *big.Int) Fixed128Time {
	return Fixed128Time{picoseconds: new(big.Int).Set(ps)}
}

func (t Fixed128Time) ps() *big.Int {
	if t.picoseconds == nil {
		return new(big.Int)
	}
	return t.picoseconds
}

func (t Fixed128Time) Add(d Duration) Time {
	if d < 0 {
		panic("clock: Fixed128Time.Add called with negative duration")
	}
	delta := NewFixed128Seconds(float64(d))
	sum := new(big.Int).Add(t.ps(), delta.ps())
	return Fixed128Time{picoseconds: sum}
}

func (t Fixed128Time) Sub(other Time) (Duration, error) {
	o, ok := other.(Fixed128Time)
	if !ok {
		return 0, errBackendMismatch(t, other)
	}
	delta := new(big.Int).Sub(t.ps(), o.ps())
	if delta.Sign() < 0 {
		return 0, ErrNegativeDuration
	}
	f := new(big.Float).SetInt(delta)
	f.Quo(f, big.NewFloat(picosecondsPerSecond))
	seconds, _ := f.Float64()
	return Duration(seconds), nil
}

func (t Fixed128Time) Compare(other Time) int {
	o, ok := other.(Fixed128Time)
	if !ok {
		panic("clock: Fixed128Time.Compare called with a different backend")
	}
	return t.ps().Cmp(o.ps())
}

func (t Fixed128Time) Seconds() float64 {
	f := new(big.Float).SetInt(t.ps())
	f.Quo(f, big.NewFloat(picosecondsPerSecond))
	seconds, _ := f.Float64()
	return seconds
}

func (t Fixed128Time) String() string {
	return formatDuration(t.Seconds())
}

// PicosecondsString renders the exact picosecond count, useful for tests
// that want to assert on the fixed-point value without float round-trip.
func (t Fixed128Time) PicosecondsString() string {
	return fmt.Sprintf("%sps", t.ps().String())
}

// Package config groups the recognized configuration options for a
// simulation run (spec.md §6 "Configuration surface"), the same way the
// teacher groups related knobs into small structs with inline field
// comments stating defaults and constraints (sim/config.go).
package config

import "github.com/inference-sim/desim/clock"

// FailurePolicy decides what happens to the run after a HandlerPanic.
type FailurePolicy string

const (
	// AbortOnFirst stops the run with reason Failed on the first
	// unrecoverable error.
	AbortOnFirst FailurePolicy = "AbortOnFirst"
	// ContinueLogged marks the offending module poisoned and continues
	// dispatching other events.
	ContinueLogged FailurePolicy = "ContinueLogged"
)

// JitterDistribution selects how Channel samples jitter (spec.md §4.F).
type JitterDistribution string

const (
	JitterUniform JitterDistribution = "Uniform"
	JitterNormal  JitterDistribution = "Normal"
	JitterZero    JitterDistribution = "Zero"
)

// DefaultSeed matches the teacher's convention of a memorable non-zero
// default seed rather than 0, so a config left at defaults still behaves
// deterministically and visibly differs from the zero value.
const DefaultSeed uint64 = 0x1234_5678

// Config holds the options named in spec.md §6. MaxEvents and MaxSimTime
// are optional bounds: a nil MaxEvents means no event cap, and MaxSimTime
// is honored only when HasMaxTime is true.
type Config struct {
	Seed uint64 // PRNG seed, default DefaultSeed

	MaxEvents   *uint64    // optional cap on dispatched event count
	MaxSimTime  clock.Time // optional cap on simulated time; ignored unless HasMaxTime
	HasMaxTime  bool       // true iff MaxSimTime is set

	FailurePolicy      FailurePolicy
	JitterDistribution JitterDistribution
	TimeBackend        clock.Backend

	// StrictContext enables runtime panics when ambient Module Context
	// accessors are invoked outside a handler invocation (spec.md §4.G).
	// Defaults to true; the teacher favors loud panics over silent UB.
	StrictContext bool
}

// Default returns a Config populated with spec.md's documented defaults.
func Default() Config {
	return Config{
		Seed:               DefaultSeed,
		FailurePolicy:      ContinueLogged,
		JitterDistribution: JitterUniform,
		TimeBackend:        clock.BackendFloat64,
		StrictContext:      true,
	}
}

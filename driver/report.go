// Package driver implements the Runtime Driver (spec.md §4.K): the
// top-level run(spec, seed, stop_condition) -> RunReport contract that
// builds a tree from a buildspec.Spec, runs at_sim_start/the dispatch
// loop/at_sim_end, and reports the outcome. Grounded on
// sim/cluster/cluster.go's Run() (build, then drive instances to
// completion, then collect results) and sim/simulator.go's level of
// logrus granularity (Info for milestones, Warn for anomalies, Debug per
// event).
package driver

import "github.com/inference-sim/desim/engine"

// RunReport is the top-level result of a run (spec.md §6 "Return value").
type RunReport struct {
	EventsDispatched uint64
	EndTime          float64
	Reason           engine.Reason
	Errors           []error
}

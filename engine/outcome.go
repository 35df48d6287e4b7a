// Package engine implements the Event Dispatcher (spec.md §4.C): the single
// step() operation that pops the Calendar Queue's minimum event, advances
// simulated time to it, and branches on event kind to drive Handler
// Invocation, task-poll wakeups, and subtree teardown. It sits above
// kernel, network, and modctx — it is not part of kernel itself because
// dispatch needs the Module Tree and Gate Graph to resolve a delivery and
// the modctx.Runtime to invoke a handler, and kernel must stay free of those
// dependencies to avoid an import cycle (kernel is imported by both
// network and modctx). Grounded on the teacher's sim/simulator.go
// Simulator.Run(), which pops the event heap and calls ev.Execute(sim) in a
// tight loop with no regression check — generalized here into an explicit
// step() returning a result instead of looping internally, so the
// driver package owns the loop and the pre/post lifecycle hooks around it.
package engine

import (
	"github.com/inference-sim/desim/clock"
)

// Reason is the StepOutcome termination reason (spec.md §6 "RunReport.reason").
type Reason uint8

const (
	// ReasonNone is the zero value, valid only when StepOutcome.Advanced is true.
	ReasonNone Reason = iota
	ReasonQueueDrained
	ReasonBounded
	ReasonRequested
	ReasonFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonQueueDrained:
		return "QueueDrained"
	case ReasonBounded:
		return "Bounded"
	case ReasonRequested:
		return "Requested"
	case ReasonFailed:
		return "Failed"
	default:
		return "None"
	}
}

// StepOutcome is the tagged result of one Step call: either Advanced(time)
// or Terminated(reason), matching spec.md §4.C's StepOutcome sum type.
type StepOutcome struct {
	Advanced bool
	Time     clock.Time

	Reason Reason
	Err    error // non-nil iff Reason == ReasonFailed
}

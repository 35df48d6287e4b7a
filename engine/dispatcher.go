package engine

import (
	"github.com/inference-sim/desim/clock"
	"github.com/inference-sim/desim/config"
	"github.com/inference-sim/desim/kernel"
	"github.com/inference-sim/desim/modctx"
	"github.com/inference-sim/desim/trace"
)

// WakeupCallback is invoked for a dispatched Wakeup event. taskID is the
// opaque value the module originally registered; the callback decides what
// it means and reacts (typically by calling back into the module's handler
// through Invoke, or scheduling further events).
type WakeupCallback func(now clock.Time, target kernel.ModuleID, taskID any)

// Engine drives one simulation's Calendar Queue: Step pops the minimum
// event, advances simulated time, and branches on event kind (spec.md
// §4.C). It holds no state the modctx.Runtime doesn't already own besides
// the current time and dispatched-event counter, since Queue/Tree/Graph all
// live on Runtime.
type Engine struct {
	Runtime *modctx.Runtime
	Config  config.Config

	// WakeupHandler handles Wakeup events. If nil, a Wakeup is delivered as
	// an ordinary message to the target module's handler (Content = taskID),
	// honoring its hook chain like any other event.
	WakeupHandler WakeupCallback

	now        clock.Time
	dispatched uint64
}

// New returns an Engine with simulated time at zero for cfg's time backend.
func New(rt *modctx.Runtime, cfg config.Config) *Engine {
	return &Engine{Runtime: rt, Config: cfg, now: clock.Zero(cfg.TimeBackend)}
}

// Now returns the simulated time as of the last dispatched event.
func (e *Engine) Now() clock.Time { return e.now }

// EventsDispatched returns the number of events popped so far.
func (e *Engine) EventsDispatched() uint64 { return e.dispatched }

// Step pops and dispatches one event (spec.md §4.C). Errors encountered
// while handling the event are non-fatal and recorded on Runtime.Errors;
// Step itself only fails (Reason == ReasonFailed) on an InvariantViolation
// such as a time regression.
func (e *Engine) Step() StepOutcome {
	if e.Config.MaxEvents != nil && e.dispatched >= *e.Config.MaxEvents {
		return StepOutcome{Reason: ReasonBounded}
	}
	if e.Config.HasMaxTime && e.now.Compare(e.Config.MaxSimTime) >= 0 {
		return StepOutcome{Reason: ReasonBounded}
	}

	ev, ok := e.Runtime.Queue.PopMin()
	if !ok {
		return StepOutcome{Reason: ReasonQueueDrained}
	}
	if ev.ScheduledTime.Compare(e.now) < 0 {
		err := &kernel.InvariantViolationError{Detail: "dispatched event's scheduled time precedes current simulated time"}
		e.Runtime.Errors = append(e.Runtime.Errors, err)
		return StepOutcome{Reason: ReasonFailed, Err: err}
	}
	e.now = ev.ScheduledTime
	e.dispatched++

	trace.Emit(e.Runtime.Sink, trace.Record{
		Kind:      trace.KindDispatch,
		EventID:   ev.SequenceID,
		EventKind: ev.Kind.String(),
		Time:      e.now.Seconds(),
	})

	switch ev.Kind {
	case kernel.KindMessageArrival:
		target := ev.Arrival.TargetGate.Module
		if err := e.Runtime.Invoke(e.now, target, ev.Arrival.Message); err != nil {
			e.handleInvokeErr(err)
		}
	case kernel.KindSelfMessage:
		if err := e.Runtime.Invoke(e.now, ev.Self.Target, ev.Self.Message); err != nil {
			e.handleInvokeErr(err)
		}
	case kernel.KindWakeup:
		e.dispatchWakeup(ev.Wakeup)
	case kernel.KindShutdownRequest:
		e.teardown(ev.Shutdown.Target)
	case kernel.KindSimulationEnd:
		return StepOutcome{Reason: ReasonRequested}
	}

	if e.Config.MaxEvents != nil && e.dispatched >= *e.Config.MaxEvents {
		return StepOutcome{Reason: ReasonBounded}
	}
	if e.Config.HasMaxTime && e.now.Compare(e.Config.MaxSimTime) >= 0 {
		return StepOutcome{Reason: ReasonBounded}
	}
	return StepOutcome{Advanced: true, Time: e.now}
}

// handleInvokeErr surfaces a HandlerPanicError per the configured failure
// policy: AbortOnFirst turns it into a hard stop that the driver applies
// when it sees Runtime.Errors non-empty after this Step returns;
// ContinueLogged (the default) just lets the
// poisoned module sit out future events, already handled by Invoke's
// poisoned-module skip.
func (e *Engine) handleInvokeErr(err error) {
	// Invoke already appended err to Runtime.Errors and emitted a trace
	// record; AbortOnFirst's effect is realized by the driver checking
	// Runtime.Errors after each Step, not by the dispatcher itself
	// terminating mid-event (spec.md §7: "policy decides", checked at the
	// driver level so one poisoned module doesn't corrupt in-flight state).
	_ = err
}

func (e *Engine) dispatchWakeup(payload *kernel.WakeupPayload) {
	if e.WakeupHandler != nil {
		e.WakeupHandler(e.now, payload.Target, payload.TaskID)
		return
	}
	msg := kernel.Message{Header: kernel.MessageHeader{Kind: "wakeup", CreatedAt: e.now}, Content: payload.TaskID}
	if err := e.Runtime.Invoke(e.now, payload.Target, msg); err != nil {
		e.handleInvokeErr(err)
	}
}

// teardown implements shutdown(delta)'s dispatch-time effect (spec.md §4.C,
// §5 "Cancellation"): at_sim_end runs post-order on every member of the
// subtree while tree records still resolve, then the subtree is removed
// from the Module Tree, then every queued event targeting a member is
// cancelled.
func (e *Engine) teardown(root kernel.ModuleID) {
	members := e.Runtime.Tree.PostOrderSubtree(root)
	if len(members) == 0 {
		return
	}
	for _, id := range members {
		if err := e.Runtime.InvokeEnd(e.now, id); err != nil {
			e.handleInvokeErr(err)
		}
	}
	e.Runtime.Tree.RemoveSubtree(root)

	inSubtree := make(map[kernel.ModuleID]bool, len(members))
	for _, id := range members {
		inSubtree[id] = true
	}
	e.Runtime.Queue.Cancel(func(ev kernel.Event) bool {
		if ev.Kind == kernel.KindMessageArrival {
			return inSubtree[ev.Arrival.TargetGate.Module]
		}
		target, ok := ev.Target()
		return ok && inSubtree[target]
	})
}

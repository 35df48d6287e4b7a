package kernel

import "github.com/inference-sim/desim/clock"

// Kind is the closed set of event variants (spec.md §3 "Event"). Event is
// modeled as a single tagged-variant struct rather than an interface with
// one concrete type per kind (the teacher's sim/event.go ArrivalEvent /
// ProcessBatchEvent pattern) and rather than boxed trait objects — per the
// design note in spec.md §9, dispatch on a closed sum type compiles to a
// single jump table instead of a dynamic dispatch per event.
type Kind uint8

const (
	KindMessageArrival Kind = iota
	KindSelfMessage
	KindWakeup
	KindShutdownRequest
	KindSimulationEnd
)

func (k Kind) String() string {
	switch k {
	case KindMessageArrival:
		return "MessageArrival"
	case KindSelfMessage:
		return "SelfMessage"
	case KindWakeup:
		return "Wakeup"
	case KindShutdownRequest:
		return "ShutdownRequest"
	case KindSimulationEnd:
		return "SimulationEnd"
	default:
		return "Unknown"
	}
}

// ArrivalPayload is populated iff Kind == KindMessageArrival: a message
// inbound at a specific gate.
type ArrivalPayload struct {
	Message    Message
	TargetGate Address
}

// SelfPayload is populated iff Kind == KindSelfMessage: a message looped
// back to a module's own handler.
type SelfPayload struct {
	Message Message
	Target  ModuleID
}

// WakeupPayload is populated iff Kind == KindWakeup: an opaque identifier
// handed to the registered task-poll callback (spec.md §4.C, §5).
type WakeupPayload struct {
	TaskID any
	Target ModuleID
}

// ShutdownPayload is populated iff Kind == KindShutdownRequest: the
// subtree root to tear down.
type ShutdownPayload struct {
	Target ModuleID
}

// Event is a single immutable unit of scheduled work (spec.md §3). Exactly
// one of Arrival/Self/Wakeup/Shutdown is non-nil, matching Kind; none are
// set for KindSimulationEnd.
type Event struct {
	ScheduledTime clock.Time
	SequenceID    uint64
	Kind          Kind

	Arrival  *ArrivalPayload
	Self     *SelfPayload
	Wakeup   *WakeupPayload
	Shutdown *ShutdownPayload
}

// NewArrivalEvent builds a MessageArrival event. SequenceID is assigned by
// the CalendarQueue at push time (spec.md §3 "assigned at insertion").
func NewArrivalEvent(at clock.Time, msg Message, target Address) Event {
	return Event{ScheduledTime: at, Kind: KindMessageArrival, Arrival: &ArrivalPayload{Message: msg, TargetGate: target}}
}

// NewSelfEvent builds a SelfMessage event.
func NewSelfEvent(at clock.Time, msg Message, target ModuleID) Event {
	return Event{ScheduledTime: at, Kind: KindSelfMessage, Self: &SelfPayload{Message: msg, Target: target}}
}

// NewWakeupEvent builds a Wakeup event.
func NewWakeupEvent(at clock.Time, taskID any, target ModuleID) Event {
	return Event{ScheduledTime: at, Kind: KindWakeup, Wakeup: &WakeupPayload{TaskID: taskID, Target: target}}
}

// NewShutdownEvent builds a ShutdownRequest event.
func NewShutdownEvent(at clock.Time, target ModuleID) Event {
	return Event{ScheduledTime: at, Kind: KindShutdownRequest, Shutdown: &ShutdownPayload{Target: target}}
}

// NewSimulationEndEvent builds a SimulationEnd event.
func NewSimulationEndEvent(at clock.Time) Event {
	return Event{ScheduledTime: at, Kind: KindSimulationEnd}
}

// Target returns the module this event is ultimately addressed to, where
// applicable (MessageArrival resolves through the Gate Graph instead, so it
// has no single target module here — ok is false).
func (e Event) Target() (ModuleID, bool) {
	switch e.Kind {
	case KindSelfMessage:
		return e.Self.Target, true
	case KindWakeup:
		return e.Wakeup.Target, true
	case KindShutdownRequest:
		return e.Shutdown.Target, true
	default:
		return 0, false
	}
}

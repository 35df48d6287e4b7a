package kernel

import (
	"fmt"

	"github.com/inference-sim/desim/clock"
)

// ModuleID identifies a module instance (spec.md §3 "Module Instance").
type ModuleID int64

// GateID names a gate within a module's gate table — (name, cluster index).
type GateID struct {
	Name  string
	Index int
}

func (g GateID) String() string {
	if g.Index == 0 {
		return g.Name
	}
	return fmt.Sprintf("%s[%d]", g.Name, g.Index)
}

// Address identifies a module+gate endpoint, used in a Message header as
// source/destination (spec.md §3 "Message").
type Address struct {
	Module ModuleID
	Gate   GateID
}

// MessageHeader carries the source/destination/creation metadata of a
// Message (spec.md §3).
type MessageHeader struct {
	Source      Address
	Destination Address
	CreatedAt   clock.Time
	Sequence    uint64
	Kind        string
}

// Message is the user-visible record carried by MessageArrival and
// SelfMessage events. Content is an opaque payload owned by exactly one
// event at a time (spec.md §3 ownership invariant) — callers must not
// retain a Message reference across a handoff without the kernel's
// knowledge, since ownership transfer is by convention, not enforced by the
// type system (matching Go's usual pointer-aliasing discipline, not a
// borrow checker).
type Message struct {
	Header  MessageHeader
	Content any

	// SizeBits is the wire size used by Channel transmission arithmetic
	// (spec.md §3 "Channel"). Zero is a valid size (e.g. control messages).
	SizeBits uint64
}

// Clone returns a shallow copy of m suitable for handing to a new event —
// Content is not deep-copied (it is opaque to the kernel).
func (m Message) Clone() Message {
	return m
}

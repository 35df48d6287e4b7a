// Package trace implements the observability sink from spec.md §6: an
// optional callback fed a stream of TraceRecords in dispatch order. Modeled
// on the teacher's sim/trace package (TraceLevel/TraceConfig/append-only
// Record* methods), generalized from an LLM-routing-specific trace to the
// four generic record kinds spec.md names, and "BC-1: zero overhead when
// disabled" — Emit is a no-op when the sink is nil, no allocation.
package trace

import "fmt"

// Kind identifies a TraceRecord variant.
type Kind uint8

const (
	KindDispatch Kind = iota
	KindSend
	KindDrop
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindDispatch:
		return "Dispatch"
	case KindSend:
		return "Send"
	case KindDrop:
		return "Drop"
	case KindError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Record is one observability event. Only the fields relevant to Kind are
// populated; zero values are used otherwise.
type Record struct {
	Kind Kind

	// Dispatch
	EventID   uint64
	EventKind string
	Time      float64

	// Send
	SrcGate string
	DstGate string

	// Drop
	ChannelID string
	Reason    string

	// Error
	ModuleID int64
	Detail   string
}

func (r Record) String() string {
	switch r.Kind {
	case KindDispatch:
		return fmt.Sprintf("Dispatch(id=%d, kind=%s, t=%v)", r.EventID, r.EventKind, r.Time)
	case KindSend:
		return fmt.Sprintf("Send(%s -> %s, t=%v)", r.SrcGate, r.DstGate, r.Time)
	case KindDrop:
		return fmt.Sprintf("Drop(channel=%s, reason=%s)", r.ChannelID, r.Reason)
	case KindError:
		return fmt.Sprintf("Error(module=%d, detail=%s)", r.ModuleID, r.Detail)
	default:
		return "Record(?)"
	}
}

// Sink receives TraceRecords in dispatch order. Implementations must not
// retain the Record beyond the call (it is passed by value so this is moot,
// but mirrors the teacher's append-only discipline).
type Sink interface {
	Emit(Record)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Record)

func (f SinkFunc) Emit(r Record) { f(r) }

// Collector is the in-memory Sink used by tests and by callers who want the
// full trace rather than a streaming callback, grounded on
// sim/trace/trace.go's SimulationTrace append-only record slices.
type Collector struct {
	Records []Record
}

// NewCollector returns a ready-to-use Collector.
func NewCollector() *Collector {
	return &Collector{Records: make([]Record, 0)}
}

func (c *Collector) Emit(r Record) {
	c.Records = append(c.Records, r)
}

// Emit sends r to sink if sink is non-nil. Safe to call with a nil sink
// (BC-1: zero overhead when tracing is disabled).
func Emit(sink Sink, r Record) {
	if sink == nil {
		return
	}
	sink.Emit(r)
}

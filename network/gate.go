package network

import (
	"fmt"

	"github.com/inference-sim/desim/clock"
	"github.com/inference-sim/desim/kernel"
)

// Direction is a gate's direction tag (spec.md §3 "Gate").
type Direction uint8

const (
	DirInput Direction = iota
	DirOutput
	DirBidirectional
)

func (d Direction) String() string {
	switch d {
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	case DirBidirectional:
		return "bidirectional"
	default:
		return "unknown"
	}
}

// gateRecord is one named, indexed port on a module (spec.md §3 "Gate").
// Next/Prev store Addresses (ids), not pointers — gate→owner and
// link-to-link references are weak by the same id-indexed-arena discipline
// as the Module Tree.
type gateRecord struct {
	owner       kernel.ModuleID
	name        string
	index       int
	clusterSize int
	direction   Direction
	next        *kernel.Address // forward link; nil = chain terminus
	prev        *kernel.Address // back link
	channelID   string          // channel attached to the (this gate -> next) link, "" if none
}

// Graph is the Gate Graph (spec.md §4.E): flat gate records indexed by
// (module id, gate name, cluster index), plus the channels attached to
// their edges.
type Graph struct {
	gates    map[kernel.Address]*gateRecord
	channels map[string]*Channel
}

// NewGraph returns an empty, ready-to-use Graph.
func NewGraph() *Graph {
	return &Graph{
		gates:    make(map[kernel.Address]*gateRecord),
		channels: make(map[string]*Channel),
	}
}

// CreateCluster declares a named gate cluster of size gates on module,
// each indexed 0..size-1 (size==1 for a plain, non-clustered gate).
func (g *Graph) CreateCluster(module kernel.ModuleID, name string, size int, dir Direction) error {
	if size < 1 {
		return fmt.Errorf("network: gate cluster %q on module %d: size must be >= 1, got %d", name, module, size)
	}
	for i := 0; i < size; i++ {
		addr := kernel.Address{Module: module, Gate: kernel.GateID{Name: name, Index: i}}
		if _, exists := g.gates[addr]; exists {
			return fmt.Errorf("network: gate %s already declared on module %d", addr.Gate, module)
		}
		g.gates[addr] = &gateRecord{owner: module, name: name, index: i, clusterSize: size, direction: dir}
	}
	return nil
}

// Gate reports the direction and cluster size of a declared gate.
func (g *Graph) Gate(addr kernel.Address) (direction Direction, clusterSize int, ok bool) {
	rec, found := g.gates[addr]
	if !found {
		return 0, 0, false
	}
	return rec.direction, rec.clusterSize, true
}

// ErrAlreadyConnected is returned by Connect when either endpoint already
// has a link in the requested direction (spec.md §4.E).
var ErrAlreadyConnected = fmt.Errorf("network: gate already connected")

// Connect appends an src→dst link, optionally attaching channelID (must
// already exist in the Graph via RegisterChannel). Validity rules (spec.md
// §4.E): output→input or bidirectional↔bidirectional; cluster sizes of the
// two endpoints must match; a single Connect call is one physical edge
// carrying at most one channel.
func (g *Graph) Connect(src, dst kernel.Address, channelID string) error {
	srcRec, ok := g.gates[src]
	if !ok {
		return fmt.Errorf("network: connect: source gate %v not declared", src)
	}
	dstRec, ok := g.gates[dst]
	if !ok {
		return fmt.Errorf("network: connect: destination gate %v not declared", dst)
	}
	if err := validateDirection(srcRec.direction, dstRec.direction); err != nil {
		return err
	}
	if srcRec.clusterSize != dstRec.clusterSize {
		return fmt.Errorf("network: connect %v -> %v: cluster size mismatch (%d != %d)", src, dst, srcRec.clusterSize, dstRec.clusterSize)
	}
	if srcRec.next != nil {
		return fmt.Errorf("network: connect %v -> %v: %w (source already has a forward link)", src, dst, ErrAlreadyConnected)
	}
	if dstRec.prev != nil {
		return fmt.Errorf("network: connect %v -> %v: %w (destination already has a back link)", src, dst, ErrAlreadyConnected)
	}
	if channelID != "" {
		if _, exists := g.channels[channelID]; !exists {
			return fmt.Errorf("network: connect %v -> %v: channel %q not registered", src, dst, channelID)
		}
	}
	dstCopy := dst
	srcCopy := src
	srcRec.next = &dstCopy
	srcRec.channelID = channelID
	dstRec.prev = &srcCopy
	return nil
}

func validateDirection(src, dst Direction) error {
	switch {
	case src == DirOutput && dst == DirInput:
		return nil
	case src == DirBidirectional && dst == DirBidirectional:
		return nil
	default:
		return fmt.Errorf("network: direction mismatch connecting %s -> %s", src, dst)
	}
}

// RegisterChannel attaches a Channel under id so future Connect calls may
// reference it.
func (g *Graph) RegisterChannel(id string, ch *Channel) {
	g.channels[id] = ch
}

// Channel returns the registered channel by id, if any.
func (g *Graph) Channel(id string) (*Channel, bool) {
	ch, ok := g.channels[id]
	return ch, ok
}

// ResolveTerminus walks forward links from start until a gate with no
// forward link (the chain terminus) is reached.
func (g *Graph) ResolveTerminus(start kernel.Address) (kernel.Address, error) {
	cur := start
	seen := map[kernel.Address]bool{}
	for {
		if seen[cur] {
			return kernel.Address{}, fmt.Errorf("network: gate chain from %v contains a cycle", start)
		}
		seen[cur] = true
		rec, ok := g.gates[cur]
		if !ok {
			return kernel.Address{}, fmt.Errorf("network: gate %v not declared", cur)
		}
		if rec.next == nil {
			return cur, nil
		}
		cur = *rec.next
	}
}

// RouteResult reports the outcome of Route.
type RouteResult struct {
	Delivered     bool
	Terminus      kernel.Address
	ArrivalAt     clock.Time
	Dropped       bool
	DropChannelID string
}

// Route walks the forward chain from outbound, applying each attached
// channel's transit arithmetic in turn, and returns the terminus address
// and cumulative arrival time (spec.md §4.E). A dangling output gate (no
// forward link and nothing downstream to receive the message) or a channel
// whose queue is at capacity both drop the message rather than aborting the
// run: Route returns a non-nil, non-fatal *RouteError/*ChannelDropError the
// caller surfaces to RunReport.errors and the trace sink (spec.md §7). A
// channel drop is also flagged in RouteResult (Dropped, DropChannelID); a
// RouteError comes with a zero RouteResult.
func (g *Graph) Route(outbound kernel.Address, msg kernel.Message, now clock.Time, rngFor RNGProvider) (RouteResult, error) {
	srcRec, ok := g.gates[outbound]
	if !ok {
		return RouteResult{}, &RouteError{Gate: fmt.Sprint(outbound), Reason: "gate not declared"}
	}
	if srcRec.direction == DirInput {
		return RouteResult{}, &RouteError{Gate: fmt.Sprint(outbound), Reason: "input gate cannot originate a send"}
	}

	cur := outbound
	at := now
	seen := map[kernel.Address]bool{}
	for {
		if seen[cur] {
			return RouteResult{}, fmt.Errorf("network: gate chain from %v contains a cycle", outbound)
		}
		seen[cur] = true
		rec := g.gates[cur]
		if rec.next == nil {
			if rec.direction == DirOutput {
				return RouteResult{}, &RouteError{Gate: fmt.Sprint(cur), Reason: "chain terminates on an unconnected output gate (no sink)"}
			}
			return RouteResult{Delivered: true, Terminus: cur, ArrivalAt: at}, nil
		}
		if rec.channelID != "" {
			ch := g.channels[rec.channelID]
			arrival, ok := ch.Offer(at, msg, rngFor(rec.channelID))
			if !ok {
				return RouteResult{Dropped: true, DropChannelID: rec.channelID}, &ChannelDropError{ChannelID: rec.channelID}
			}
			at = arrival
		}
		cur = *rec.next
	}
}

// RNGSource is the minimal RNG surface Channel needs to sample jitter —
// a uniform draw in [0, 1) — satisfied directly by *rand.Rand. Kept as an
// interface so tests can supply a fixed sequence without a real PRNG.
type RNGSource interface {
	Float64() float64
}

// RNGProvider returns the RNG stream to use for a given channel id, so each
// channel in a multi-hop chain draws jitter from its own deterministic
// partitioned stream (spec.md §8 property 2) rather than sharing one stream
// across every hop.
type RNGProvider func(channelID string) RNGSource

// Package modctx implements the ambient Module Context, the Hook Chain, and
// Handler Invocation (spec.md §4.G, §4.H, §4.I). The "ambient current
// module" state is modeled as an explicit scoped handle (*Context) rather
// than a package-level global or true goroutine-local storage — per the
// design note in spec.md §9 ("Ambient module context → explicit
// thread-local scoped handle"), this is the idiomatic-Go rendition: each
// invocation pushes its module onto the Runtime's context stack and pops it
// on return, and the invocation's Context is then marked invalid, so in
// strict mode any later accessor call panics instead of silently reading
// stale state.
//
// Hooks implement a single capability (TryHandle) and run in priority order
// ahead of the user handler, whose OnMessage is the implicit final element
// of the chain, grounded on
// the teacher's scorer-chain idiom (sim/routing_scorers.go: named, weighted,
// priority-ordered extension points, not a subclassing hierarchy).
package modctx

import (
	"sort"

	"github.com/inference-sim/desim/kernel"
	"github.com/inference-sim/desim/network"
	"github.com/inference-sim/desim/trace"
)

// Handler is the user-visible per-module callback set (spec.md §6 "Handler
// factory interface" start_hook/message_hook/end_hook, bound to Go methods
// instead of a literal tuple).
type Handler interface {
	OnStart(ctx *Context)
	OnMessage(ctx *Context, msg kernel.Message)
	OnEnd(ctx *Context)
}

// Hook is a stateful, prioritized interceptor that may consume a message
// before it reaches the handler (spec.md §3 "Hook").
type Hook interface {
	TryHandle(ctx *Context, msg kernel.Message) (consumed bool, passed kernel.Message)
}

type hookEntry struct {
	hook     Hook
	priority int
	seq      uint64
	id       uint64
}

// HookHandle identifies an installed hook for later removal.
type HookHandle struct {
	module kernel.ModuleID
	id     uint64
}

// Runtime ties the Module Tree and Gate Graph to per-module handlers and
// hook chains, and owns the single ambient context stack (spec.md §4.G).
// One Runtime belongs to exactly one simulation and is never shared across
// goroutines (spec.md §5 "Module Context is thread-local").
type Runtime struct {
	Tree  *network.Tree
	Graph *network.Graph
	Queue *kernel.CalendarQueue
	RNG   *kernel.PartitionedRNG
	Sink  trace.Sink

	Strict bool // panic on accessor misuse outside a handler invocation

	// Errors accumulates every non-fatal runtime error (RouteError,
	// ChannelDropError, HandlerPanicError) in occurrence order, mirroring
	// spec.md §7's "Runtime errors are ... recorded in RunReport.errors".
	// driver.Run copies this slice into its RunReport when the simulation
	// ends.
	Errors []error

	handlers map[kernel.ModuleID]Handler
	hooks    map[kernel.ModuleID][]hookEntry
	hookSeq  kernel.SeqCounter
	hookID   uint64
	stack    []kernel.ModuleID
}

// NewRuntime returns a Runtime ready to register handlers/hooks and invoke them.
func NewRuntime(tree *network.Tree, graph *network.Graph, queue *kernel.CalendarQueue, rng *kernel.PartitionedRNG, sink trace.Sink, strict bool) *Runtime {
	return &Runtime{
		Tree:     tree,
		Graph:    graph,
		Queue:    queue,
		RNG:      rng,
		Sink:     sink,
		Strict:   strict,
		handlers: make(map[kernel.ModuleID]Handler),
		hooks:    make(map[kernel.ModuleID][]hookEntry),
	}
}

// RegisterHandler binds h as module's user handler (the implicit final
// element of its hook chain).
func (r *Runtime) RegisterHandler(module kernel.ModuleID, h Handler) {
	r.handlers[module] = h
}

// Handler returns module's registered handler, if any.
func (r *Runtime) Handler(module kernel.ModuleID) (Handler, bool) {
	h, ok := r.handlers[module]
	return h, ok
}

// InstallHook adds hook to module's chain at priority (lower runs first;
// ties broken by installation order) and returns a handle for RemoveHook.
func (r *Runtime) InstallHook(module kernel.ModuleID, hook Hook, priority int) HookHandle {
	r.hookID++
	entry := hookEntry{hook: hook, priority: priority, seq: r.hookSeq.Next(), id: r.hookID}
	r.hooks[module] = append(r.hooks[module], entry)
	return HookHandle{module: module, id: entry.id}
}

// RemoveHook removes a previously installed hook.
func (r *Runtime) RemoveHook(h HookHandle) {
	entries := r.hooks[h.module]
	for i, e := range entries {
		if e.id == h.id {
			r.hooks[h.module] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// sortedHooks returns module's hook chain ordered by (priority, seq).
func (r *Runtime) sortedHooks(module kernel.ModuleID) []hookEntry {
	entries := append([]hookEntry(nil), r.hooks[module]...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
	return entries
}

// enter pushes module onto the ambient context stack.
func (r *Runtime) enter(module kernel.ModuleID) {
	r.stack = append(r.stack, module)
}

// exit pops the ambient context stack.
func (r *Runtime) exit() {
	r.stack = r.stack[:len(r.stack)-1]
}

// rngForChannel returns the partitioned RNG stream that channelID draws its
// jitter from, so each channel in a chain has its own deterministic stream.
func (r *Runtime) rngForChannel(channelID string) network.RNGSource {
	return r.RNG.ForSubsystem("channel:" + channelID)
}

// contextDepth reports how many handler invocations are currently nested
// (normally 0 or 1 — the kernel never dispatches concurrently, §5). Used by
// Context.checkValid to detect a Context escaping its invocation: a stale
// Context is only valid if it is still the one on top of the stack.
func (r *Runtime) contextDepth() int { return len(r.stack) }

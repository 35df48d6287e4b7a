package modctx

import (
	"testing"

	"github.com/inference-sim/desim/clock"
	"github.com/inference-sim/desim/kernel"
	"github.com/inference-sim/desim/network"
	"github.com/inference-sim/desim/trace"
)

func at(seconds float64) clock.Time { return clock.Float64Time(seconds) }

func newTestRuntime(strict bool) (*Runtime, *network.Tree, *network.Graph) {
	tree := network.NewTree()
	graph := network.NewGraph()
	queue := kernel.NewCalendarQueue()
	rng := kernel.NewPartitionedRNG(kernel.NewSimulationKey(1))
	rt := NewRuntime(tree, graph, queue, rng, trace.NewCollector(), strict)
	return rt, tree, graph
}

// recordingHandler is a minimal Handler whose OnMessage delegates to a
// configurable closure, letting each test drive a different message-hook
// behavior without a new type per scenario.
type recordingHandler struct {
	onMessage func(ctx *Context, msg kernel.Message)
	called    int
}

func (h *recordingHandler) OnStart(ctx *Context) {}
func (h *recordingHandler) OnMessage(ctx *Context, msg kernel.Message) {
	h.called++
	if h.onMessage != nil {
		h.onMessage(ctx, msg)
	}
}
func (h *recordingHandler) OnEnd(ctx *Context) {}

type alwaysConsumeHook struct{ called int }

func (h *alwaysConsumeHook) TryHandle(ctx *Context, msg kernel.Message) (bool, kernel.Message) {
	h.called++
	return true, msg
}

// TestRuntime_HookConsumesBeforeHandler is scenario S4 from spec.md §8: an
// installed hook that always consumes a message prevents the handler from
// ever seeing it.
func TestRuntime_HookConsumesBeforeHandler(t *testing.T) {
	rt, tree, graph := newTestRuntime(true)
	consumer, err := tree.Insert(0, false, "consumer")
	if err != nil {
		t.Fatal(err)
	}
	if err := graph.CreateCluster(consumer, "in", 1, network.DirInput); err != nil {
		t.Fatal(err)
	}

	handler := &recordingHandler{}
	rt.RegisterHandler(consumer, handler)
	hook := &alwaysConsumeHook{}
	rt.InstallHook(consumer, hook, 0)

	if err := rt.Invoke(at(0), consumer, kernel.Message{}); err != nil {
		t.Fatal(err)
	}
	if hook.called != 1 {
		t.Fatalf("hook.called = %d, want 1", hook.called)
	}
	if handler.called != 0 {
		t.Fatalf("handler.called = %d, want 0 (hook should have consumed the message)", handler.called)
	}
}

// TestRuntime_FlushPreservesSendOrder is property 4 from spec.md §8: buffered
// Context.Send calls are flushed in call order, so two sends made at the
// same simulated time reach the CalendarQueue with ascending sequence ids in
// call order (and therefore pop in that order).
func TestRuntime_FlushPreservesSendOrder(t *testing.T) {
	rt, tree, graph := newTestRuntime(true)
	producer, err := tree.Insert(0, false, "producer")
	if err != nil {
		t.Fatal(err)
	}
	c1, _ := tree.Insert(0, false, "c1")
	c2, _ := tree.Insert(0, false, "c2")
	graph.CreateCluster(producer, "out1", 1, network.DirOutput)
	graph.CreateCluster(producer, "out2", 1, network.DirOutput)
	graph.CreateCluster(c1, "in", 1, network.DirInput)
	graph.CreateCluster(c2, "in", 1, network.DirInput)

	out1 := kernel.Address{Module: producer, Gate: kernel.GateID{Name: "out1"}}
	out2 := kernel.Address{Module: producer, Gate: kernel.GateID{Name: "out2"}}
	in1 := kernel.Address{Module: c1, Gate: kernel.GateID{Name: "in"}}
	in2 := kernel.Address{Module: c2, Gate: kernel.GateID{Name: "in"}}
	if err := graph.Connect(out1, in1, ""); err != nil {
		t.Fatal(err)
	}
	if err := graph.Connect(out2, in2, ""); err != nil {
		t.Fatal(err)
	}

	handler := &recordingHandler{onMessage: func(ctx *Context, msg kernel.Message) {
		ctx.Send(kernel.Message{Content: "first"}, kernel.GateID{Name: "out1"})
		ctx.Send(kernel.Message{Content: "second"}, kernel.GateID{Name: "out2"})
	}}
	rt.RegisterHandler(producer, handler)

	if err := rt.Invoke(at(0), producer, kernel.Message{}); err != nil {
		t.Fatal(err)
	}
	if rt.Queue.Len() != 2 {
		t.Fatalf("Queue.Len() = %d, want 2", rt.Queue.Len())
	}
	ev1, _ := rt.Queue.PopMin()
	ev2, _ := rt.Queue.PopMin()
	if ev1.Arrival.TargetGate.Module != c1 {
		t.Fatalf("first popped event targets module %d, want c1 (%d)", ev1.Arrival.TargetGate.Module, c1)
	}
	if ev2.Arrival.TargetGate.Module != c2 {
		t.Fatalf("second popped event targets module %d, want c2 (%d)", ev2.Arrival.TargetGate.Module, c2)
	}
}

// TestContext_AccessAfterInvokeReturnsPanics is property 3 from spec.md §8:
// a Context is valid only for the duration of its invocation; any accessor
// call after the invocation returns panics in strict mode.
func TestContext_AccessAfterInvokeReturnsPanics(t *testing.T) {
	rt, tree, _ := newTestRuntime(true)
	m, _ := tree.Insert(0, false, "m")

	var leaked *Context
	handler := &recordingHandler{onMessage: func(ctx *Context, msg kernel.Message) {
		leaked = ctx
	}}
	rt.RegisterHandler(m, handler)

	if err := rt.Invoke(at(0), m, kernel.Message{}); err != nil {
		t.Fatal(err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic accessing Context after its invocation returned")
		}
	}()
	leaked.Now()
}

// TestRuntime_PanickingHandlerPoisonsModule is spec.md §7 "HandlerPanic":
// a panicking handler marks its module poisoned and further Invoke calls
// are skipped as no-ops.
func TestRuntime_PanickingHandlerPoisonsModule(t *testing.T) {
	rt, tree, _ := newTestRuntime(true)
	m, _ := tree.Insert(0, false, "m")
	calls := 0
	handler := &recordingHandler{onMessage: func(ctx *Context, msg kernel.Message) {
		calls++
		panic("boom")
	}}
	rt.RegisterHandler(m, handler)

	if err := rt.Invoke(at(0), m, kernel.Message{}); err == nil {
		t.Fatal("expected HandlerPanicError")
	}
	if !tree.IsPoisoned(m) {
		t.Fatal("expected module to be poisoned after panic")
	}
	if err := rt.Invoke(at(1), m, kernel.Message{}); err != nil {
		t.Fatalf("invoking a poisoned module should be a silent no-op, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler invoked %d times, want 1 (poisoned module must not be re-entered)", calls)
	}
}

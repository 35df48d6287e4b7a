package engine

import (
	"testing"

	"github.com/inference-sim/desim/clock"
	"github.com/inference-sim/desim/config"
	"github.com/inference-sim/desim/kernel"
	"github.com/inference-sim/desim/modctx"
	"github.com/inference-sim/desim/network"
	"github.com/inference-sim/desim/trace"
)

func at(seconds float64) clock.Time { return clock.Float64Time(seconds) }

func newTestEngine(t *testing.T) (*Engine, *network.Tree) {
	t.Helper()
	tree := network.NewTree()
	graph := network.NewGraph()
	queue := kernel.NewCalendarQueue()
	rng := kernel.NewPartitionedRNG(kernel.NewSimulationKey(1))
	rt := modctx.NewRuntime(tree, graph, queue, rng, trace.NewCollector(), true)
	cfg := config.Default()
	return New(rt, cfg), tree
}

// periodicHandler implements scenario S2 from spec.md §8: schedules itself
// every 1.0s for 10 iterations, then shuts itself down.
type periodicHandler struct{}

func (periodicHandler) OnStart(ctx *modctx.Context) {
	ctx.ScheduleIn(kernel.Message{Content: 1}, 1.0)
}

func (periodicHandler) OnMessage(ctx *modctx.Context, msg kernel.Message) {
	count := msg.Content.(int)
	if count < 10 {
		ctx.ScheduleIn(kernel.Message{Content: count + 1}, 1.0)
		return
	}
	ctx.Shutdown(0)
}

func (periodicHandler) OnEnd(ctx *modctx.Context) {}

// TestEngine_SelfSchedulingPeriodic is scenario S2.
func TestEngine_SelfSchedulingPeriodic(t *testing.T) {
	eng, tree := newTestEngine(t)
	m, err := tree.Insert(0, false, "periodic")
	if err != nil {
		t.Fatal(err)
	}
	eng.Runtime.RegisterHandler(m, periodicHandler{})
	if err := eng.Runtime.InvokeStart(at(0), m); err != nil {
		t.Fatal(err)
	}

	var last StepOutcome
	for {
		out := eng.Step()
		if !out.Advanced {
			last = out
			break
		}
	}
	if last.Reason != ReasonQueueDrained {
		t.Fatalf("Reason = %v, want QueueDrained", last.Reason)
	}
	if eng.EventsDispatched() != 11 {
		t.Fatalf("EventsDispatched() = %d, want 11", eng.EventsDispatched())
	}
	if got := eng.Now().Seconds(); got < 10.0-1e-9 || got > 10.0+1e-9 {
		t.Fatalf("Now() = %v, want 10.0", got)
	}
}

// TestEngine_MonotonicDispatch is property 1 from spec.md §8.
func TestEngine_MonotonicDispatch(t *testing.T) {
	eng, tree := newTestEngine(t)
	m, _ := tree.Insert(0, false, "periodic")
	eng.Runtime.RegisterHandler(m, periodicHandler{})
	eng.Runtime.InvokeStart(at(0), m)

	var lastTime clock.Time
	for {
		out := eng.Step()
		if !out.Advanced {
			break
		}
		if lastTime != nil && out.Time.Compare(lastTime) < 0 {
			t.Fatalf("dispatch time regressed: %v then %v", lastTime, out.Time)
		}
		lastTime = out.Time
	}
}

type endRecordingHandler struct {
	ended *[]kernel.ModuleID
}

func (h endRecordingHandler) OnStart(ctx *modctx.Context)                        {}
func (h endRecordingHandler) OnMessage(ctx *modctx.Context, msg kernel.Message)  {}
func (h endRecordingHandler) OnEnd(ctx *modctx.Context) {
	*h.ended = append(*h.ended, ctx.CurrentID())
}

// TestEngine_SubtreeTeardown is scenario S6: ten future self-messages queued
// on each of four leaf modules under one level-1 parent; a ShutdownRequest
// for the parent at t=1 must drain every queued event targeting the subtree
// and run at_sim_end on each torn-down module in post-order.
func TestEngine_SubtreeTeardown(t *testing.T) {
	eng, tree := newTestEngine(t)
	root, _ := tree.Insert(0, false, "root")
	parent, _ := tree.Insert(root, true, "level1")

	var ended []kernel.ModuleID
	var leaves []kernel.ModuleID
	for i := 0; i < 4; i++ {
		leaf, err := tree.Insert(parent, true, leafName(i))
		if err != nil {
			t.Fatal(err)
		}
		leaves = append(leaves, leaf)
		eng.Runtime.RegisterHandler(leaf, endRecordingHandler{ended: &ended})
		for j := 0; j < 10; j++ {
			eng.Runtime.Queue.Push(kernel.NewSelfEvent(at(float64(2+j)), kernel.Message{}, leaf))
		}
	}
	eng.Runtime.RegisterHandler(parent, endRecordingHandler{ended: &ended})
	eng.Runtime.Queue.Push(kernel.NewShutdownEvent(at(1), parent))

	// Dispatch exactly the Shutdown (it is the minimum-time event).
	out := eng.Step()
	if !out.Advanced {
		t.Fatalf("expected Shutdown to dispatch as Advanced, got Reason=%v", out.Reason)
	}

	if eng.Runtime.Queue.Len() != 0 {
		t.Fatalf("Queue.Len() = %d, want 0 (all subtree events must be cancelled)", eng.Runtime.Queue.Len())
	}
	if len(ended) != 5 {
		t.Fatalf("len(ended) = %d, want 5 (4 leaves + parent)", len(ended))
	}
	// Post-order: every leaf's OnEnd precedes the parent's.
	for i, id := range ended {
		if id == parent && i != len(ended)-1 {
			t.Fatalf("parent OnEnd did not run last: order = %v", ended)
		}
	}
	for _, leaf := range leaves {
		if tree.Exists(leaf) {
			t.Fatalf("leaf %d still exists in tree after teardown", leaf)
		}
	}
}

func leafName(i int) string {
	return string(rune('a' + i))
}

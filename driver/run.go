package driver

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/desim/buildspec"
	"github.com/inference-sim/desim/clock"
	"github.com/inference-sim/desim/config"
	"github.com/inference-sim/desim/engine"
	"github.com/inference-sim/desim/kernel"
	"github.com/inference-sim/desim/modctx"
	"github.com/inference-sim/desim/network"
	"github.com/inference-sim/desim/trace"
)

// Run builds spec and drives it to completion, implementing spec.md §4.K's
// six numbered steps. factories resolves each ModuleSpec.Type to a
// buildspec.HandlerFactory. sink may be nil (BC-1: no tracing overhead).
func Run(spec buildspec.Spec, cfg config.Config, factories map[string]buildspec.HandlerFactory, sink trace.Sink) (RunReport, error) {
	tree := network.NewTree()
	graph := network.NewGraph()
	queue := kernel.NewCalendarQueue()
	rng := kernel.NewPartitionedRNG(kernel.NewSimulationKey(cfg.Seed))
	rt := modctx.NewRuntime(tree, graph, queue, rng, sink, cfg.StrictContext)

	logrus.Infof("driver: building %d module(s)", len(spec.Modules))
	builder := buildspec.NewBuilder(tree, graph, rt, factories)
	declOrder, err := builder.Build(spec, cfg)
	if err != nil {
		return RunReport{}, err
	}

	for _, id := range declOrder {
		if err := rt.InvokeStart(clock.Zero(cfg.TimeBackend), id); err != nil {
			logrus.Warnf("driver: at_sim_start failed on module %d: %v", id, err)
		}
	}

	eng := engine.New(rt, cfg)
	var outcome engine.StepOutcome
	for {
		outcome = eng.Step()
		if outcome.Reason != engine.ReasonNone {
			break
		}
		logrus.Debugf("driver: advanced to t=%v (%d dispatched)", outcome.Time, eng.EventsDispatched())
		if cfg.FailurePolicy == config.AbortOnFirst && len(rt.Errors) > 0 {
			outcome = engine.StepOutcome{Reason: engine.ReasonFailed, Err: rt.Errors[len(rt.Errors)-1]}
			break
		}
	}

	for i := len(declOrder) - 1; i >= 0; i-- {
		id := declOrder[i]
		if !tree.Exists(id) {
			continue
		}
		if err := rt.InvokeEnd(eng.Now(), id); err != nil {
			logrus.Warnf("driver: at_sim_end failed on module %d: %v", id, err)
		}
	}

	logrus.Infof("driver: run complete, reason=%s, events=%d, end_time=%v",
		outcome.Reason, eng.EventsDispatched(), eng.Now())

	return RunReport{
		EventsDispatched: eng.EventsDispatched(),
		EndTime:          eng.Now().Seconds(),
		Reason:           outcome.Reason,
		Errors:           rt.Errors,
	}, nil
}

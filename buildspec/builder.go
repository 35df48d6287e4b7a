package buildspec

import (
	"fmt"
	"strings"

	"github.com/inference-sim/desim/clock"
	"github.com/inference-sim/desim/config"
	"github.com/inference-sim/desim/kernel"
	"github.com/inference-sim/desim/modctx"
	"github.com/inference-sim/desim/network"
)

// HandlerState is the per-instance object bound to a module's OnStart/
// OnMessage/OnEnd callbacks (spec.md §6 "Handler factory interface"). Any
// type satisfying HandlerState also satisfies modctx.Handler: the two are
// structurally identical, HandlerState just gives the Builder's own naming
// a home independent of modctx's.
type HandlerState interface {
	OnStart(ctx *modctx.Context)
	OnMessage(ctx *modctx.Context, msg kernel.Message)
	OnEnd(ctx *modctx.Context)
}

// HandlerFactory allocates a fresh HandlerState for each ModuleSpec whose
// Type names it, registered with the Builder by that type tag.
type HandlerFactory interface {
	NewState() HandlerState
}

// Builder is the component implementing spec.md §4.J: it builds modules in
// declaration order (parents before children — enforced by requiring a
// module's parent path to already be registered), creates gates before
// installing connections, and accumulates every validation failure into one
// BuildError rather than stopping at the first. Grounded on the teacher's
// NewClusterSimulator (sim/cluster/cluster.go): build-time panics there
// become accumulated BuildError entries here, since spec.md requires
// BuildError be "surfaced to the caller of run", not fatal to the process.
type Builder struct {
	Tree      *network.Tree
	Graph     *network.Graph
	Runtime   *modctx.Runtime
	Factories map[string]HandlerFactory
}

// NewBuilder returns a Builder wired to tree/graph/runtime, with factories
// keyed by the type tag ModuleSpec.Type names.
func NewBuilder(tree *network.Tree, graph *network.Graph, rt *modctx.Runtime, factories map[string]HandlerFactory) *Builder {
	return &Builder{Tree: tree, Graph: graph, Runtime: rt, Factories: factories}
}

// Build installs spec's modules, gates, and connections in the order spec.md
// §4.J requires, and returns the resulting module ids in declaration order
// (the order driver.Run uses for at_sim_start/at_sim_end). On any
// validation failure it returns a non-nil *BuildError and no module ids.
func (b *Builder) Build(spec Spec, cfg config.Config) ([]kernel.ModuleID, error) {
	buildErr := &BuildError{}
	pathToID := make(map[string]kernel.ModuleID, len(spec.Modules))
	declOrder := make([]kernel.ModuleID, 0, len(spec.Modules))

	for _, m := range spec.Modules {
		parentPath, name := splitParentPath(m.Path)
		var parentID kernel.ModuleID
		hasParent := parentPath != ""
		if hasParent {
			pid, ok := pathToID[parentPath]
			if !ok {
				buildErr.add(fmt.Errorf("module %q: parent path %q not yet declared", m.Path, parentPath))
				continue
			}
			parentID = pid
		}
		id, err := b.Tree.Insert(parentID, hasParent, name)
		if err != nil {
			buildErr.add(err)
			continue
		}
		pathToID[m.Path] = id
		declOrder = append(declOrder, id)

		factory, ok := b.Factories[m.Type]
		if !ok {
			buildErr.add(fmt.Errorf("module %q: unresolved type %q", m.Path, m.Type))
		} else {
			b.Runtime.RegisterHandler(id, factory.NewState())
		}

		for _, g := range m.Gates {
			dir, err := parseDirection(g.Direction)
			if err != nil {
				buildErr.add(fmt.Errorf("module %q gate %q: %w", m.Path, g.Name, err))
				continue
			}
			size := g.Size
			if size == 0 {
				size = 1
			}
			if err := b.Graph.CreateCluster(id, g.Name, size, dir); err != nil {
				buildErr.add(err)
			}
		}
	}

	zeroTime := clock.Zero(cfg.TimeBackend)
	for _, c := range spec.Connections {
		srcID, ok := pathToID[c.From.Path]
		if !ok {
			buildErr.add(fmt.Errorf("connection %s -> %s: source module %q not declared", endpointString(c.From), endpointString(c.To), c.From.Path))
			continue
		}
		dstID, ok := pathToID[c.To.Path]
		if !ok {
			buildErr.add(fmt.Errorf("connection %s -> %s: destination module %q not declared", endpointString(c.From), endpointString(c.To), c.To.Path))
			continue
		}

		channelID := ""
		if c.Channel != nil {
			channelID = fmt.Sprintf("%s->%s", endpointString(c.From), endpointString(c.To))
			params := network.ChannelParams{
				BitrateBPS: c.Channel.BitrateBPS,
				LatencyS:   c.Channel.LatencyS,
				JitterS:    c.Channel.JitterS,
				QueueSize:  c.Channel.QueueSize,
			}
			ch, err := network.NewChannel(channelID, params, zeroTime, cfg.TimeBackend, cfg.JitterDistribution)
			if err != nil {
				buildErr.add(fmt.Errorf("connection %s -> %s: %w", endpointString(c.From), endpointString(c.To), err))
				continue
			}
			b.Graph.RegisterChannel(channelID, ch)
		}

		srcAddr := kernel.Address{Module: srcID, Gate: kernel.GateID{Name: c.From.Gate, Index: c.From.Index}}
		dstAddr := kernel.Address{Module: dstID, Gate: kernel.GateID{Name: c.To.Gate, Index: c.To.Index}}
		if err := b.Graph.Connect(srcAddr, dstAddr, channelID); err != nil {
			buildErr.add(err)
		}
	}

	if err := buildErr.asError(); err != nil {
		return nil, err
	}
	return declOrder, nil
}

func splitParentPath(path string) (parent, name string) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

func parseDirection(s string) (network.Direction, error) {
	switch s {
	case "input":
		return network.DirInput, nil
	case "output":
		return network.DirOutput, nil
	case "bidirectional":
		return network.DirBidirectional, nil
	default:
		return 0, fmt.Errorf("unknown gate direction %q", s)
	}
}

func endpointString(e EndpointSpec) string {
	return fmt.Sprintf("%s.%s[%d]", e.Path, e.Gate, e.Index)
}

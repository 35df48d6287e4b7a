package desim

import (
	"github.com/inference-sim/desim/buildspec"
	"github.com/inference-sim/desim/kernel"
	"github.com/inference-sim/desim/modctx"
)

// echoState forwards every message it receives out its "out" gate
// unchanged, one hop later. Built in so a build spec can be smoke-tested
// from the CLI without compiling custom Go handler types first.
type echoState struct{}

func (echoState) OnStart(ctx *modctx.Context) {}
func (echoState) OnMessage(ctx *modctx.Context, msg kernel.Message) {
	ctx.Send(msg, kernel.GateID{Name: "out"})
}
func (echoState) OnEnd(ctx *modctx.Context) {}

type echoFactory struct{}

func (echoFactory) NewState() buildspec.HandlerState { return echoState{} }

// sinkState records nothing and forwards nothing; a terminal node.
type sinkState struct{}

func (sinkState) OnStart(ctx *modctx.Context)                       {}
func (sinkState) OnMessage(ctx *modctx.Context, msg kernel.Message) {}
func (sinkState) OnEnd(ctx *modctx.Context)                         {}

type sinkFactory struct{}

func (sinkFactory) NewState() buildspec.HandlerState { return sinkState{} }

// registeredFactories returns the CLI's built-in handler type registry.
// Embedders linking desim as a library supply their own factories map to
// driver.Run directly instead of going through this CLI.
func registeredFactories() map[string]buildspec.HandlerFactory {
	return map[string]buildspec.HandlerFactory{
		"echo": echoFactory{},
		"sink": sinkFactory{},
	}
}

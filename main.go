// Idiomatic entrypoint for Cobra CLI that delegates handling to the Cobra root command in cmd/desim/root.go

package main

import (
	"github.com/inference-sim/desim/cmd/desim"
)

func main() {
	desim.Execute()
}

package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSpec_ParsesYAML(t *testing.T) {
	data := []byte(`
modules:
  - path: a
    type: echo
    gates:
      - name: out
        direction: output
  - path: b
    type: sink
    gates:
      - name: in
        direction: input
connections:
  - from: { path: a, gate: out }
    to: { path: b, gate: in }
`)
	spec, err := loadSpec(data)
	require.NoError(t, err)
	require.Len(t, spec.Modules, 2)
	require.Len(t, spec.Connections, 1)
}

func TestLoadSpec_InvalidYAMLErrors(t *testing.T) {
	_, err := loadSpec([]byte("modules: [not valid"))
	require.Error(t, err)
}

func TestRegisteredFactories_HasEchoAndSink(t *testing.T) {
	factories := registeredFactories()
	require.Contains(t, factories, "echo")
	require.Contains(t, factories, "sink")
}

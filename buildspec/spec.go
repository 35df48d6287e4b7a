// Package buildspec implements the Builder (spec.md §4.J) and the build
// spec types it consumes (spec.md §6): a declarative description of module
// instances, gate clusters, and connection edges, optionally loaded from
// YAML via gopkg.in/yaml.v3 the same way the teacher loads DeploymentConfig
// and workload specs (sim/config.go, sim/workload/tracev2.go), or
// constructed directly in Go by an embedder with its own front-end.
package buildspec

import "gopkg.in/yaml.v3"

// GateSpec declares one named gate cluster on a module.
type GateSpec struct {
	Name      string `yaml:"name"`
	Size      int    `yaml:"size"` // 0 is treated as 1 (a plain, non-clustered gate)
	Direction string `yaml:"direction"` // "input", "output", or "bidirectional"
}

// ModuleSpec declares one module instance. Path is a dotted path; modules
// must appear in the list before any of their children, and Type must
// resolve to a HandlerFactory registered with the Builder.
type ModuleSpec struct {
	Path  string     `yaml:"path"`
	Type  string     `yaml:"type"`
	Gates []GateSpec `yaml:"gates"`
}

// EndpointSpec names one gate cluster index on an already-declared module.
type EndpointSpec struct {
	Path  string `yaml:"path"`
	Gate  string `yaml:"gate"`
	Index int    `yaml:"index"`
}

// ChannelSpec is the optional channel attached to one connection edge.
type ChannelSpec struct {
	BitrateBPS float64 `yaml:"bitrate_bps"`
	LatencyS   float64 `yaml:"latency_s"`
	JitterS    float64 `yaml:"jitter_s"`
	QueueSize  int     `yaml:"queue_size"`
}

// ConnectionSpec declares one src→dst gate link, with an optional channel.
type ConnectionSpec struct {
	From    EndpointSpec `yaml:"from"`
	To      EndpointSpec `yaml:"to"`
	Channel *ChannelSpec `yaml:"channel"`
}

// Spec is the top-level build spec (spec.md §6): an ordered module list and
// a connection list, installed in that order by Builder.Build.
type Spec struct {
	Modules     []ModuleSpec     `yaml:"modules"`
	Connections []ConnectionSpec `yaml:"connections"`
}

// LoadYAML parses a build spec from its YAML representation (spec.md §6
// "Build spec YAML schema").
func LoadYAML(data []byte) (Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Spec{}, err
	}
	return s, nil
}

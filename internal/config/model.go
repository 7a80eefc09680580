package config

import (
	"github.com/hashicorp/hcl/v2"
)

// Model is the unified, format-agnostic representation of a pipeline file
// set.
type Model struct {
	Stages []*Stage
	// EvalContext resolves variables referenced from stage arguments.
	EvalContext *hcl.EvalContext
}

// Stage is the format-agnostic representation of a `stage` block.
type Stage struct {
	Kind string
	Name string
	// Inputs names the producers feeding this stage, one input port each.
	Inputs []string
	// Threads is the requested CPU thread count; zero keeps the minimum.
	Threads int
	// Arguments is decoded into the kind's input struct when the pipeline
	// is built. It may be nil.
	Arguments hcl.Body
}

// Stage returns the stage named name.
func (m *Model) Stage(name string) (*Stage, bool) {
	for _, s := range m.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

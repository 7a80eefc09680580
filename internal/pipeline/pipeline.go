package pipeline

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/handlers"
	"github.com/specialistvlad/flowgridgo/internal/node"
)

// Pipeline owns a set of uniquely named stages.
type Pipeline struct {
	stages []*Stage
	byName map[string]*Stage
}

// New returns an empty pipeline.
func New() *Pipeline {
	return &Pipeline{byName: make(map[string]*Stage)}
}

// Add registers s. Stage names must be unique.
func (p *Pipeline) Add(s *Stage) error {
	if _, exists := p.byName[s.name]; exists {
		return fmt.Errorf("duplicate stage '%s'", s.name)
	}
	p.byName[s.name] = s
	p.stages = append(p.stages, s)
	return nil
}

// Stage returns the stage named name.
func (p *Pipeline) Stage(name string) (*Stage, bool) {
	s, ok := p.byName[name]
	return s, ok
}

// Stages returns all stages in the order they were added.
func (p *Pipeline) Stages() []*Stage {
	return append([]*Stage(nil), p.stages...)
}

// Sources returns the stages without producers.
func (p *Pipeline) Sources() []node.Node {
	var out []*Stage
	for _, s := range p.stages {
		if len(node.Producers(s)) == 0 {
			out = append(out, s)
		}
	}
	return toNodes(out)
}

// Sinks returns the stages without consumers.
func (p *Pipeline) Sinks() []node.Node {
	var out []*Stage
	for _, s := range p.stages {
		if len(node.Consumers(s)) == 0 {
			out = append(out, s)
		}
	}
	return toNodes(out)
}

func toNodes(stages []*Stage) []node.Node {
	out := make([]node.Node, len(stages))
	for i, s := range stages {
		out[i] = s
	}
	return out
}

// Build creates a stage for every stage in the model, decodes its arguments
// with the registered kind's input struct, and links the declared inputs.
func Build(ctx context.Context, model *config.Model, h *handlers.Handlers) (*Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting pipeline construction.", "stage_count", len(model.Stages))
	p := New()

	// First pass: create all stages.
	for _, cfg := range model.Stages {
		s, err := buildStage(model, cfg, h)
		if err != nil {
			return nil, err
		}
		if err := p.Add(s); err != nil {
			return nil, err
		}
	}
	logger.Debug("Build: Stage creation complete.")

	// Second pass: link inputs.
	for _, cfg := range model.Stages {
		consumer := p.byName[cfg.Name]
		for _, in := range cfg.Inputs {
			producer, ok := p.byName[in]
			if !ok {
				return nil, fmt.Errorf("stage '%s' reads from unknown stage '%s'", cfg.Name, in)
			}
			if err := Link(producer, consumer); err != nil {
				return nil, fmt.Errorf("linking '%s' -> '%s': %w", in, cfg.Name, err)
			}
		}
	}
	logger.Debug("Build: Stage linking complete.")
	return p, nil
}

func buildStage(model *config.Model, cfg *config.Stage, h *handlers.Handlers) (*Stage, error) {
	rh, ok := h.Get(cfg.Kind)
	if !ok {
		return nil, fmt.Errorf("stage '%s' uses unknown kind '%s'", cfg.Name, cfg.Kind)
	}

	var input any
	if rh.NewInput != nil {
		input = rh.NewInput()
	}
	if cfg.Arguments != nil {
		target := input
		if target == nil {
			target = &struct{}{}
		}
		if diags := gohcl.DecodeBody(cfg.Arguments, model.EvalContext, target); diags.HasErrors() {
			return nil, fmt.Errorf("decoding arguments of stage '%s': %w", cfg.Name, diags)
		}
	}

	opts := []StageOption{WithInput(input)}
	if cfg.Threads > 0 {
		opts = append(opts, WithThreads(cfg.Threads))
	}
	return NewStage(cfg.Name, cfg.Kind, rh.Fn, opts...), nil
}

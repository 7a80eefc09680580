package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	vars map[string]string
}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL pipeline loader. vars become `var.*` in stage
// arguments.
func NewLoader(vars map[string]string) *Loader {
	return &Loader{vars: vars}
}

// Load parses every .hcl file found under paths and merges their stages into
// one model. Stage names must be unique across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{EvalContext: NewEvalContext(l.vars)}
	declared := make(map[string]string)
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, s := range root.Stages {
			if prev, ok := declared[s.Name]; ok {
				return nil, fmt.Errorf("stage '%s' in %s is already declared in %s", s.Name, file, prev)
			}
			if s.Threads < 0 {
				return nil, fmt.Errorf("stage '%s' in %s requests %d threads", s.Name, file, s.Threads)
			}
			declared[s.Name] = file
			model.Stages = append(model.Stages, translateStage(s))
		}
	}

	logger.Debug("HCL loading complete.", "stages", len(model.Stages))
	return model, nil
}

// translateStage converts the HCL-specific stage schema into the agnostic model.
func translateStage(s *stageBlock) *config.Stage {
	st := &config.Stage{
		Kind:    s.Kind,
		Name:    s.Name,
		Inputs:  s.Inputs,
		Threads: s.Threads,
	}
	if s.Arguments != nil {
		st.Arguments = s.Arguments.Body
	}
	return st
}

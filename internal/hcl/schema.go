package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes the top-level blocks of a pipeline file.
type fileRoot struct {
	Stages []*stageBlock `hcl:"stage,block"`
}

type stageBlock struct {
	Kind      string          `hcl:"kind,label"`
	Name      string          `hcl:"name,label"`
	Inputs    []string        `hcl:"inputs,optional"`
	Threads   int             `hcl:"threads,optional"`
	Arguments *argumentsBlock `hcl:"arguments,block"`
}

// argumentsBlock keeps the body undecoded; its schema is only known once the
// stage kind's handler is looked up.
type argumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

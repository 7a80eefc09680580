// Package handlers maps stage kinds to the Go functions that implement them.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/flowgridgo/internal/node"
)

// Invocation describes one execution of a stage.
type Invocation struct {
	Stage string
	Kind  string
	// Threads is the CPU allocation applied before execution.
	Threads  int
	Metadata *node.Metadata
	// Input is the decoded arguments value produced by NewInput.
	Input any
}

// Func is a stage implementation.
type Func func(ctx context.Context, inv *Invocation) error

// RegisteredHandler holds the compiled Go parts of a stage kind.
type RegisteredHandler struct {
	// NewInput returns a pointer to a struct that stage arguments are decoded
	// into. Nil means the kind takes no arguments.
	NewInput func() any
	Fn       Func
}

// Module is implemented by packages that contribute stage kinds.
type Module interface {
	Register(h *Handlers)
}

// Handlers holds all the registered handlers
type Handlers struct {
	all map[string]*RegisteredHandler
}

// New creates and initializes a new Handlers instance.
func New() *Handlers {
	return &Handlers{
		all: make(map[string]*RegisteredHandler),
	}
}

// RegisterHandler registers a Go function for a stage kind.
func (r *Handlers) RegisterHandler(kind string, handler *RegisteredHandler) {
	if _, exists := r.all[kind]; exists {
		panic(fmt.Sprintf("stage handler for kind '%s' already registered", kind))
	}
	slog.Debug("Registering stage handler.", "kind", kind)
	r.all[kind] = handler
}

// Get returns the handler registered for kind.
func (r *Handlers) Get(kind string) (*RegisteredHandler, bool) {
	h, ok := r.all[kind]
	return h, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Handlers) Kinds() []string {
	kinds := make([]string, 0, len(r.all))
	for k := range r.all {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

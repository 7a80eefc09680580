package testutil

import "github.com/specialistvlad/flowgridgo/internal/handlers"

// SimpleModule is a test helper for easily creating a mock module that
// registers a single stage kind.
type SimpleModule struct {
	Kind    string
	Handler *handlers.RegisteredHandler
}

// Register implements the handlers.Module interface.
func (m *SimpleModule) Register(h *handlers.Handlers) {
	if m.Kind != "" && m.Handler != nil {
		h.RegisterHandler(m.Kind, m.Handler)
	}
}

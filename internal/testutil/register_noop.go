package testutil

import (
	"context"

	"github.com/specialistvlad/flowgridgo/internal/handlers"
)

// NoOpModule registers a single "noop" stage kind that takes no arguments
// and does nothing. It's useful for tests that only care about wiring.
type NoOpModule struct{}

// Register implements the handlers.Module interface.
func (m *NoOpModule) Register(h *handlers.Handlers) {
	h.RegisterHandler("noop", &handlers.RegisteredHandler{
		Fn: func(ctx context.Context, inv *handlers.Invocation) error {
			return nil
		},
	})
}

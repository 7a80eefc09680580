// Package sleep provides a stage kind that simulates CPU-bound work whose
// wall time shrinks with the threads it is given.
package sleep

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/handlers"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Input defines the arguments for the sleep stage.
type Input struct {
	Duration string `hcl:"duration"`
}

// OnRunSleep sleeps for duration divided by the allocated thread count.
func OnRunSleep(ctx context.Context, inv *handlers.Invocation) error {
	input, ok := inv.Input.(*Input)
	if !ok || input == nil {
		return fmt.Errorf("sleep stage '%s' has no arguments", inv.Stage)
	}
	d, err := time.ParseDuration(input.Duration)
	if err != nil {
		return fmt.Errorf("sleep stage '%s': %w", inv.Stage, err)
	}
	threads := max(inv.Threads, 1)
	d /= time.Duration(threads)

	ctxlog.FromContext(ctx).Debug("Sleeping.", "duration", d, "threads", threads)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(h *handlers.Handlers) {
	h.RegisterHandler("sleep", &handlers.RegisteredHandler{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunSleep,
	})
}

package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/handlers"
)

// Module implements the handlers.Module interface for this package.
type Module struct {
	// Out receives the printed lines. Nil means os.Stdout.
	Out io.Writer

	mu sync.Mutex
}

// Input defines the arguments for the print stage.
type Input struct {
	Message string            `hcl:"message,optional"`
	Values  map[string]string `hcl:"values,optional"`
}

// OnRunPrint writes "<stage>: <message>" followed by any values, sorted by
// key.
func (m *Module) OnRunPrint(ctx context.Context, inv *handlers.Invocation) error {
	input, _ := inv.Input.(*Input)
	if input == nil {
		input = &Input{}
	}
	ctxlog.FromContext(ctx).Debug("Printing message.", "values", len(input.Values))

	keys := make([]string, 0, len(input.Values))
	for k := range input.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	if _, err := fmt.Fprintf(out, "%s: %s\n", inv.Stage, input.Message); err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := fmt.Fprintf(out, "      %s = %q\n", k, input.Values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(h *handlers.Handlers) {
	h.RegisterHandler("print", &handlers.RegisteredHandler{
		NewInput: func() any { return new(Input) },
		Fn:       m.OnRunPrint,
	})
}

package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/specialistvlad/flowgridgo/internal/handlers"
)

// Recorder is a shared, self-contained stage implementation for scheduling
// tests. It records every execution and tracks how many ran at once.
type Recorder struct {
	mu            sync.Mutex
	order         []string
	records       map[string][]ExecutionRecord
	running       int
	maxConcurrent int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{records: make(map[string][]ExecutionRecord)}
}

// Func returns a stage implementation that sleeps for d and records the run.
func (r *Recorder) Func(d time.Duration) handlers.Func {
	return r.Wrap(func(ctx context.Context, _ *handlers.Invocation) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// Wrap records each run of fn.
func (r *Recorder) Wrap(fn handlers.Func) handlers.Func {
	return func(ctx context.Context, inv *handlers.Invocation) error {
		start := time.Now()
		r.mu.Lock()
		r.running++
		if r.running > r.maxConcurrent {
			r.maxConcurrent = r.running
		}
		r.mu.Unlock()

		err := fn(ctx, inv)

		r.mu.Lock()
		r.running--
		r.order = append(r.order, inv.Stage)
		r.records[inv.Stage] = append(r.records[inv.Stage], ExecutionRecord{Start: start, End: time.Now()})
		r.mu.Unlock()
		return err
	}
}

// Order returns stage names in completion order.
func (r *Recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Runs returns how many times stage completed.
func (r *Recorder) Runs(stage string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records[stage])
}

// Records returns the executions of stage.
func (r *Recorder) Records(stage string) []ExecutionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ExecutionRecord(nil), r.records[stage]...)
}

// MaxConcurrent returns the largest number of overlapping executions seen.
func (r *Recorder) MaxConcurrent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxConcurrent
}

// RecorderModule registers a "record" stage kind that sleeps for its
// duration argument and records the run.
type RecorderModule struct {
	Recorder *Recorder
}

type recordInput struct {
	Duration string `hcl:"duration,optional"`
}

// Register implements the handlers.Module interface.
func (m *RecorderModule) Register(h *handlers.Handlers) {
	h.RegisterHandler("record", &handlers.RegisteredHandler{
		NewInput: func() any { return new(recordInput) },
		Fn: m.Recorder.Wrap(func(ctx context.Context, inv *handlers.Invocation) error {
			input := inv.Input.(*recordInput)
			if input.Duration == "" {
				return nil
			}
			d, err := time.ParseDuration(input.Duration)
			if err != nil {
				return err
			}
			select {
			case <-time.After(d):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
	})
}

// Package pipeline provides Stage, the concrete node the application builds
// from pipeline files, and Pipeline, the container that owns them.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/flowgridgo/internal/handlers"
	"github.com/specialistvlad/flowgridgo/internal/node"
	"github.com/specialistvlad/flowgridgo/internal/resource"
)

// Stage is a node whose computation is a registered handler.
type Stage struct {
	name  string
	kind  string
	fn    handlers.Func
	input any

	mu      sync.RWMutex
	inputs  [][]node.Connection
	outputs [][]node.Node

	poolOnce sync.Once
	pool     *resource.Pool
	threads  atomic.Int64
	runs     atomic.Int64

	errMu   sync.Mutex
	lastErr error
}

var (
	_ node.Node           = (*Stage)(nil)
	_ node.ResultRecorder = (*Stage)(nil)
)

// StageOption customizes a Stage at construction.
type StageOption func(*Stage)

// WithInput sets the decoded arguments passed to the handler.
func WithInput(v any) StageOption {
	return func(s *Stage) { s.input = v }
}

// WithOutputPorts sets the number of output ports. The default is one.
func WithOutputPorts(n int) StageOption {
	return func(s *Stage) { s.outputs = make([][]node.Node, n) }
}

// WithThreads sets the stage's CPU request.
func WithThreads(n int) StageOption {
	return func(s *Stage) { s.ResourcePool().SetThreads(n) }
}

// NewStage returns a stage with no input ports and one output port.
func NewStage(name, kind string, fn handlers.Func, opts ...StageOption) *Stage {
	s := &Stage{
		name:    name,
		kind:    kind,
		fn:      fn,
		outputs: make([][]node.Node, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stage) Name() string { return s.name }

// Kind returns the handler kind the stage was built from.
func (s *Stage) Kind() string { return s.kind }

func (s *Stage) NumberOfInputPorts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inputs)
}

func (s *Stage) NumberOfOutputPorts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.outputs)
}

func (s *Stage) InputConnections(port int) []node.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if port < 0 || port >= len(s.inputs) {
		return nil
	}
	return append([]node.Connection(nil), s.inputs[port]...)
}

func (s *Stage) Consumers(port int) []node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if port < 0 || port >= len(s.outputs) {
		return nil
	}
	return append([]node.Node(nil), s.outputs[port]...)
}

// AddInputPort appends an unconnected input port and returns its index.
func (s *Stage) AddInputPort() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, nil)
	return len(s.inputs) - 1
}

func (s *Stage) ResourcePool() *resource.Pool {
	s.poolOnce.Do(func() {
		s.pool = resource.NewPool(0)
	})
	return s.pool
}

func (s *Stage) ConfigureThreadCount(n int) {
	s.threads.Store(int64(n))
}

// Threads returns the thread count applied by the last allocation.
func (s *Stage) Threads() int {
	return int(s.threads.Load())
}

// Runs returns how many times the stage has executed.
func (s *Stage) Runs() int64 {
	return s.runs.Load()
}

func (s *Stage) Execute(ctx context.Context, md *node.Metadata) error {
	s.runs.Add(1)
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx, &handlers.Invocation{
		Stage:    s.name,
		Kind:     s.kind,
		Threads:  s.Threads(),
		Metadata: md,
		Input:    s.input,
	})
}

func (s *Stage) RecordResult(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.lastErr = err
}

// Err returns the result recorded for the most recent execution.
func (s *Stage) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

// Connect binds producer's output port to consumer's input port.
func Connect(producer *Stage, outPort int, consumer *Stage, inPort int) error {
	if producer == consumer {
		return fmt.Errorf("stage '%s' cannot consume its own output", producer.name)
	}
	if outPort < 0 || outPort >= producer.NumberOfOutputPorts() {
		return fmt.Errorf("stage '%s' has no output port %d", producer.name, outPort)
	}
	if inPort < 0 || inPort >= consumer.NumberOfInputPorts() {
		return fmt.Errorf("stage '%s' has no input port %d", consumer.name, inPort)
	}

	producer.mu.Lock()
	producer.outputs[outPort] = append(producer.outputs[outPort], consumer)
	producer.mu.Unlock()

	consumer.mu.Lock()
	consumer.inputs[inPort] = append(consumer.inputs[inPort], node.Connection{Producer: producer, Port: outPort})
	consumer.mu.Unlock()
	return nil
}

// Link gives consumer a new input port fed by producer's first output port.
func Link(producer, consumer *Stage) error {
	return Connect(producer, 0, consumer, consumer.AddInputPort())
}

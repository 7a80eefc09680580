package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rs/xid"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/event"
	"github.com/specialistvlad/flowgridgo/internal/graph"
	"github.com/specialistvlad/flowgridgo/internal/node"
	"github.com/specialistvlad/flowgridgo/internal/resource"
	"github.com/specialistvlad/flowgridgo/internal/task"
)

var (
	// ErrNodeExecuting rejects a submission that contains a node which is
	// currently executing. Nothing from the submission is queued.
	ErrNodeExecuting = errors.New("scheduler: node is already executing")
	// ErrClosed is returned for work submitted to, or abandoned by, a closed
	// scheduler.
	ErrClosed = errors.New("scheduler: closed")
)

// Config holds the scheduler settings.
type Config struct {
	// Name labels the scheduler's metrics. Empty uses a generated id.
	Name string
	// MaxThreads caps the CPU capacity. Zero or less uses runtime.NumCPU().
	MaxThreads int
}

type reservation struct {
	pool     *resource.Pool
	released bool
}

// Scheduler arbitrates execution resources among queued node executions.
type Scheduler struct {
	cfg     Config
	ctx     context.Context
	logger  *slog.Logger
	graph   *graph.Graph
	metrics *metrics
	// capacity is the full pool, never reserved from.
	capacity *resource.Pool

	// mu is the schedule lock. It guards everything below it up to the
	// channels.
	mu           sync.Mutex
	queue        *task.Queue
	executing    map[int]*task.Task
	reservations map[int]*reservation
	available    *resource.Pool
	nextPriority int64
	active       int
	closed       bool

	wake      chan struct{}
	freed     *event.Broadcaster
	idle      *event.Broadcaster
	startOnce sync.Once
	stop      chan struct{}
	loopDone  chan struct{}
	workers   sync.WaitGroup
}

// New creates a scheduler. The logger carried by ctx is used for the
// scheduler and handed to every node execution.
func New(ctx context.Context, cfg Config) *Scheduler {
	if cfg.Name == "" {
		cfg.Name = xid.New().String()
	}
	available := resource.NewPool(cfg.MaxThreads)
	available.ObtainMaximum()

	s := &Scheduler{
		cfg:          cfg,
		ctx:          ctx,
		logger:       ctxlog.FromContext(ctx).With("scheduler", cfg.Name),
		graph:        graph.New(),
		metrics:      newMetrics(cfg.Name),
		capacity:     available.Clone(),
		queue:        task.NewQueue(),
		executing:    make(map[int]*task.Task),
		reservations: make(map[int]*reservation),
		available:    available,
		wake:         make(chan struct{}, 1),
		freed:        event.NewBroadcaster(),
		idle:         event.NewBroadcaster(),
		stop:         make(chan struct{}),
		loopDone:     make(chan struct{}),
	}
	s.metrics.availableThreads.Set(float64(available.Threads()))
	s.logger.Debug("Scheduler created.", "capacity", available.String())
	return s
}

// Close stops the scheduling loop, fails every task that has not started
// with ErrClosed and waits for running workers to finish. It is safe to call
// more than once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.startOnce.Do(func() { close(s.loopDone) })
	close(s.stop)
	<-s.loopDone

	s.mu.Lock()
	var abandoned []*task.Task
	for _, t := range s.queue.Tasks() {
		if _, running := s.executing[t.ID]; running {
			continue
		}
		s.queue.Remove(t)
		abandoned = append(abandoned, t)
	}
	s.observeLocked()
	s.mu.Unlock()

	for _, t := range abandoned {
		t.InputsReleased.Fire(ErrClosed)
		t.TaskDone.Fire(ErrClosed)
	}
	s.freed.Broadcast()
	if len(abandoned) > 0 {
		s.logger.Warn("Scheduler closed with queued tasks.", "abandoned", len(abandoned))
	}

	s.workers.Wait()
	s.metrics.remove()
	s.idle.Broadcast()
	s.logger.Debug("Scheduler closed.")
}

// Graph returns the dependency graph the scheduler maintains.
func (s *Scheduler) Graph() *graph.Graph {
	return s.graph
}

// Available returns a snapshot of the unreserved capacity.
func (s *Scheduler) Available() *resource.Pool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available.Clone()
}

// QueueLength returns the number of queued tasks, including executing ones.
func (s *Scheduler) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Executing returns the number of tasks currently executing.
func (s *Scheduler) Executing() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.executing)
}

// Priority returns the priority of n's queued task.
func (s *Scheduler) Priority(n node.Node) (int64, bool) {
	t := s.current(n)
	if t == nil {
		return 0, false
	}
	return t.Priority, true
}

// TaskDoneSignal returns the event fired when n's queued task has completed,
// or nil if n has no queued task.
func (s *Scheduler) TaskDoneSignal(n node.Node) *event.Event {
	if t := s.current(n); t != nil {
		return t.TaskDone
	}
	return nil
}

// InputsReleasedSignal returns the event fired when n's queued task has
// released its inputs and resources, or nil if n has no queued task.
func (s *Scheduler) InputsReleasedSignal(n node.Node) *event.Event {
	if t := s.current(n); t != nil {
		return t.InputsReleased
	}
	return nil
}

func (s *Scheduler) current(n node.Node) *task.Task {
	id, ok := s.graph.ID(n)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _ := s.queue.Get(id)
	return t
}

// signal wakes the scheduling loop without blocking.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) observeLocked() {
	s.metrics.queueLength.Set(float64(s.queue.Len()))
	s.metrics.executing.Set(float64(len(s.executing)))
	s.metrics.availableThreads.Set(float64(s.available.Threads()))
}

type schedulerKey struct{}

// WithScheduler returns a context carrying s.
func WithScheduler(ctx context.Context, s *Scheduler) context.Context {
	return context.WithValue(ctx, schedulerKey{}, s)
}

// FromContext returns the scheduler executing the current node, if any.
func FromContext(ctx context.Context) (*Scheduler, bool) {
	s, ok := ctx.Value(schedulerKey{}).(*Scheduler)
	return s, ok
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/node"
	"github.com/specialistvlad/flowgridgo/internal/resource"
	"github.com/specialistvlad/flowgridgo/internal/task"
)

// work executes one task on its own goroutine and hands its resources back.
func (s *Scheduler) work(t *task.Task, req *resource.Pool) {
	defer s.workers.Done()

	ctx, logger := ctxlog.With(s.ctx,
		"stage", t.Node.Name(),
		"task", t.ID,
		"priority", t.Priority,
		"batch", t.Batch.String(),
	)
	ctx = WithScheduler(ctx, s)
	logger.Debug("Worker picked up task.", "resources", req.String(), "waited", time.Since(t.Enqueued))

	if err := req.AllocateFor(t.Node); err != nil {
		logger.Error("Resource allocation failed.", "error", err)
	}

	start := time.Now()
	err := s.execute(ctx, t)
	elapsed := time.Since(start)
	if r, ok := t.Node.(node.ResultRecorder); ok {
		r.RecordResult(err)
	}
	criticalPath := s.graph.RecordExecution(t.ID, elapsed)
	s.metrics.taskDuration.Observe(elapsed.Seconds())

	if err != nil {
		s.metrics.failed.Inc()
		logger.Error("Stage execution failed.", "error", err, "duration", elapsed)
	} else {
		s.metrics.succeeded.Inc()
		logger.Debug("Stage execution finished.", "duration", elapsed, "critical_path", criticalPath)
	}

	s.mu.Lock()
	s.queue.Remove(t)
	delete(s.executing, t.ID)
	if r := s.reservations[t.ID]; r != nil && !r.released {
		s.available.Collect(r.pool)
	}
	delete(s.reservations, t.ID)
	s.observeLocked()
	s.mu.Unlock()

	s.freed.Broadcast()
	t.InputsReleased.Fire(err)
	s.signal()

	if t.Metadata.Propagating() {
		s.propagate(ctx, t)
	}
	t.TaskDone.Fire(err)

	s.mu.Lock()
	s.active--
	idle := s.active == 0 && s.queue.Len() == 0
	s.mu.Unlock()
	if idle {
		s.idle.Broadcast()
	}
}

// execute runs the node, turning a panic into an error.
func (s *Scheduler) execute(ctx context.Context, t *task.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage '%s' panicked: %v", t.Node.Name(), r)
		}
	}()
	return t.Node.Execute(ctx, t.Metadata)
}

func (s *Scheduler) propagate(ctx context.Context, t *task.Task) {
	consumers := node.Consumers(t.Node)
	if len(consumers) == 0 {
		return
	}
	err := s.Push(ctx, consumers, t.Metadata)
	switch {
	case err == nil:
	case errors.Is(err, ErrNodeExecuting), errors.Is(err, ErrClosed):
		ctxlog.FromContext(ctx).Debug("Propagation dropped.", "reason", err)
	default:
		ctxlog.FromContext(ctx).Warn("Propagation failed.", "error", err)
	}
}

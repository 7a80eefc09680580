package scheduler

import (
	"context"
	"errors"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/event"
	"github.com/specialistvlad/flowgridgo/internal/node"
	"github.com/specialistvlad/flowgridgo/internal/task"
)

// Pull executes nodes together with everything upstream of them and waits
// until all of those executions have completed. Stages that are already
// executing are not resubmitted; Pull waits for their running task instead.
// The returned error joins the errors of every execution waited on.
func (s *Scheduler) Pull(ctx context.Context, nodes []node.Node, md *node.Metadata) error {
	if len(nodes) == 0 {
		return nil
	}
	sub, err := s.submit(ctx, node.Upstream(nodes), md)
	if err != nil && !errors.Is(err, ErrNodeExecuting) {
		return err
	}
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Pull overlaps running stages, waiting for them.", "reason", err)
	}
	return waitAll(ctx, sub.tasks, func(t *task.Task) *event.Event { return t.TaskDone })
}

// Push executes nodes. Without auto-propagation it waits until each of them
// has released its inputs. With auto-propagation it returns once they are
// queued; each completion then pushes to the node's consumers.
func (s *Scheduler) Push(ctx context.Context, nodes []node.Node, md *node.Metadata) error {
	if len(nodes) == 0 {
		return nil
	}
	sub, err := s.submit(ctx, nodes, md)
	if md.Propagating() || (err != nil && !errors.Is(err, ErrNodeExecuting)) {
		return err
	}
	return waitAll(ctx, sub.tasks, func(t *task.Task) *event.Event { return t.InputsReleased })
}

// PullUpstream pulls the producers of n, which must be executing on this
// scheduler. n's resources are handed back while it waits and reclaimed
// before PullUpstream returns.
func (s *Scheduler) PullUpstream(ctx context.Context, n node.Node, md *node.Metadata) error {
	producers := node.Producers(n)
	if len(producers) == 0 {
		return nil
	}
	return s.yielding(ctx, n, func() error { return s.Pull(ctx, producers, md) })
}

// PushDownstream pushes the consumers of n, which must be executing on this
// scheduler. n's resources are handed back while it waits and reclaimed
// before PushDownstream returns.
func (s *Scheduler) PushDownstream(ctx context.Context, n node.Node, md *node.Metadata) error {
	consumers := node.Consumers(n)
	if len(consumers) == 0 {
		return nil
	}
	return s.yielding(ctx, n, func() error { return s.Push(ctx, consumers, md) })
}

func (s *Scheduler) yielding(ctx context.Context, n node.Node, fn func() error) error {
	released := s.ReleaseResources(n)
	err := fn()
	if released {
		if rerr := s.ReacquireResources(ctx, n); rerr != nil {
			return errors.Join(err, rerr)
		}
	}
	return err
}

// WaitUntilDone waits for the queued task of each node to complete. Nodes
// without a queued task are skipped.
func (s *Scheduler) WaitUntilDone(ctx context.Context, nodes []node.Node) error {
	var events []*event.Event
	for _, n := range nodes {
		if ev := s.TaskDoneSignal(n); ev != nil {
			events = append(events, ev)
		}
	}
	return waitEvents(ctx, events)
}

// WaitUntilReleased waits for the queued task of each node to release its
// inputs. Nodes without a queued task are skipped.
func (s *Scheduler) WaitUntilReleased(ctx context.Context, nodes []node.Node) error {
	var events []*event.Event
	for _, n := range nodes {
		if ev := s.InputsReleasedSignal(n); ev != nil {
			events = append(events, ev)
		}
	}
	return waitEvents(ctx, events)
}

// WaitForTaskDone waits for n's queued task, if any, to complete.
func (s *Scheduler) WaitForTaskDone(ctx context.Context, n node.Node) error {
	return s.WaitUntilDone(ctx, []node.Node{n})
}

// WaitForInputsReleased waits for n's queued task, if any, to release its
// inputs.
func (s *Scheduler) WaitForInputsReleased(ctx context.Context, n node.Node) error {
	return s.WaitUntilReleased(ctx, []node.Node{n})
}

// WaitUntilAllDone blocks until the queue is empty and no worker is running,
// including the propagation a finishing worker submits.
func (s *Scheduler) WaitUntilAllDone(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.closed && s.active == 0 {
			s.mu.Unlock()
			return ErrClosed
		}
		if s.active == 0 && s.queue.Len() == 0 {
			s.mu.Unlock()
			return nil
		}
		ch := s.idle.Wait()
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func waitAll(ctx context.Context, tasks []*task.Task, pick func(*task.Task) *event.Event) error {
	events := make([]*event.Event, len(tasks))
	for i, t := range tasks {
		events[i] = pick(t)
	}
	return waitEvents(ctx, events)
}

func waitEvents(ctx context.Context, events []*event.Event) error {
	var errs []error
	for _, ev := range events {
		if err := ev.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

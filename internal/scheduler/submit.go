package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/xid"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/graph"
	"github.com/specialistvlad/flowgridgo/internal/node"
	"github.com/specialistvlad/flowgridgo/internal/task"
)

// submission is what a caller gets back for a batch: the task standing for
// each submitted node, whether newly queued, already queued, or running.
type submission struct {
	batch xid.ID
	tasks []*task.Task
}

// Schedule queues one execution for each node and returns without waiting.
//
// A node that is already queued but not yet executing keeps its pending task.
// If any node is currently executing, the whole submission is rejected with
// ErrNodeExecuting and nothing is queued.
func (s *Scheduler) Schedule(ctx context.Context, nodes []node.Node, md *node.Metadata) error {
	_, err := s.submit(ctx, nodes, md)
	return err
}

// SchedulePropagate is Schedule with auto-propagation: each completed node
// pushes to its consumers.
func (s *Scheduler) SchedulePropagate(ctx context.Context, nodes []node.Node, md *node.Metadata) error {
	md = md.Clone()
	md.AutoPropagate = true
	return s.Schedule(ctx, nodes, md)
}

func (s *Scheduler) submit(ctx context.Context, nodes []node.Node, md *node.Metadata) (*submission, error) {
	sub := &submission{batch: xid.New()}
	if len(nodes) == 0 {
		return sub, nil
	}

	// Discovery runs before the schedule lock is taken; the graph has its
	// own lock and never calls back into the scheduler.
	ids := make(map[node.Node]int, len(nodes))
	order := make([]node.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := ids[n]; dup {
			continue
		}
		id, err := s.graph.Discover(ctx, n)
		if err != nil {
			return nil, err
		}
		ids[n] = id
		order = append(order, n)
	}

	logger := ctxlog.FromContext(ctx).With("batch", sub.batch.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	var running []string
	for _, n := range order {
		if _, ok := s.executing[ids[n]]; ok {
			running = append(running, n.Name())
		}
	}
	if len(running) > 0 {
		for _, n := range order {
			if t, ok := s.queue.Get(ids[n]); ok {
				sub.tasks = append(sub.tasks, t)
			}
		}
		s.metrics.rejected.Inc()
		logger.Debug("Submission rejected, nodes are executing.", "executing", running)
		return sub, fmt.Errorf("%w: %v", ErrNodeExecuting, running)
	}

	var fresh []node.Node
	for _, n := range order {
		if t, ok := s.queue.Get(ids[n]); ok {
			sub.tasks = append(sub.tasks, t)
			continue
		}
		fresh = append(fresh, n)
	}

	sorted, ancestors, err := s.sortLocked(fresh, ids)
	if err != nil {
		return nil, err
	}

	batch := make(map[int]*task.Task, len(sorted))
	for _, n := range sorted {
		id := ids[n]
		priority := s.nextPriority
		if md != nil && md.Priority != nil {
			priority = *md.Priority
		} else {
			s.nextPriority++
		}

		t := task.New(id, n, priority, md.Clone(), sub.batch)
		for a := range ancestors[n] {
			if p, ok := batch[a]; ok {
				t.After = append(t.After, p)
			} else if p, ok := s.queue.Get(a); ok {
				t.After = append(t.After, p)
			}
		}
		s.queue.Insert(t)
		batch[id] = t
		sub.tasks = append(sub.tasks, t)

		if !s.capacity.CanAccommodate(n.ResourcePool()) {
			logger.Warn("Stage requests more resources than the scheduler has; it will stay queued.",
				"stage", n.Name(), "requested", n.ResourcePool().String(), "capacity", s.capacity.String())
		}
	}
	s.observeLocked()

	if len(sorted) > 0 {
		logger.Debug("Tasks queued.", "queued", len(sorted), "coalesced", len(order)-len(sorted), "queue_length", s.queue.Len())
		s.startOnce.Do(func() { go s.loop() })
		s.signal()
	}
	return sub, nil
}

// sortLocked orders nodes so every node comes after its ancestors, keeping
// submission order among unrelated nodes. It also returns each node's
// ancestor set.
func (s *Scheduler) sortLocked(nodes []node.Node, ids map[node.Node]int) ([]node.Node, map[node.Node]map[int]struct{}, error) {
	ancestors := make(map[node.Node]map[int]struct{}, len(nodes))
	inBatch := make(map[int]node.Node, len(nodes))
	for _, n := range nodes {
		ancestors[n] = s.graph.Ancestors(ids[n])
		inBatch[ids[n]] = n
	}

	pending := make(map[node.Node]int, len(nodes))
	successors := make(map[node.Node][]node.Node, len(nodes))
	for _, n := range nodes {
		for a := range ancestors[n] {
			if p, ok := inBatch[a]; ok {
				pending[n]++
				successors[p] = append(successors[p], n)
			}
		}
	}

	sorted := make([]node.Node, 0, len(nodes))
	placed := make(map[node.Node]struct{}, len(nodes))
	for len(sorted) < len(nodes) {
		progressed := false
		for _, n := range nodes {
			if _, done := placed[n]; done || pending[n] > 0 {
				continue
			}
			placed[n] = struct{}{}
			sorted = append(sorted, n)
			for _, c := range successors[n] {
				pending[c]--
			}
			progressed = true
		}
		if !progressed {
			return nil, nil, fmt.Errorf("%w: submitted stages depend on each other", graph.ErrCycle)
		}
	}
	return sorted, ancestors, nil
}

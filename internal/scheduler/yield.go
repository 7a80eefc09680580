package scheduler

import (
	"context"

	"github.com/specialistvlad/flowgridgo/internal/node"
)

// ReleaseResources hands the reservation of executing node n back to the
// scheduler so other tasks can use it while n waits. It reports false if n
// is not executing or has already released.
func (s *Scheduler) ReleaseResources(n node.Node) bool {
	id, ok := s.graph.ID(n)
	if !ok {
		return false
	}

	s.mu.Lock()
	r := s.reservations[id]
	if r == nil || r.released {
		s.mu.Unlock()
		return false
	}
	s.available.Collect(r.pool)
	r.released = true
	s.observeLocked()
	s.mu.Unlock()

	s.logger.Debug("Stage yielded its resources.", "stage", n.Name(), "resources", r.pool.String())
	s.freed.Broadcast()
	s.signal()
	return true
}

// ReacquireResources blocks until the reservation released by
// ReleaseResources has been taken back. It returns immediately if n holds
// its reservation.
func (s *Scheduler) ReacquireResources(ctx context.Context, n node.Node) error {
	id, ok := s.graph.ID(n)
	if !ok {
		return nil
	}

	for {
		s.mu.Lock()
		r := s.reservations[id]
		if r == nil || !r.released {
			s.mu.Unlock()
			return nil
		}
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}
		if s.available.Reserve(r.pool) {
			r.released = false
			s.observeLocked()
			s.mu.Unlock()
			s.logger.Debug("Stage reclaimed its resources.", "stage", n.Name(), "resources", r.pool.String())
			return nil
		}
		ch := s.freed.Wait()
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

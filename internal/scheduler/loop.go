package scheduler

import (
	"github.com/specialistvlad/flowgridgo/internal/resource"
	"github.com/specialistvlad/flowgridgo/internal/task"
)

// loop starts runnable tasks until Close. It sleeps on the wake channel
// whenever nothing can be started.
func (s *Scheduler) loop() {
	defer close(s.loopDone)
	s.logger.Debug("Scheduling loop started.")

	for {
		select {
		case <-s.stop:
			s.logger.Debug("Scheduling loop stopped.")
			return
		default:
		}

		s.mu.Lock()
		if t, req := s.nextRunnableLocked(); t != nil {
			s.startLocked(t, req)
			s.mu.Unlock()
			continue
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-s.stop:
			s.logger.Debug("Scheduling loop stopped.")
			return
		}
	}
}

// nextRunnableLocked returns the first task, in priority order, that is not
// executing, is ready and fits into the unreserved capacity, together with a
// snapshot of its request.
func (s *Scheduler) nextRunnableLocked() (*task.Task, *resource.Pool) {
	var (
		found *task.Task
		req   *resource.Pool
	)
	s.queue.Ascend(func(t *task.Task) bool {
		if _, running := s.executing[t.ID]; running {
			return true
		}
		if !s.readyLocked(t) {
			return true
		}
		r := t.Node.ResourcePool().Clone()
		if !s.available.CanAccommodate(r) {
			return true
		}
		found, req = t, r
		return false
	})
	return found, req
}

// readyLocked reports whether every predecessor recorded for t has left the
// queue, is ordered after it, or is executing with its resources yielded.
// A yielded predecessor is blocked in PushDownstream or PullUpstream and
// waits on t, not the other way round.
func (s *Scheduler) readyLocked(t *task.Task) bool {
	for _, p := range t.After {
		if !s.queue.Contains(p) || !task.Less(p, t) {
			continue
		}
		if s.yieldedLocked(p) {
			continue
		}
		return false
	}
	return true
}

func (s *Scheduler) yieldedLocked(t *task.Task) bool {
	if s.executing[t.ID] != t {
		return false
	}
	r := s.reservations[t.ID]
	return r != nil && r.released
}

func (s *Scheduler) startLocked(t *task.Task, req *resource.Pool) {
	s.available.Reserve(req)
	s.executing[t.ID] = t
	s.reservations[t.ID] = &reservation{pool: req}
	s.active++
	s.observeLocked()

	s.workers.Add(1)
	go s.work(t, req)
}

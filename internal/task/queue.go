package task

import (
	"time"

	"github.com/google/btree"
)

const queueDegree = 16

// Queue is the ordered collection of pending tasks, at most one per node.
// It is not safe for concurrent use.
type Queue struct {
	tree *btree.BTreeG[*Task]
	byID map[int]*Task
	seq  uint64
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{
		tree: btree.NewG(queueDegree, Less),
		byID: make(map[int]*Task),
	}
}

// Insert queues t. It returns false and leaves the queue untouched if a task
// for the same node is already queued.
func (q *Queue) Insert(t *Task) bool {
	if _, ok := q.byID[t.ID]; ok {
		return false
	}
	q.seq++
	t.seq = q.seq
	if t.Enqueued.IsZero() {
		t.Enqueued = time.Now()
	}
	q.tree.ReplaceOrInsert(t)
	q.byID[t.ID] = t
	return true
}

// Remove drops t from the queue and reports whether it was queued.
func (q *Queue) Remove(t *Task) bool {
	if !q.Contains(t) {
		return false
	}
	q.tree.Delete(t)
	delete(q.byID, t.ID)
	return true
}

// Get returns the task queued for node id.
func (q *Queue) Get(id int) (*Task, bool) {
	t, ok := q.byID[id]
	return t, ok
}

// Contains reports whether this exact task is still queued.
func (q *Queue) Contains(t *Task) bool {
	queued, ok := q.byID[t.ID]
	return ok && queued == t
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	return q.tree.Len()
}

// Ascend calls fn for each task in priority order until fn returns false.
func (q *Queue) Ascend(fn func(t *Task) bool) {
	q.tree.Ascend(btree.ItemIteratorG[*Task](fn))
}

// Tasks returns the queued tasks in priority order.
func (q *Queue) Tasks() []*Task {
	out := make([]*Task, 0, q.tree.Len())
	q.Ascend(func(t *Task) bool {
		out = append(out, t)
		return true
	})
	return out
}

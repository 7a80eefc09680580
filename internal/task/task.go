// Package task holds the scheduler's unit of work and the priority queue
// pending work waits in.
package task

import (
	"time"

	"github.com/rs/xid"
	"github.com/specialistvlad/flowgridgo/internal/event"
	"github.com/specialistvlad/flowgridgo/internal/node"
)

// Task is a request to execute one node once.
type Task struct {
	// ID is the node's dependency graph id.
	ID   int
	Node node.Node
	// Priority orders the queue; lower values run first.
	Priority int64
	Metadata *node.Metadata
	// Batch identifies the submission the task arrived in.
	Batch xid.ID

	// After lists tasks that must leave the queue before this one may start,
	// provided they are ordered before it.
	After []*Task

	// InputsReleased fires when the node has finished and handed back its
	// resources. TaskDone fires after any auto-propagation was submitted.
	InputsReleased *event.Event
	TaskDone       *event.Event

	Enqueued time.Time
	seq      uint64
}

// New returns a task with fresh, unfired completion events.
func New(id int, n node.Node, priority int64, md *node.Metadata, batch xid.ID) *Task {
	return &Task{
		ID:             id,
		Node:           n,
		Priority:       priority,
		Metadata:       md,
		Batch:          batch,
		InputsReleased: event.New(),
		TaskDone:       event.New(),
	}
}

// Less orders tasks by priority, then by insertion order.
func Less(a, b *Task) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.seq < b.seq
}

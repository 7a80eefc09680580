// Package scheduler drives a network of nodes to completion on a shared pool
// of execution resources.
//
// # How It Works
//
// Callers submit a set of nodes. The scheduler:
//  1. Extends the dependency graph with any node it has not seen before.
//  2. Sorts the submitted nodes topologically and queues one task per node,
//     giving ancestors smaller priority numbers than their descendants.
//  3. Wakes its scheduling loop, which repeatedly picks the first queued task
//     (in priority order) that is ready and whose resource request fits into
//     the unreserved capacity, reserves that capacity and starts a worker.
//  4. The worker applies the reservation to the node, executes it, hands the
//     reservation back, fires the task's completion events and, if asked to,
//     pushes to the node's consumers.
//
// A task is ready when none of the tasks recorded as its predecessors at
// submission time is still queued ahead of it.
//
// # Entry Points
//
//   - Schedule / SchedulePropagate: queue nodes and return.
//   - Pull: execute nodes and everything upstream of them, then wait.
//   - Push: execute nodes and wait for them, or, with auto-propagation,
//     return immediately and let completions cascade downstream.
//   - PullUpstream / PushDownstream: the same, relative to a node that is
//     currently executing. The node's reservation is handed back while it
//     waits and reclaimed before control returns to it, so nested evaluation
//     cannot starve on capacity it holds itself.
//   - RescheduleNetwork / RescheduleFrom: split capacity among a sink's
//     upstream producers in proportion to their critical paths.
//
// # Lifecycle
//
// New creates the scheduler; its loop starts on the first submission. Close
// stops the loop, fails every task that has not started with ErrClosed, and
// waits for running workers.
package scheduler

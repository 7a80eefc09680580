// Package graph maintains the dependency graph the scheduler consults to
// order work.
//
// # Model
//
// Every node the scheduler has ever seen gets a dense integer id that is never
// reused or reassigned. The graph is an arena of records indexed by that id,
// each holding the direct upstream and downstream adjacency discovered by
// walking port connections. Records and edges are only ever added; a
// discovery that fails is undone before it returns.
//
// # Discovery
//
// Discover runs once per previously unknown node in two phases:
//
//  1. Walk upstream through input ports to find every source (a node with no
//     producer on any port).
//  2. From each source, walk downstream through output ports, assigning ids
//     and recording the edge for every traversed connection. The walk keeps
//     the current path so a consumer that is already on it is reported as
//     ErrCycle.
//
// The transitive closure is not stored. Ancestors computes
// reachability on demand; the scheduler does so once per task at submission.
//
// # Critical paths
//
// RecordExecution stores a node's last execution time and its critical path:
// that time plus the longest critical path among its producers. Rebalancing
// uses these to split resources among siblings.
package graph

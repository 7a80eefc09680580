package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/node"
)

// ErrCycle is returned when discovery finds a node that depends on itself.
var ErrCycle = errors.New("graph: cycle detected")

// Edge means From must run before To.
type Edge struct {
	From int
	To   int
}

type record struct {
	id         int
	node       node.Node
	upstream   []int
	downstream []int

	executions   int
	lastDuration time.Duration
	criticalPath time.Duration
}

// Graph is an append-only dependency graph. It is safe for concurrent use.
type Graph struct {
	mu      sync.RWMutex
	ids     map[node.Node]int
	records []*record
	edges   map[Edge]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		ids:   make(map[node.Node]int),
		edges: make(map[Edge]struct{}),
	}
}

// Len returns the number of ids allocated so far.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.records)
}

// ID returns the id assigned to n.
func (g *Graph) ID(n node.Node) (int, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.ids[n]
	return id, ok
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id int) node.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if id < 0 || id >= len(g.records) {
		return nil
	}
	return g.records[id].node
}

// EdgeCount returns the number of distinct direct edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Producers returns the ids directly upstream of id.
func (g *Graph) Producers(id int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if id < 0 || id >= len(g.records) {
		return nil
	}
	return append([]int(nil), g.records[id].upstream...)
}

// Consumers returns the ids directly downstream of id.
func (g *Graph) Consumers(id int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if id < 0 || id >= len(g.records) {
		return nil
	}
	return append([]int(nil), g.records[id].downstream...)
}

// Ancestors returns every id from which id is reachable, excluding id.
func (g *Graph) Ancestors(id int) map[int]struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[int]struct{})
	if id < 0 || id >= len(g.records) {
		return out
	}
	stack := append([]int(nil), g.records[id].upstream...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := out[cur]; ok {
			continue
		}
		out[cur] = struct{}{}
		stack = append(stack, g.records[cur].upstream...)
	}
	return out
}

// Discover makes sure n and everything connected to it along source-to-sink
// paths has an id, and returns n's id. Known nodes return immediately. A
// failed discovery leaves the graph as it was, so retrying fails the same
// way.
func (g *Graph) Discover(ctx context.Context, n node.Node) (int, error) {
	if id, ok := g.ID(n); ok {
		return id, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.ids[n]; ok {
		return id, nil
	}

	logger := ctxlog.FromContext(ctx)
	w := &walk{g: g, before: len(g.records)}

	var sources []node.Node
	findSources(n, make(map[node.Node]struct{}), &sources)

	visited := make(map[node.Node]struct{})
	for _, src := range sources {
		if err := w.propagate(src, -1, make(map[node.Node]struct{}), visited); err != nil {
			w.rollback()
			return -1, err
		}
	}

	id, ok := g.ids[n]
	if !ok {
		w.rollback()
		return -1, fmt.Errorf("%w: %s is not reachable from any source", ErrCycle, n.Name())
	}
	logger.Debug("Dependency graph extended.",
		"node", n.Name(), "id", id,
		"new_ids", len(g.records)-w.before, "new_edges", len(w.added))
	return id, nil
}

// findSources walks upstream from n and collects nodes without producers.
func findSources(n node.Node, visited map[node.Node]struct{}, sources *[]node.Node) {
	if _, ok := visited[n]; ok {
		return
	}
	visited[n] = struct{}{}

	producers := node.Producers(n)
	if len(producers) == 0 {
		*sources = append(*sources, n)
		return
	}
	for _, p := range producers {
		findSources(p, visited, sources)
	}
}

// walk is one discovery pass. It remembers what it added so a failed pass
// can be undone.
type walk struct {
	g      *Graph
	before int
	added  []Edge
}

// propagate walks downstream from n, assigning ids and recording the edge
// from parent. path holds the nodes on the current walk.
func (w *walk) propagate(n node.Node, parent int, path, visited map[node.Node]struct{}) error {
	id := w.g.assignLocked(n)
	if parent >= 0 && w.g.addEdgeLocked(parent, id) {
		w.added = append(w.added, Edge{From: parent, To: id})
	}
	if _, ok := visited[n]; ok {
		return nil
	}
	visited[n] = struct{}{}

	path[n] = struct{}{}
	for _, c := range node.Consumers(n) {
		if _, onPath := path[c]; onPath {
			return fmt.Errorf("%w: %s feeds back into %s", ErrCycle, n.Name(), c.Name())
		}
		if err := w.propagate(c, id, path, visited); err != nil {
			return err
		}
	}
	delete(path, n)
	return nil
}

// rollback removes the edges and ids added by the pass, newest first, so
// each edge is still the last entry of its adjacency lists.
func (w *walk) rollback() {
	g := w.g
	for i := len(w.added) - 1; i >= 0; i-- {
		e := w.added[i]
		delete(g.edges, e)
		from, to := g.records[e.From], g.records[e.To]
		from.downstream = from.downstream[:len(from.downstream)-1]
		to.upstream = to.upstream[:len(to.upstream)-1]
	}
	for _, r := range g.records[w.before:] {
		delete(g.ids, r.node)
	}
	g.records = g.records[:w.before]
}

func (g *Graph) assignLocked(n node.Node) int {
	if id, ok := g.ids[n]; ok {
		return id
	}
	id := len(g.records)
	g.ids[n] = id
	g.records = append(g.records, &record{id: id, node: n})
	return id
}

// addEdgeLocked records from → to and reports whether it was new.
func (g *Graph) addEdgeLocked(from, to int) bool {
	e := Edge{From: from, To: to}
	if _, ok := g.edges[e]; ok {
		return false
	}
	g.edges[e] = struct{}{}
	g.records[from].downstream = append(g.records[from].downstream, to)
	g.records[to].upstream = append(g.records[to].upstream, from)
	return true
}

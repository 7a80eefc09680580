// Package node defines the contract between the scheduler and the computation
// stages it drives. The scheduler never inspects what a node computes; it only
// walks its port connections, asks it for a resource request, and executes it.
package node

import (
	"context"

	"github.com/specialistvlad/flowgridgo/internal/resource"
)

// Node is a single computation stage with input and output ports.
type Node interface {
	// Name is a human-readable label used in logs and reports.
	Name() string

	NumberOfInputPorts() int
	NumberOfOutputPorts() int
	// InputConnections returns the producers bound to an input port.
	InputConnections(port int) []Connection
	// Consumers returns the nodes bound to an output port.
	Consumers(port int) []Node

	// Execute runs the node's computation synchronously.
	Execute(ctx context.Context, md *Metadata) error

	// ResourcePool returns the node's targeted allocation. It is created
	// lazily, holding the minimum of every kind.
	ResourcePool() *resource.Pool
	// ConfigureThreadCount is the target of a CPU allocation.
	ConfigureThreadCount(n int)
}

// ResultRecorder is implemented by nodes that keep the outcome of their
// last execution. The scheduler calls it once per task, with a recovered
// panic already turned into an error.
type ResultRecorder interface {
	RecordResult(err error)
}

// Connection binds an input port to one producer's output port.
type Connection struct {
	Producer Node
	Port     int
}

// Producers returns the distinct producers across all input ports of n, in
// port order.
func Producers(n Node) []Node {
	var out []Node
	seen := make(map[Node]struct{})
	for port := 0; port < n.NumberOfInputPorts(); port++ {
		for _, c := range n.InputConnections(port) {
			if c.Producer == nil {
				continue
			}
			if _, ok := seen[c.Producer]; ok {
				continue
			}
			seen[c.Producer] = struct{}{}
			out = append(out, c.Producer)
		}
	}
	return out
}

// Consumers returns the distinct consumers across all output ports of n, in
// port order.
func Consumers(n Node) []Node {
	var out []Node
	seen := make(map[Node]struct{})
	for port := 0; port < n.NumberOfOutputPorts(); port++ {
		for _, c := range n.Consumers(port) {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Upstream returns nodes together with everything transitively upstream of
// them. Each node appears once; the given nodes come first.
func Upstream(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	seen := make(map[Node]struct{})
	for _, n := range nodes {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	for i := 0; i < len(out); i++ {
		for _, p := range Producers(out[i]) {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	return out
}

package graph

import "time"

// RecordExecution stores the last execution time of id and returns its
// updated critical path.
func (g *Graph) RecordExecution(id int, d time.Duration) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id < 0 || id >= len(g.records) {
		return 0
	}
	rec := g.records[id]
	var longest time.Duration
	for _, up := range rec.upstream {
		longest = max(longest, g.records[up].criticalPath)
	}
	rec.executions++
	rec.lastDuration = d
	rec.criticalPath = d + longest
	return rec.criticalPath
}

// CriticalPath returns the last computed critical path of id.
func (g *Graph) CriticalPath(id int) time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if id < 0 || id >= len(g.records) {
		return 0
	}
	return g.records[id].criticalPath
}

// Stats is a snapshot of a node's execution history.
type Stats struct {
	Executions   int
	LastDuration time.Duration
	CriticalPath time.Duration
}

// Stats returns the execution history of id.
func (g *Graph) Stats(id int) Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if id < 0 || id >= len(g.records) {
		return Stats{}
	}
	rec := g.records[id]
	return Stats{
		Executions:   rec.executions,
		LastDuration: rec.lastDuration,
		CriticalPath: rec.criticalPath,
	}
}

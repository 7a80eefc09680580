package scheduler

import (
	"context"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/node"
	"github.com/specialistvlad/flowgridgo/internal/resource"
)

// RescheduleNetwork splits the scheduler's full capacity among the stages
// upstream of sink. See RescheduleFrom.
func (s *Scheduler) RescheduleNetwork(ctx context.Context, sink node.Node) error {
	return s.RescheduleFrom(ctx, sink, s.capacity.Clone())
}

// RescheduleFrom gives each producer of n a share of bundle proportional to
// the producer's critical path, and repeats for every producer with the
// share it received. When no producer has run yet, shares are equal. Every
// node is assigned at most once; a producer reached through a second
// consumer keeps its first share.
//
// The new requests apply from the producers' next scheduling.
func (s *Scheduler) RescheduleFrom(ctx context.Context, n node.Node, bundle *resource.Pool) error {
	logger := ctxlog.FromContext(ctx)

	type item struct {
		consumer node.Node
		bundle   *resource.Pool
	}
	work := []item{{consumer: n, bundle: bundle}}
	visited := map[node.Node]struct{}{n: {}}

	for len(work) > 0 {
		it := work[0]
		work = work[1:]

		producers := node.Producers(it.consumer)
		if len(producers) == 0 {
			continue
		}

		weights := make([]float64, len(producers))
		var total float64
		for i, p := range producers {
			id, err := s.graph.Discover(ctx, p)
			if err != nil {
				return err
			}
			weights[i] = s.graph.CriticalPath(id).Seconds()
			total += weights[i]
		}

		for i, p := range producers {
			if _, seen := visited[p]; seen {
				continue
			}
			visited[p] = struct{}{}

			share := 1 / float64(len(producers))
			if total > 0 {
				share = weights[i] / total
			}
			pool := p.ResourcePool()
			pool.Clear()
			pool.IncreaseByRatio(share, it.bundle)
			logger.Debug("Stage resources rebalanced.",
				"stage", p.Name(), "consumer", it.consumer.Name(),
				"share", share, "resources", pool.String())

			work = append(work, item{consumer: p, bundle: pool.Clone()})
		}
	}
	return nil
}

package scheduler

import (
	"testing"
	"time"

	"github.com/specialistvlad/flowgridgo/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRescheduleNetwork_SplitsByCriticalPath(t *testing.T) {
	s, ctx := newTestScheduler(t, 8)

	slow := stage("slow", nil)
	fast := stage("fast", nil)
	sink := stage("sink", nil)
	link(t, slow, sink, fast, sink)

	_, err := s.Graph().Discover(ctx, sink)
	require.NoError(t, err)
	slowID, _ := s.Graph().ID(slow)
	fastID, _ := s.Graph().ID(fast)
	s.Graph().RecordExecution(slowID, 3*time.Second)
	s.Graph().RecordExecution(fastID, time.Second)

	require.NoError(t, s.RescheduleNetwork(ctx, sink))
	assert.Equal(t, 6, slow.ResourcePool().Threads())
	assert.Equal(t, 2, fast.ResourcePool().Threads())
	assert.Equal(t, 1, sink.ResourcePool().Threads(), "the sink itself is not reassigned")
}

func TestRescheduleFrom(t *testing.T) {
	t.Run("equal shares without history", func(t *testing.T) {
		s, ctx := newTestScheduler(t, 8)
		a := stage("a", nil)
		b := stage("b", nil)
		sink := stage("sink", nil)
		link(t, a, sink, b, sink)

		require.NoError(t, s.RescheduleNetwork(ctx, sink))
		assert.Equal(t, 4, a.ResourcePool().Threads())
		assert.Equal(t, 4, b.ResourcePool().Threads())
	})

	t.Run("shares recurse and stay at least one", func(t *testing.T) {
		s, ctx := newTestScheduler(t, 8)
		root := stage("root", nil)
		mid := stage("mid", nil)
		sink := stage("sink", nil)
		link(t, root, mid, mid, sink)

		bundle := resource.NewPool(2)
		bundle.ObtainMaximum()
		require.NoError(t, s.RescheduleFrom(ctx, sink, bundle))
		assert.Equal(t, 2, mid.ResourcePool().Threads())
		assert.Equal(t, 2, root.ResourcePool().Threads())
	})

	t.Run("shared producer keeps its first share", func(t *testing.T) {
		s, ctx := newTestScheduler(t, 8)
		shared := stage("shared", nil)
		left := stage("left", nil)
		right := stage("right", nil)
		sink := stage("sink", nil)
		link(t, shared, left, shared, right, left, sink, right, sink)

		require.NoError(t, s.RescheduleNetwork(ctx, sink))
		assert.Equal(t, 4, left.ResourcePool().Threads())
		assert.Equal(t, 4, right.ResourcePool().Threads())
		assert.Equal(t, 4, shared.ResourcePool().Threads())
	})
}

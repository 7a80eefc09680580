package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type threadSink struct{ threads int }

func (s *threadSink) ConfigureThreadCount(n int) { s.threads = n }

func TestCPUAmount_ReserveCollectRoundTrip(t *testing.T) {
	held := NewCPUAmount(8)
	held.ObtainMaximum()
	req := NewCPUAmount(8)
	req.Set(3)

	require.True(t, held.CanAccommodate(req))
	held.Reserve(req)
	assert.Equal(t, 5, held.Threads())

	held.Collect(req)
	assert.Equal(t, 8, held.Threads())
}

func TestCPUAmount_CanAccommodateAtCapacity(t *testing.T) {
	const n = 4
	held := NewCPUAmount(n)
	held.ObtainMaximum()
	require.Equal(t, n, held.Threads())

	tooMany := NewCPUAmount(n)
	tooMany.Set(n + 1)
	assert.False(t, held.CanAccommodate(tooMany))

	exact := NewCPUAmount(n)
	exact.Set(n)
	require.True(t, held.CanAccommodate(exact))
	held.Reserve(exact)
	assert.Equal(t, 0, held.Threads())
	assert.False(t, held.HasResource())
	assert.False(t, held.CanAccommodate(exact))

	held.Collect(exact)
	assert.True(t, held.CanAccommodate(exact))
}

func TestCPUAmount_IncreaseByRatio(t *testing.T) {
	ref := NewCPUAmount(0)
	ref.Set(8)

	testCases := []struct {
		name  string
		ratio float64
		want  int
	}{
		{"three quarters", 0.75, 6},
		{"one quarter", 0.25, 2},
		{"floored to one", 0.01, 1},
		{"zero ratio still one", 0, 1},
		{"rounds half up", 0.5625, 5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewCPUAmount(0)
			a.IncreaseByRatio(tc.ratio, ref)
			assert.Equal(t, tc.want, a.Threads())
		})
	}
}

func TestCPUAmount_MinimumAndClear(t *testing.T) {
	a := NewCPUAmount(16)
	a.ObtainMinimum()
	assert.Equal(t, 1, a.Threads())
	a.Clear()
	assert.Equal(t, 0, a.Threads())
	assert.Equal(t, 16, a.Limit())
	assert.Positive(t, NewCPUAmount(0).Limit())
}

func TestCPUAmount_AllocateFor(t *testing.T) {
	a := NewCPUAmount(0)
	a.Set(3)
	sink := &threadSink{}
	require.NoError(t, a.AllocateFor(sink))
	assert.Equal(t, 3, sink.threads)
}

func TestGPUAmount_IsAStub(t *testing.T) {
	g := &GPUAmount{}
	g.ObtainMaximum()
	assert.False(t, g.HasResource())
	assert.True(t, g.CanAccommodate(&GPUAmount{}))
	assert.ErrorIs(t, g.AllocateFor(&threadSink{}), ErrUnimplemented)
}

func TestPool_NewHoldsMinimum(t *testing.T) {
	p := NewPool(4)
	assert.Equal(t, 1, p.Threads())
	assert.False(t, p.Amount(GPU).HasResource())
	assert.Equal(t, "cpu=1 gpu=false", p.String())
}

func TestPool_ReserveIsAllOrNothing(t *testing.T) {
	global := NewPool(4)
	global.ObtainMaximum()

	req := NewPool(4)
	req.SetThreads(5)
	assert.False(t, global.Reserve(req))
	assert.Equal(t, 4, global.Threads())

	req.SetThreads(4)
	assert.True(t, global.Reserve(req))
	assert.Equal(t, 0, global.Threads())

	global.Collect(req)
	assert.Equal(t, 4, global.Threads())
}

func TestPool_AllocateForSkipsEmptyKinds(t *testing.T) {
	p := NewPool(4)
	p.SetThreads(2)
	sink := &threadSink{}
	require.NoError(t, p.AllocateFor(sink))
	assert.Equal(t, 2, sink.threads)
}

func TestPool_CloneIsIndependent(t *testing.T) {
	p := NewPool(4)
	cp := p.Clone()
	cp.SetThreads(3)
	assert.Equal(t, 1, p.Threads())
	assert.Equal(t, 3, cp.Threads())
}

func TestPool_IncreaseByRatio(t *testing.T) {
	bundle := NewPool(8)
	bundle.ObtainMaximum()

	p := NewPool(8)
	p.Clear()
	p.IncreaseByRatio(0.75, bundle)
	assert.Equal(t, 6, p.Threads())
	assert.False(t, p.Amount(GPU).HasResource())
}

package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_FiresOnce(t *testing.T) {
	e := New()
	assert.False(t, e.Fired())
	assert.NoError(t, e.Err())

	first := errors.New("first")
	assert.True(t, e.Fire(first))
	assert.False(t, e.Fire(errors.New("second")))

	assert.True(t, e.Fired())
	assert.Equal(t, first, e.Err())
	assert.Equal(t, first, e.Wait(context.Background()))
}

func TestEvent_ReleasesAllWaiters(t *testing.T) {
	e := New()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Wait(context.Background()))
		}()
	}
	e.Fire(nil)
	wg.Wait()
}

func TestEvent_WaitHonoursContext(t *testing.T) {
	e := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Wait(ctx), context.DeadlineExceeded)
}

func TestBroadcaster_WakesCurrentGeneration(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Wait()
	select {
	case <-ch:
		t.Fatal("channel closed before broadcast")
	default:
	}

	b.Broadcast()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("broadcast did not wake waiter")
	}

	next := b.Wait()
	require.NotEqual(t, ch, next)
	select {
	case <-next:
		t.Fatal("new generation already closed")
	default:
	}
}

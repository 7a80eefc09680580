// Package event provides single-use completion events and a re-armable
// broadcast used to wake waiters when shared state changes.
package event

import (
	"context"
	"sync"
)

// Event is fired exactly once. Waiters block until it fires and observe the
// error it was fired with.
type Event struct {
	once sync.Once
	done chan struct{}
	err  error
}

// New returns an unfired event.
func New() *Event {
	return &Event{done: make(chan struct{})}
}

// Fire completes the event with err. Only the first call has an effect; it
// reports whether this call fired the event.
func (e *Event) Fire(err error) bool {
	fired := false
	e.once.Do(func() {
		e.err = err
		close(e.done)
		fired = true
	})
	return fired
}

// Done returns a channel that is closed once the event fires.
func (e *Event) Done() <-chan struct{} {
	return e.done
}

// Fired reports whether the event has fired.
func (e *Event) Fired() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Err returns the error the event fired with, or nil if it has not fired.
func (e *Event) Err() error {
	if !e.Fired() {
		return nil
	}
	return e.err
}

// Wait blocks until the event fires or ctx is done.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Broadcaster wakes every current waiter on Broadcast. Waiters take the
// channel for the current generation, re-check their condition, then block
// on it.
type Broadcaster struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewBroadcaster returns a ready Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{ch: make(chan struct{})}
}

// Wait returns the channel closed by the next Broadcast.
func (b *Broadcaster) Wait() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ch
}

// Broadcast wakes everyone waiting on the current generation.
func (b *Broadcaster) Broadcast() {
	b.mu.Lock()
	defer b.mu.Unlock()
	close(b.ch)
	b.ch = make(chan struct{})
}

package actor

import (
	"context"
	"sync"
)

// Reply is a single-use slot carrying one answer from the actor to a
// requester. The requester may stop waiting at any time; delivering into an
// abandoned slot is a silent no-op.
type Reply[T any] struct {
	ch      chan T
	gone    chan struct{}
	abandon sync.Once

	// settled is only touched by the producing side.
	settled bool
}

// NewReply creates an empty reply slot.
func NewReply[T any]() *Reply[T] {
	return &Reply[T]{
		ch:   make(chan T, 1),
		gone: make(chan struct{}),
	}
}

// Deliver writes v into the slot. It reports whether the value can still be
// observed: false means the requester left or a value was already written.
// Deliver never blocks.
func (r *Reply[T]) Deliver(v T) bool {
	if r.settled {
		return false
	}
	r.settled = true

	select {
	case <-r.gone:
		return false
	default:
	}
	r.ch <- v
	return true
}

// drop settles the slot without a value; Wait then returns ErrNoReply.
func (r *Reply[T]) drop() {
	if r.settled {
		return
	}
	r.settled = true
	close(r.ch)
}

// Abandon tells the producer nobody is waiting any more. Safe to call more
// than once.
func (r *Reply[T]) Abandon() {
	r.abandon.Do(func() { close(r.gone) })
}

// Wait blocks until a value is delivered, the slot is dropped, or ctx is done.
// A done ctx abandons the slot.
func (r *Reply[T]) Wait(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-r.ch:
		if !ok {
			return zero, ErrNoReply
		}
		return v, nil
	case <-ctx.Done():
		r.Abandon()
		return zero, ctx.Err()
	}
}

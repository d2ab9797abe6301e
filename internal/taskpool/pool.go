// Package taskpool multiplexes a dynamic set of concurrently running
// operations and hands their results back in completion order.
//
// Each pushed operation runs on its own goroutine. A finished operation parks
// on the pool's completion channel until the consumer receives it, so waiting
// for the next result costs the same whether one or ten thousand operations
// are still running. The pool is meant for a single consumer: Push, Next,
// Settle and Len must be called from one goroutine, while the operations
// themselves progress concurrently.
package taskpool

import "context"

// Operation is a unit of background work producing a result of type T.
// The context is the one passed to Push; operations should return promptly
// once it is done.
type Operation[T any] func(ctx context.Context) T

// Pool is a completion-ordered multiplexer over in-flight operations.
// The zero value is not usable; call New.
type Pool[T any] struct {
	done    chan T
	pending int
}

// New creates an empty pool.
func New[T any]() *Pool[T] {
	return &Pool[T]{done: make(chan T)}
}

// Push enrolls op and starts it immediately.
func (p *Pool[T]) Push(ctx context.Context, op Operation[T]) {
	p.pending++
	go func() {
		p.done <- op(ctx)
	}()
}

// Len returns the number of operations whose results have not been taken yet.
func (p *Pool[T]) Len() int {
	return p.pending
}

// C returns the channel on which finished results arrive, or nil when the pool
// is empty so that a select case on it never fires. Every value received from
// C must be followed by a call to Settle.
func (p *Pool[T]) C() <-chan T {
	if p.pending == 0 {
		return nil
	}
	return p.done
}

// Settle records that one result was received from C.
func (p *Pool[T]) Settle() {
	if p.pending > 0 {
		p.pending--
	}
}

// Next blocks until some operation finishes and returns its result. It returns
// false immediately if the pool is empty, or when ctx is done first.
func (p *Pool[T]) Next(ctx context.Context) (T, bool) {
	var zero T
	if p.pending == 0 {
		return zero, false
	}
	select {
	case v := <-p.done:
		p.pending--
		return v, true
	case <-ctx.Done():
		return zero, false
	}
}

package engine

import (
	"context"
	"sync"

	"github.com/seantiz/stash/internal/model"
)

// subscriberBufferSize is the channel buffer for each result subscriber.
// Results are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 64

// Broker streams task results to live subscribers. It is safe for concurrent
// use.
//
// Once closed, the broker keeps handing out closed channels so that late
// subscribers do not block forever.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan model.TaskResult
	nextID int
	closed bool
}

// NewBroker creates a new result broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[int]chan model.TaskResult),
	}
}

// Subscribe returns a channel that receives every result published from now
// on, and an unsubscribe function. If the broker is closed, the returned
// channel is already closed.
func (b *Broker) Subscribe() (<-chan model.TaskResult, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan model.TaskResult, subscriberBufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
}

// Publish sends r to all subscribers. Results are dropped for subscribers
// whose buffers are full.
func (b *Broker) Publish(r model.TaskResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- r:
		default:
			// Drop for slow subscribers to avoid blocking the actor loop.
		}
	}
}

// Report publishes r. It lets the broker act as an actor reporter.
func (b *Broker) Report(_ context.Context, r model.TaskResult) error {
	b.Publish(r)
	return nil
}

// Subscribers returns the number of live subscribers.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close signals that no more results will be published. All subscriber
// channels are closed and future Subscribe calls return a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

package actor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the mailbox size used when a non-positive capacity is given.
const DefaultCapacity = 32

// mailbox is the shared state behind a Sender/Receiver pair.
type mailbox struct {
	ch chan Command

	// mu guards senders and closed. Sends hold it for reading so that the
	// last Close and the receiver's release never race an in-flight send.
	mu      sync.RWMutex
	senders int
	closed  bool

	gone     chan struct{}
	goneOnce sync.Once
}

// Sender is a producer handle for the actor's mailbox. Handles are safe for
// concurrent use. The mailbox closes once every handle obtained from
// NewChannel or Clone has been closed.
type Sender struct {
	mb     *mailbox
	closed atomic.Bool
}

// Receiver is the consuming end of the mailbox, owned by the actor loop.
type Receiver struct {
	mb *mailbox
}

// NewChannel creates a bounded mailbox holding up to capacity queued commands
// and returns its first Sender and its Receiver.
func NewChannel(capacity int) (*Sender, *Receiver) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	mb := &mailbox{
		ch:      make(chan Command, capacity),
		senders: 1,
		gone:    make(chan struct{}),
	}
	return &Sender{mb: mb}, &Receiver{mb: mb}
}

// Send enqueues cmd, blocking while the mailbox is full. It returns ErrClosed
// if the actor stopped accepting commands, ErrSenderClosed if this handle was
// closed, or the context error if ctx ends first.
func (s *Sender) Send(ctx context.Context, cmd Command) error {
	if s.closed.Load() {
		return ErrSenderClosed
	}

	s.mb.mu.RLock()
	defer s.mb.mu.RUnlock()

	if s.mb.closed {
		return ErrSenderClosed
	}
	select {
	case <-s.mb.gone:
		return ErrClosed
	default:
	}

	select {
	case s.mb.ch <- cmd:
		return nil
	case <-s.mb.gone:
		return ErrClosed
	case <-ctx.Done():
		return fmt.Errorf("send command: %w", ctx.Err())
	}
}

// Clone returns an additional handle to the same mailbox.
func (s *Sender) Clone() (*Sender, error) {
	if s.closed.Load() {
		return nil, ErrSenderClosed
	}

	s.mb.mu.Lock()
	defer s.mb.mu.Unlock()

	if s.mb.closed {
		return nil, ErrSenderClosed
	}
	s.mb.senders++
	return &Sender{mb: s.mb}, nil
}

// Close releases this handle. Closing the last open handle closes the mailbox,
// which lets the actor drain and terminate. Close is idempotent.
func (s *Sender) Close() {
	if s.closed.Swap(true) {
		return
	}

	s.mb.mu.Lock()
	defer s.mb.mu.Unlock()

	s.mb.senders--
	if s.mb.senders == 0 && !s.mb.closed {
		s.mb.closed = true
		close(s.mb.ch)
	}
}

// Done is closed once the actor stops accepting commands.
func (s *Sender) Done() <-chan struct{} {
	return s.mb.gone
}

// C returns the channel commands are delivered on. It is closed once every
// Sender has been closed.
func (r *Receiver) C() <-chan Command {
	return r.mb.ch
}

// Len returns the number of queued commands.
func (r *Receiver) Len() int {
	return len(r.mb.ch)
}

// release marks the receiving end as gone. Blocked and future sends fail with
// ErrClosed. When release returns no send is in flight any more, so whatever
// is queued at that point is all that will ever be queued.
func (r *Receiver) release() {
	r.mb.goneOnce.Do(func() { close(r.mb.gone) })

	// Wait out sends that were already past their gone check.
	r.mb.mu.Lock()
	r.mb.mu.Unlock()
}

// discard removes and returns every queued command without blocking.
func (r *Receiver) discard() []Command {
	var out []Command
	for {
		select {
		case cmd, ok := <-r.mb.ch:
			if !ok {
				return out
			}
			out = append(out, cmd)
		default:
			return out
		}
	}
}

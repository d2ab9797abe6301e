package actor

import "errors"

var (
	// ErrClosed is returned to senders once the actor no longer accepts commands.
	ErrClosed = errors.New("actor: no longer accepting commands")

	// ErrSenderClosed is returned when a Sender handle is used after Close.
	ErrSenderClosed = errors.New("actor: sender closed")

	// ErrNoReply is returned by Reply.Wait when the request was discarded
	// without an answer.
	ErrNoReply = errors.New("actor: request dropped without reply")

	errNilCommand  = errors.New("nil command")
	errNoReplySlot = errors.New("get without reply slot")
	errNoSpawner   = errors.New("no task spawner configured")
)

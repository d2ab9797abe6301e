package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChannelDefaultCapacity(t *testing.T) {
	_, rx := NewChannel(0)
	assert.Equal(t, DefaultCapacity, cap(rx.mb.ch))

	_, rx = NewChannel(4)
	assert.Equal(t, 4, cap(rx.mb.ch))
}

func TestSendDelivers(t *testing.T) {
	tx, rx := NewChannel(2)
	require.NoError(t, tx.Send(context.Background(), Set{Key: "a", Value: "1"}))
	assert.Equal(t, 1, rx.Len())

	cmd := <-rx.C()
	assert.Equal(t, Set{Key: "a", Value: "1"}, cmd)
}

func TestMailboxClosesAfterLastSender(t *testing.T) {
	tx, rx := NewChannel(2)
	clone, err := tx.Clone()
	require.NoError(t, err)

	tx.Close()
	require.NoError(t, clone.Send(context.Background(), Clear{}))
	<-rx.C()

	clone.Close()
	_, ok := <-rx.C()
	assert.False(t, ok, "mailbox should close once every sender is closed")
}

func TestSenderCloseIdempotent(t *testing.T) {
	tx, rx := NewChannel(1)
	other, err := tx.Clone()
	require.NoError(t, err)

	tx.Close()
	tx.Close()

	// other keeps the mailbox open.
	require.NoError(t, other.Send(context.Background(), Clear{}))
	assert.Equal(t, 1, rx.Len())
	other.Close()
}

func TestClosedSender(t *testing.T) {
	tx, _ := NewChannel(1)
	tx.Close()

	assert.ErrorIs(t, tx.Send(context.Background(), Clear{}), ErrSenderClosed)
	_, err := tx.Clone()
	assert.ErrorIs(t, err, ErrSenderClosed)
}

func TestSendBlocksWhenFull(t *testing.T) {
	tx, _ := NewChannel(1)
	require.NoError(t, tx.Send(context.Background(), Clear{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tx.Send(ctx, Clear{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReleaseUnblocksSenders(t *testing.T) {
	tx, rx := NewChannel(1)
	require.NoError(t, tx.Send(context.Background(), Clear{}))

	errc := make(chan error, 1)
	go func() { errc <- tx.Send(context.Background(), Clear{}) }()

	time.Sleep(10 * time.Millisecond)
	rx.release()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked send was not released")
	}

	select {
	case <-tx.Done():
	default:
		t.Error("Done should be closed after release")
	}
	assert.ErrorIs(t, tx.Send(context.Background(), Clear{}), ErrClosed)
}

func TestReceiverDiscard(t *testing.T) {
	tx, rx := NewChannel(4)
	ctx := context.Background()
	require.NoError(t, tx.Set(ctx, "a", "1"))
	require.NoError(t, tx.Clear(ctx))

	cmds := rx.discard()
	assert.Len(t, cmds, 2)
	assert.Zero(t, rx.Len())
	assert.Empty(t, rx.discard())
}

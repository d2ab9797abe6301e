package natsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seantiz/stash/internal/actor"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// startActor runs a cache actor for the duration of the test.
func startActor(t *testing.T) (*actor.Sender, *actor.Cache) {
	t.Helper()
	cache := actor.New(actor.Options{Logger: quietLogger()})
	tx, rx := actor.NewChannel(8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.Run(context.Background(), rx)
	}()
	t.Cleanup(func() {
		tx.Close()
		<-done
	})
	return tx, cache
}

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	tx, _ := startActor(t)
	clone, err := tx.Clone()
	require.NoError(t, err)
	t.Cleanup(clone.Close)
	return &Bridge{tx: clone, prefix: DefaultPrefix, log: quietLogger()}
}

func TestHandleSetGetClear(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	rf := b.handle(ctx, OpSet, []byte(`{"key":"a","value":"1"}`))
	assert.Empty(t, rf.Err)

	rf = b.handle(ctx, OpGet, []byte(`{"key":"a"}`))
	assert.Equal(t, responseFrame{Data: "1", Found: true}, rf)

	rf = b.handle(ctx, OpClear, nil)
	assert.Empty(t, rf.Err)

	rf = b.handle(ctx, OpGet, []byte(`{"key":"a"}`))
	assert.Equal(t, responseFrame{}, rf)
}

func TestHandleErrors(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		op      string
		payload string
		want    string
	}{
		{"bad json", OpSet, `{`, "decode request"},
		{"task without id", OpTask, `{}`, "id is required"},
		{"unknown op", "explode", `{}`, "unknown operation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rf := b.handle(ctx, tt.op, []byte(tt.payload))
			assert.Contains(t, rf.Err, tt.want)
		})
	}
}

func TestHandleAfterActorStopped(t *testing.T) {
	cache := actor.New(actor.Options{Logger: quietLogger()})
	tx, rx := actor.NewChannel(1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.Run(ctx, rx)
	}()
	cancel()
	<-done
	defer tx.Close()

	b := &Bridge{tx: tx, prefix: DefaultPrefix, log: quietLogger()}
	rf := b.handle(context.Background(), OpGet, []byte(`{"key":"a"}`))
	assert.Equal(t, actor.ErrClosed.Error(), rf.Err)
}

func TestSubject(t *testing.T) {
	b := &Bridge{prefix: "cache"}
	assert.Equal(t, "cache.get", b.Subject(OpGet))
	assert.Equal(t, "cache.task", b.Subject(OpTask))
}

func TestNewRequiresConnectorAndSender(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	tx, _ := startActor(t)
	_, err = New(Config{Sender: tx})
	assert.Error(t, err)
}

// TestBridgeOverNATS needs a running server, e.g.
// STASH_TEST_NATS_URL=nats://127.0.0.1:4222.
func TestBridgeOverNATS(t *testing.T) {
	natsURL := os.Getenv("STASH_TEST_NATS_URL")
	if natsURL == "" {
		t.Skip("STASH_TEST_NATS_URL not set")
	}

	tx, _ := startActor(t)
	clone, err := tx.Clone()
	require.NoError(t, err)

	prefix := "stash-test-" + time.Now().Format("150405.000000")
	b, err := New(Config{
		Connect: ConnectURL(natsURL),
		Sender:  clone,
		Prefix:  prefix,
		Log:     quietLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	client, closeClient, err := ConnectURL(natsURL)()
	require.NoError(t, err)
	defer closeClient()

	request := func(op, body string) responseFrame {
		t.Helper()
		var msg []byte
		require.Eventually(t, func() bool {
			reply, err := client.Request(b.Subject(op), []byte(body), time.Second)
			if err != nil {
				return false
			}
			msg = reply.Data
			return true
		}, 5*time.Second, 50*time.Millisecond)

		var rf responseFrame
		require.NoError(t, json.Unmarshal(msg, &rf))
		return rf
	}

	assert.Empty(t, request(OpSet, `{"key":"a","value":"1"}`).Err)
	assert.Equal(t, responseFrame{Data: "1", Found: true}, request(OpGet, `{"key":"a"}`))
}

// TestRunAnswersInflightRequestsBeforeStopping needs a running server, e.g.
// STASH_TEST_NATS_URL=nats://127.0.0.1:4222.
func TestRunAnswersInflightRequestsBeforeStopping(t *testing.T) {
	natsURL := os.Getenv("STASH_TEST_NATS_URL")
	if natsURL == "" {
		t.Skip("STASH_TEST_NATS_URL not set")
	}

	// The actor starts late, so a Get stays in flight inside the handler.
	cache := actor.New(actor.Options{Logger: quietLogger()})
	tx, rx := actor.NewChannel(8)
	actorDone := make(chan struct{})
	runActor := sync.OnceFunc(func() {
		go func() {
			defer close(actorDone)
			cache.Run(context.Background(), rx)
		}()
	})
	defer func() {
		tx.Close()
		runActor()
		<-actorDone
	}()
	require.NoError(t, tx.Set(context.Background(), "a", "1"))

	clone, err := tx.Clone()
	require.NoError(t, err)
	b, err := New(Config{
		Connect: ConnectURL(natsURL),
		Sender:  clone,
		Prefix:  "stash-drain-" + time.Now().Format("150405.000000"),
		Log:     quietLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- b.Run(ctx) }()

	client, closeClient, err := ConnectURL(natsURL)()
	require.NoError(t, err)
	defer closeClient()

	replies := make(chan *natsgo.Msg, 1)
	go func() {
		for {
			msg, err := client.Request(b.Subject(OpGet), []byte(`{"key":"a"}`), 5*time.Second)
			if err == nil {
				replies <- msg
				return
			}
			if !errors.Is(err, natsgo.ErrNoResponders) {
				close(replies)
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	// Wait for the Get to reach the mailbox, then stop the bridge.
	require.Eventually(t, func() bool { return rx.Len() == 2 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-runDone:
		t.Fatalf("Run returned before the in-flight request was answered: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	runActor()

	msg, ok := <-replies
	require.True(t, ok, "request failed")
	var rf responseFrame
	require.NoError(t, json.Unmarshal(msg.Data, &rf))
	assert.Equal(t, responseFrame{Data: "1", Found: true}, rf)

	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after the drain")
	}
}

package natsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/seantiz/stash/internal/actor"
)

const (
	DefaultPrefix  = "stash"
	requestTimeout = 5 * time.Second
)

// Operations served by the bridge, one subject each: <prefix>.<op>.
const (
	OpGet   = "get"
	OpSet   = "set"
	OpClear = "clear"
	OpTask  = "task"
)

var errUnknownOp = errors.New("unknown operation")

type Config struct {
	Connect Connector     // Connect opens the NATS connection. Required.
	Sender  *actor.Sender // Sender is owned by the bridge and closed when Run returns.
	Prefix  string        // Prefix for subjects, e.g. "stash" -> stash.get
	Log     *slog.Logger
}

// requestFrame is the JSON body of every request.
type requestFrame struct {
	Key   string  `json:"key,omitempty"`
	Value string  `json:"value,omitempty"`
	ID    *uint32 `json:"id,omitempty"`
}

// responseFrame is the JSON body of every reply.
type responseFrame struct {
	Data  string `json:"data,omitempty"`
	Found bool   `json:"found,omitempty"`
	Err   string `json:"err,omitempty"`
}

// Bridge forwards NATS requests to the actor mailbox.
type Bridge struct {
	nc      *natsgo.Conn
	closeNc closeFunc
	tx      *actor.Sender
	prefix  string
	log     *slog.Logger
}

func New(cfg Config) (*Bridge, error) {
	if cfg.Connect == nil {
		return nil, errors.New("natsbridge: no connector")
	}
	if cfg.Sender == nil {
		return nil, errors.New("natsbridge: no sender")
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	nc, closeNc, err := cfg.Connect()
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}

	return &Bridge{
		nc:      nc,
		closeNc: closeNc,
		tx:      cfg.Sender,
		prefix:  prefix,
		log:     log.With(slog.String("transport", "nats")),
	}, nil
}

// Subject returns the subject serving op.
func (b *Bridge) Subject(op string) string {
	return b.prefix + "." + op
}

// Run subscribes to every operation subject and serves requests until ctx is
// done. It then drains the connection, waits for the handlers still running
// and only then releases the Sender.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.tx.Close()

	closed := make(chan struct{})
	var closeOnce sync.Once
	b.nc.SetClosedHandler(func(*natsgo.Conn) {
		closeOnce.Do(func() { close(closed) })
	})

	// Requests still in flight while draining must not see ctx as done.
	reqCtx := context.WithoutCancel(ctx)

	var subs []*natsgo.Subscription
	for _, op := range []string{OpGet, OpSet, OpClear, OpTask} {
		sub, err := b.nc.Subscribe(b.Subject(op), func(msg *natsgo.Msg) {
			b.serve(reqCtx, op, msg)
		})
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			b.closeNc()
			return fmt.Errorf("nats: subscribe %s: %w", b.Subject(op), err)
		}
		subs = append(subs, sub)
	}
	b.log.Info("nats bridge listening", slog.String("prefix", b.prefix))

	<-ctx.Done()

	// Drain only starts the shutdown; the connection reports completion
	// through the closed handler.
	if err := b.nc.Drain(); err != nil {
		b.log.Warn("drain nats connection", slog.Any("error", err))
		b.closeNc()
		return nil
	}

	wait := b.nc.Opts.DrainTimeout + time.Second
	select {
	case <-closed:
	case <-time.After(wait):
		b.log.Warn("nats drain did not finish", slog.Duration("waited", wait))
		b.closeNc()
	}
	b.log.Info("nats bridge stopped")
	return nil
}

func (b *Bridge) serve(ctx context.Context, op string, msg *natsgo.Msg) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	rf := b.handle(ctx, op, msg.Data)
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(rf)
	if err != nil {
		b.log.Error("encode reply", slog.Any("error", err))
		return
	}
	if err := msg.Respond(data); err != nil {
		b.log.Error("failed to publish reply", slog.Any("error", err))
	}
}

// handle decodes one request, applies it to the actor and builds the reply.
func (b *Bridge) handle(ctx context.Context, op string, payload []byte) responseFrame {
	var req requestFrame
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return responseFrame{Err: "decode request: " + err.Error()}
		}
	}

	var err error
	switch op {
	case OpGet:
		var (
			v  string
			ok bool
		)
		v, ok, err = b.tx.Get(ctx, req.Key)
		if err == nil {
			return responseFrame{Data: v, Found: ok}
		}
	case OpSet:
		err = b.tx.Set(ctx, req.Key, req.Value)
	case OpClear:
		err = b.tx.Clear(ctx)
	case OpTask:
		if req.ID == nil {
			return responseFrame{Err: "id is required"}
		}
		err = b.tx.StartTask(ctx, *req.ID)
	default:
		err = fmt.Errorf("%w %q", errUnknownOp, op)
	}

	if err != nil {
		b.log.Debug("request failed", slog.String("op", op), slog.Any("error", err))
		return responseFrame{Err: err.Error()}
	}
	return responseFrame{}
}

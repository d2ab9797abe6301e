package actor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/seantiz/stash/internal/model"
	"github.com/seantiz/stash/internal/taskpool"
)

// Phase is the lifecycle stage of the actor loop.
type Phase int32

// Phases in the order Run passes through them.
const (
	PhaseRunning Phase = iota
	PhaseDraining
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseDraining:
		return "draining"
	case PhaseTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Spawner turns a task id into an operation the actor can enroll.
type Spawner interface {
	Spawn(id uint32) taskpool.Operation[model.TaskResult]
}

// SpawnerFunc adapts a function to a Spawner.
type SpawnerFunc func(id uint32) taskpool.Operation[model.TaskResult]

func (f SpawnerFunc) Spawn(id uint32) taskpool.Operation[model.TaskResult] { return f(id) }

// Options configures a Cache. Every field is optional.
type Options struct {
	// Spawner builds background tasks. Without one, StartTask commands are
	// rejected with a warning.
	Spawner Spawner

	// Reporter receives finished task results. Defaults to LogReporter.
	Reporter Reporter

	Logger  *slog.Logger
	Metrics Metrics
}

// Cache is the key/value actor. Create it with New and start it with Run.
type Cache struct {
	state    *State
	tasks    *taskpool.Pool[model.TaskResult]
	spawner  Spawner
	reporter Reporter
	log      *slog.Logger
	metrics  Metrics

	phase   atomic.Int32
	pending atomic.Int32
}

// New creates a Cache with an empty state.
func New(opt Options) *Cache {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Reporter == nil {
		opt.Reporter = LogReporter(opt.Logger)
	}
	if opt.Metrics == nil {
		opt.Metrics = NopMetrics()
	}

	return &Cache{
		state:    NewState(),
		tasks:    taskpool.New[model.TaskResult](),
		spawner:  opt.Spawner,
		reporter: opt.Reporter,
		log:      opt.Logger.With("component", "actor"),
		metrics:  opt.Metrics,
	}
}

// Phase returns the current lifecycle phase. Safe to call from any goroutine.
func (c *Cache) Phase() Phase {
	return Phase(c.phase.Load())
}

// Pending returns the number of tasks in flight. Safe to call from any goroutine.
func (c *Cache) Pending() int {
	return int(c.pending.Load())
}

// Run executes the event loop until the mailbox closes and every task has
// been reported, then returns the final state. Cancelling ctx tears the actor
// down early: queued commands are discarded and in-flight tasks are cancelled,
// but their results are still awaited and reported. Run must be called once.
func (c *Cache) Run(ctx context.Context, rx *Receiver) *State {
	// Tasks outlive a closed mailbox; only an explicit teardown cancels them.
	taskCtx, cancelTasks := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelTasks()
	reportCtx := context.WithoutCancel(ctx)

	c.setPhase(PhaseRunning)
	c.serve(ctx, taskCtx, reportCtx, rx)

	rx.release()
	if ctx.Err() != nil {
		c.discard(rx)
		cancelTasks()
	}

	c.setPhase(PhaseDraining)
	c.log.Info("draining tasks", "pending", c.tasks.Len())
	for {
		res, ok := c.tasks.Next(context.Background())
		if !ok {
			break
		}
		c.onTaskResult(reportCtx, res)
	}

	c.setPhase(PhaseTerminated)
	c.log.Info("actor terminated", "keys", c.state.Len())
	return c.state
}

// serve multiplexes commands and task completions until the mailbox closes or
// ctx is done. select picks uniformly among ready cases, so a busy source
// cannot starve the other.
func (c *Cache) serve(ctx, taskCtx, reportCtx context.Context, rx *Receiver) {
	for {
		select {
		case cmd, ok := <-rx.C():
			if !ok {
				c.log.Debug("mailbox closed")
				return
			}
			c.metrics.MailboxDepth(rx.Len())
			c.onCommand(taskCtx, cmd)

		case res := <-c.tasks.C():
			c.tasks.Settle()
			c.onTaskResult(reportCtx, res)

		case <-ctx.Done():
			c.log.Info("teardown requested", "pending", c.tasks.Len(), "error", ctx.Err())
			return
		}
	}
}

func (c *Cache) onCommand(taskCtx context.Context, cmd Command) {
	start := time.Now()
	kind := "unknown"
	if cmd != nil {
		kind = cmd.Kind()
	}

	err := c.dispatch(taskCtx, cmd)
	c.metrics.CommandProcessed(kind, err == nil, time.Since(start))
	if err != nil {
		c.log.Warn("command failed", "kind", kind, "error", err)
	}
}

// dispatch applies a single command. A panic is contained and turned into an
// error so that one bad command never stops the loop.
func (c *Cache) dispatch(taskCtx context.Context, cmd Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("command handler panicked", "recovered", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch cmd := cmd.(type) {
	case Get:
		if cmd.Reply == nil {
			return errNoReplySlot
		}
		v, ok := c.state.Get(cmd.Key)
		// The requester may have given up; that is not an error.
		cmd.Reply.Deliver(Lookup{Value: v, Found: ok})
	case Set:
		c.state.Set(cmd.Key, cmd.Value)
	case Clear:
		c.state.Clear()
	case StartTask:
		return c.startTask(taskCtx, cmd.ID)
	case nil:
		return errNilCommand
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
	return nil
}

func (c *Cache) startTask(ctx context.Context, id uint32) error {
	if c.spawner == nil {
		return errNoSpawner
	}
	c.tasks.Push(ctx, c.spawner.Spawn(id))
	c.trackPending()
	c.log.Debug("task started", "task_id", id, "pending", c.tasks.Len())
	return nil
}

func (c *Cache) onTaskResult(ctx context.Context, res model.TaskResult) {
	c.trackPending()
	c.metrics.TaskFinished(res)
	if err := c.reporter.Report(ctx, res); err != nil {
		c.log.Warn("report task result", "task_id", res.ID, "error", err)
	}
}

// discard throws away commands still queued at teardown. Pending Gets are
// woken with ErrNoReply.
func (c *Cache) discard(rx *Receiver) {
	cmds := rx.discard()
	for _, cmd := range cmds {
		if g, ok := cmd.(Get); ok && g.Reply != nil {
			g.Reply.drop()
		}
	}
	if len(cmds) > 0 {
		c.log.Warn("discarded queued commands", "count", len(cmds))
	}
}

func (c *Cache) trackPending() {
	n := c.tasks.Len()
	c.pending.Store(int32(n))
	c.metrics.TasksInflight(n)
}

func (c *Cache) setPhase(p Phase) {
	c.phase.Store(int32(p))
	c.log.Debug("phase changed", "phase", p.String())
}

// Package actor implements the cache actor: a single goroutine that owns an
// in-memory key/value [State], serves [Command] values from a bounded
// mailbox, and supervises the background tasks it starts.
//
// # Wiring
//
//	tx, rx := actor.NewChannel(32)
//	cache := actor.New(actor.Options{Spawner: spawner, Reporter: reporter})
//	go func() { final := cache.Run(ctx, rx); ... }()
//
//	_ = tx.Set(ctx, "k", "v")
//	v, ok, err := tx.Get(ctx, "k")
//	_ = tx.StartTask(ctx, 4)
//	tx.Close()
//
// # Lifecycle
//
// The loop runs in [PhaseRunning] until every [Sender] handle is closed. It
// then enters [PhaseDraining], where no commands are accepted but every task
// still in flight is awaited and reported. Finally it moves to
// [PhaseTerminated] and Run hands the State back to its caller.
//
// Cancelling the context given to Run requests an early teardown: queued
// commands are discarded, in-flight tasks see their context cancelled, and the
// drain only waits for them to acknowledge.
package actor

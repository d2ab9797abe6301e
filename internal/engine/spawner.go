package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seantiz/stash/internal/model"
	"github.com/seantiz/stash/internal/policy"
	"github.com/seantiz/stash/internal/taskpool"
)

// Spawner builds simulated background tasks.
type Spawner struct {
	policy policy.Policy
	logger *slog.Logger
}

// NewSpawner creates a spawner whose tasks follow p.
func NewSpawner(p policy.Policy, logger *slog.Logger) *Spawner {
	return &Spawner{
		policy: p,
		logger: logger,
	}
}

// Spawn returns the operation for task id. Nothing runs until the operation
// is invoked, which the task pool does on its own goroutine.
func (s *Spawner) Spawn(id uint32) taskpool.Operation[model.TaskResult] {
	return func(ctx context.Context) model.TaskResult {
		return s.execute(ctx, id)
	}
}

// execute waits out the policy latency and reports the policy outcome. A done
// ctx or a panicking policy yields a failed result.
func (s *Spawner) execute(ctx context.Context, id uint32) (res model.TaskResult) {
	start := time.Now()
	res = model.TaskResult{ID: id, StartedAt: start.UTC()}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked", "task_id", id, "recovered", r)
			res.Outcome = model.OutcomeFailed
			res.Error = fmt.Sprintf("panic: %v", r)
		}
		res.FinishedAt = time.Now().UTC()
		res.DurationMS = int(time.Since(start).Milliseconds())
	}()

	timer := time.NewTimer(s.policy.Latency(id))
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		res.Outcome = model.OutcomeFailed
		res.Error = ctx.Err().Error()
		return res
	}

	if err := s.policy.Outcome(id); err != nil {
		res.Outcome = model.OutcomeFailed
		res.Error = err.Error()
		return res
	}
	res.Outcome = model.OutcomeCompleted
	return res
}

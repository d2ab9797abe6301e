package policy

import (
	"errors"
	"fmt"
	"time"
)

// ErrTaskFailed is the outcome error reported by the built-in policies.
var ErrTaskFailed = errors.New("task failed")

// Policy decides the latency and outcome of a task from its id.
type Policy interface {
	// Latency returns how long the task with the given id runs.
	Latency(id uint32) time.Duration

	// Outcome returns nil if the task completes, or the reason it failed.
	Outcome(id uint32) error

	// Describe returns a short human readable summary of the policy.
	Describe() string
}

// Parity completes tasks with an even id and fails odd ones. A task takes id
// multiples of Unit to run.
type Parity struct {
	Unit time.Duration
}

func (p Parity) Latency(id uint32) time.Duration { return time.Duration(id) * p.Unit }

func (p Parity) Outcome(id uint32) error {
	if id%2 == 0 {
		return nil
	}
	return fmt.Errorf("odd task %d: %w", id, ErrTaskFailed)
}

func (p Parity) Describe() string {
	return fmt.Sprintf("even ids complete, odd ids fail; runs id x %s", p.Unit)
}

// Always completes every task. A task takes id multiples of Unit to run.
type Always struct {
	Unit time.Duration
}

func (a Always) Latency(id uint32) time.Duration { return time.Duration(id) * a.Unit }
func (a Always) Outcome(uint32) error            { return nil }

func (a Always) Describe() string {
	return fmt.Sprintf("every task completes; runs id x %s", a.Unit)
}

// Func adapts plain functions to a Policy. Nil fields mean zero latency and
// success respectively.
type Func struct {
	LatencyFunc func(id uint32) time.Duration
	OutcomeFunc func(id uint32) error
	Summary     string
}

func (f Func) Latency(id uint32) time.Duration {
	if f.LatencyFunc == nil {
		return 0
	}
	return f.LatencyFunc(id)
}

func (f Func) Outcome(id uint32) error {
	if f.OutcomeFunc == nil {
		return nil
	}
	return f.OutcomeFunc(id)
}

func (f Func) Describe() string { return f.Summary }

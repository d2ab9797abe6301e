package actor

import (
	"time"

	"github.com/seantiz/stash/internal/model"
)

// Metrics receives instrumentation events from the actor loop.
// Implementations must be safe for concurrent use.
type Metrics interface {
	CommandProcessed(kind string, success bool, d time.Duration)
	MailboxDepth(depth int)
	TasksInflight(count int)
	TaskFinished(r model.TaskResult)
}

// nopMetrics is a no-op implementation of Metrics.
type nopMetrics struct{}

func (nopMetrics) CommandProcessed(string, bool, time.Duration) {}
func (nopMetrics) MailboxDepth(int)                             {}
func (nopMetrics) TasksInflight(int)                            {}
func (nopMetrics) TaskFinished(model.TaskResult)                {}

// NopMetrics returns a Metrics implementation that discards everything.
func NopMetrics() Metrics { return nopMetrics{} }

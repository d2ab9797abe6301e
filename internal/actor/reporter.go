package actor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/seantiz/stash/internal/model"
)

// Reporter receives the result of every finished task. Reporters are called
// from the actor loop and should not block for long.
type Reporter interface {
	Report(ctx context.Context, r model.TaskResult) error
}

// ReporterFunc adapts a function to a Reporter.
type ReporterFunc func(ctx context.Context, r model.TaskResult) error

func (f ReporterFunc) Report(ctx context.Context, r model.TaskResult) error { return f(ctx, r) }

// MultiReporter fans a result out to several reporters. Every reporter is
// called; the errors are joined.
type MultiReporter []Reporter

func (m MultiReporter) Report(ctx context.Context, r model.TaskResult) error {
	var errs []error
	for _, rep := range m {
		if err := rep.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type logReporter struct {
	log *slog.Logger
}

// LogReporter returns a Reporter that writes each result to logger.
func LogReporter(logger *slog.Logger) Reporter {
	return logReporter{log: logger}
}

func (l logReporter) Report(ctx context.Context, r model.TaskResult) error {
	if r.Failed() {
		l.log.InfoContext(ctx, "task failed",
			"task_id", r.ID,
			"duration_ms", r.DurationMS,
			"error", r.Error,
		)
		return nil
	}
	l.log.InfoContext(ctx, "task completed",
		"task_id", r.ID,
		"duration_ms", r.DurationMS,
	)
	return nil
}

package engine

import (
	"context"
	"fmt"

	"github.com/seantiz/stash/internal/model"
	"github.com/seantiz/stash/internal/store"
)

// LedgerReporter records every task result in the store.
type LedgerReporter struct {
	store store.Store
}

// NewLedgerReporter creates a reporter writing to s.
func NewLedgerReporter(s store.Store) *LedgerReporter {
	return &LedgerReporter{store: s}
}

// Report persists r under a fresh record ID.
func (l *LedgerReporter) Report(ctx context.Context, r model.TaskResult) error {
	if err := l.store.RecordResult(ctx, model.NewResultRecord(r)); err != nil {
		return fmt.Errorf("record task %d: %w", r.ID, err)
	}
	return nil
}

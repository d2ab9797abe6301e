package store

import (
	"context"

	"github.com/seantiz/stash/internal/model"
)

// ResultStats holds aggregate task statistics.
type ResultStats struct {
	Total          int            `json:"total"`
	CountByOutcome map[string]int `json:"count_by_outcome"`
	AvgDurationMS  float64        `json:"avg_duration_ms"`
}

// Store defines the persistence operations for the task result ledger.
type Store interface {
	RecordResult(ctx context.Context, rec *model.ResultRecord) error
	GetResult(ctx context.Context, recordID string) (*model.ResultRecord, error)
	// ListResults returns results newest first. A nil taskID lists every task.
	ListResults(ctx context.Context, taskID *uint32, limit, offset int) ([]*model.ResultRecord, int, error)
	GetResultStats(ctx context.Context) (*ResultStats, error)
	Close() error
}

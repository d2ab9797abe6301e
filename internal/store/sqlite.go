package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/seantiz/stash/internal/model"

	_ "modernc.org/sqlite"
)

const createResultsTable = `
CREATE TABLE IF NOT EXISTS task_results (
    id          TEXT PRIMARY KEY,
    task_id     INTEGER NOT NULL,
    outcome     TEXT NOT NULL,
    error       TEXT,
    duration_ms INTEGER NOT NULL,
    started_at  DATETIME NOT NULL,
    finished_at DATETIME NOT NULL,
    recorded_at DATETIME NOT NULL
)`

const createTaskIDIndex = `CREATE INDEX IF NOT EXISTS idx_task_results_task_id ON task_results (task_id)`

const selectColumns = `id, task_id, outcome, error, duration_ms, started_at, finished_at, recorded_at`

// ErrNotFound is returned when a result record is not found.
var ErrNotFound = errors.New("task result not found")

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createResultsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create task_results table: %w", err)
	}

	if _, err := db.Exec(createTaskIDIndex); err != nil {
		db.Close()
		return nil, fmt.Errorf("create task_id index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordResult inserts a result record.
func (s *SQLiteStore) RecordResult(ctx context.Context, rec *model.ResultRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_results (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RecordID, rec.ID, rec.Outcome, rec.Error, rec.DurationMS,
		rec.StartedAt, rec.FinishedAt, rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task result: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.ResultRecord, error) {
	rec := &model.ResultRecord{}
	var errMsg sql.NullString
	if err := row.Scan(
		&rec.RecordID, &rec.ID, &rec.Outcome, &errMsg, &rec.DurationMS,
		&rec.StartedAt, &rec.FinishedAt, &rec.RecordedAt,
	); err != nil {
		return nil, err
	}
	rec.Error = errMsg.String
	return rec, nil
}

// GetResult retrieves a result record by its record ID.
func (s *SQLiteStore) GetResult(ctx context.Context, recordID string) (*model.ResultRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM task_results WHERE id = ?`, recordID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task result: %w", err)
	}
	return rec, nil
}

// ListResults returns a paginated list of results ordered by recorded_at DESC,
// along with the total count of matching results.
func (s *SQLiteStore) ListResults(ctx context.Context, taskID *uint32, limit, offset int) ([]*model.ResultRecord, int, error) {
	where := ""
	var args []any
	if taskID != nil {
		where = " WHERE task_id = ?"
		args = append(args, *taskID)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM task_results"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count task results: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM task_results`+where+` ORDER BY recorded_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list task results: %w", err)
	}
	defer rows.Close()

	var records []*model.ResultRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan task result: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate task results: %w", err)
	}

	return records, total, nil
}

// GetResultStats returns the number of results per outcome and the average
// task duration.
func (s *SQLiteStore) GetResultStats(ctx context.Context) (*ResultStats, error) {
	stats := &ResultStats{CountByOutcome: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM task_results GROUP BY outcome`,
	)
	if err != nil {
		return nil, fmt.Errorf("count by outcome: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan outcome count: %w", err)
		}
		stats.CountByOutcome[outcome] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome counts: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT AVG(duration_ms) FROM task_results`,
	).Scan(&avg); err != nil {
		return nil, fmt.Errorf("average duration: %w", err)
	}
	stats.AvgDurationMS = avg.Float64

	return stats, nil
}

// Package storage keeps a local journal of export runs in SQLite. The
// journal is operational, not financial: it records when each source was
// last exported and whether it succeeded, so the presentation layer (and an
// operator) can tell "not yet available" apart from "fetch failed".
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Exporter sources.
const (
	SourceAccounting = "accounting"
	SourceOnchain    = "onchain"
)

// Run is one exporter invocation.
type Run struct {
	ID            int64
	Source        string
	StartedAt     time.Time
	FinishedAt    time.Time
	Status        string
	Detail        string
	ArtifactCount int
}

type RunStore struct {
	db *sql.DB
}

func NewRunStore(dbPath string) (*RunStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &RunStore{db: db}, nil
}

func (s *RunStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun appends one run to the journal.
func (s *RunStore) RecordRun(ctx context.Context, run Run) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO export_runs (source, started_at, finished_at, status, detail, artifact_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.Source,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Status,
		run.Detail,
		run.ArtifactCount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// LastSuccessful returns the most recent succeeded run for source, or nil
// when the source has never exported successfully.
func (s *RunStore) LastSuccessful(ctx context.Context, source string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, started_at, finished_at, status, detail, artifact_count
		FROM export_runs
		WHERE source = ? AND status = ?
		ORDER BY finished_at DESC, id DESC
		LIMIT 1`,
		source, RunSucceeded,
	)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last successful run: %w", err)
	}
	return run, nil
}

// RecentRuns lists the newest runs for source, newest first.
func (s *RunStore) RecentRuns(ctx context.Context, source string, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, started_at, finished_at, status, detail, artifact_count
		FROM export_runs
		WHERE source = ?
		ORDER BY finished_at DESC, id DESC
		LIMIT ?`,
		source, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var startedAt, finishedAt string

	err := row.Scan(&run.ID, &run.Source, &startedAt, &finishedAt, &run.Status, &run.Detail, &run.ArtifactCount)
	if err != nil {
		return nil, err
	}

	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	run.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt)
	return &run, nil
}

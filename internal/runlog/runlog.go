// Package runlog persists a local audit trail of import runs.
package runlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	input_path TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	processed INTEGER NOT NULL DEFAULT 0,
	errors INTEGER NOT NULL DEFAULT 0,
	duplicates INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'running'
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Run is one recorded import run.
type Run struct {
	ID         string
	InputPath  string
	StartedAt  time.Time
	FinishedAt *time.Time
	Processed  int
	Errors     int
	Duplicates int
	Status     string
}

// Log records import runs in a local SQLite file.
type Log struct {
	db *sql.DB
}

// Open opens or creates the run log at the given path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open database")
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrap(err, "runlog: set pragma")
		}
	}
	if _, err := db.Exec(migration); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "runlog: migrate")
	}
	return &Log{db: db}, nil
}

// Start records a new run and returns its id.
func (l *Log) Start(ctx context.Context, inputPath string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, started_at, status) VALUES (?, ?, ?, 'running')`,
		id, inputPath, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "runlog: start run")
	}
	return id, nil
}

// Finish records the final bucket counts for a run.
func (l *Log) Finish(ctx context.Context, id string, processed, errors, duplicates int) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, processed = ?, errors = ?, duplicates = ?, status = 'done' WHERE id = ?`,
		time.Now().UTC(), processed, errors, duplicates, id,
	)
	if err != nil {
		return eris.Wrap(err, "runlog: finish run")
	}
	return nil
}

// Fail marks a run as failed without counts.
func (l *Log) Fail(ctx context.Context, id string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = 'failed' WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrap(err, "runlog: fail run")
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, input_path, started_at, finished_at, processed, errors, duplicates, status
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: query runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.InputPath, &r.StartedAt, &finished, &r.Processed, &r.Errors, &r.Duplicates, &r.Status); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run")
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "runlog: iterate runs")
	}
	return runs, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

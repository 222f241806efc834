// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog records generation runs and the outputs they produced in
// a SQLite database. The catalog is bookkeeping only; conversion never reads
// it.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/seg2mseed/internal/survey"
)

// Run is one recorded CH or DH generation.
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	Survey    string    `json:"survey" yaml:"survey"`
	Format    string    `json:"format" yaml:"format"`
	InputDir  string    `json:"input_dir" yaml:"input_dir"`
	OutputDir string    `json:"output_dir" yaml:"output_dir"`
	Written   int       `json:"written" yaml:"written"`
	Converted int       `json:"converted" yaml:"converted"`
	Skipped   int       `json:"skipped" yaml:"skipped"`
	Failed    int       `json:"failed" yaml:"failed"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Outputs   []Output  `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Output is one channel group result of a run.
type Output struct {
	Name             string  `json:"name" yaml:"name"`
	Path             string  `json:"path,omitempty" yaml:"path,omitempty"`
	Status           string  `json:"status" yaml:"status"`
	Traces           int     `json:"traces" yaml:"traces"`
	SamplingRate     float64 `json:"sampling_rate" yaml:"sampling_rate"`
	IntermediateKept bool    `json:"intermediate_kept" yaml:"intermediate_kept"`
}

// Store manages the catalog database.
type Store struct {
	db  *sql.DB
	dir string

	// newID is swapped in tests.
	newID func() string
}

// Open opens or creates the catalog database at path, creating its
// directory and schema when missing.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir, newID: uuid.NewString}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			survey TEXT NOT NULL,
			format TEXT NOT NULL,
			input_dir TEXT,
			output_dir TEXT,
			written INTEGER,
			converted INTEGER,
			skipped INTEGER,
			failed INTEGER,
			started_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS outputs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			path TEXT,
			status TEXT NOT NULL,
			traces INTEGER,
			sampling_rate REAL,
			intermediate_kept INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outputs_run_id ON outputs(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a finished run and its outputs in one transaction and
// returns the run ID. An empty id is replaced by a new UUID.
func (s *Store) Record(ctx context.Context, id string, req survey.Request, sum survey.Summary, started time.Time) (string, error) {
	if id == "" {
		id = s.newID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, survey, format, input_dir, output_dir, written, converted, skipped, failed, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(sum.Survey), string(sum.Format), req.InputDir, req.OutputDir,
		sum.Written, sum.Converted, sum.Skipped, sum.Failed,
		started.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outputs (run_id, name, path, status, traces, sampling_rate, intermediate_kept)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range sum.Outputs {
		_, err := stmt.ExecContext(ctx,
			id, o.Name, o.Path, string(o.Status), o.Traces, o.SamplingRate, o.IntermediateKept,
		)
		if err != nil {
			return "", fmt.Errorf("inserting output %s: %w", o.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// Runs returns every recorded run, oldest first, without outputs.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, survey, format, input_dir, output_dir, written, converted, skipped, failed, started_at
		 FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Survey, &r.Format, &r.InputDir, &r.OutputDir,
			&r.Written, &r.Converted, &r.Skipped, &r.Failed, &started); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("scanning run %s: %w", r.ID, err)
		}
		r.StartedAt = t
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outputs returns the outputs of run id in insertion order.
func (s *Store) Outputs(ctx context.Context, id string) ([]Output, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, path, status, traces, sampling_rate, intermediate_kept
		 FROM outputs WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("querying outputs: %w", err)
	}
	defer rows.Close()

	var outs []Output
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.Name, &o.Path, &o.Status, &o.Traces, &o.SamplingRate, &o.IntermediateKept); err != nil {
			return nil, fmt.Errorf("scanning output: %w", err)
		}
		outs = append(outs, o)
	}
	return outs, rows.Err()
}

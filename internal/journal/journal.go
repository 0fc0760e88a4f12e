// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal records pipeline runs in a SQLite database so past runs,
// their parameters, and their outputs can be listed later.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fmri2bids/pkg/types"
)

// DefaultPath is the journal location relative to the project root.
const DefaultPath = ".fmri2bids/journal.db"

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound reports a run id with no journal entry.
var ErrNotFound = errors.New("run not found")

// Journal is a SQLite-backed run journal.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// PathFor returns the default journal path under root.
func PathFor(root string) string {
	return filepath.Join(root, DefaultPath)
}

// Open opens or creates the journal database at cfg.Path and ensures the
// schema exists.
func Open(cfg types.JournalConfig) (*Journal, error) {
	if cfg.Path == "" {
		return nil, errors.New("journal: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	j := &Journal{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			participant_id TEXT NOT NULL,
			root_dir TEXT NOT NULL,
			status TEXT NOT NULL,
			subs_dir TEXT,
			config_file TEXT,
			cmd TEXT,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Begin inserts a running record for p and returns it.
func (j *Journal) Begin(ctx context.Context, p types.Params) (*types.RunRecord, error) {
	rec := &types.RunRecord{
		ID:        uuid.NewString(),
		Params:    p,
		Status:    types.RunRunning,
		StartedAt: j.now(),
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, participant_id, root_dir, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, p.ParticipantID, p.RootDir, string(rec.Status), formatTime(rec.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return rec, nil
}

// Finish stores rec's final status, outputs, and error, stamping FinishedAt.
func (j *Journal) Finish(ctx context.Context, rec *types.RunRecord) error {
	rec.FinishedAt = j.now()
	result, err := j.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, subs_dir = ?, config_file = ?, cmd = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(rec.Status), rec.Outputs.SubsDir, rec.Outputs.ConfigFile, rec.Outputs.Cmd,
		rec.Error, formatTime(rec.FinishedAt), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", rec.ID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	return nil
}

const selectRuns = `SELECT id, participant_id, root_dir, status,
	COALESCE(subs_dir, ''), COALESCE(config_file, ''), COALESCE(cmd, ''), COALESCE(error, ''),
	started_at, COALESCE(finished_at, '')
	FROM runs`

// Get returns the run with the given id.
func (j *Journal) Get(ctx context.Context, id string) (types.RunRecord, error) {
	row := j.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// List returns the most recent runs, newest first. A limit of zero or less
// returns every run.
func (j *Journal) List(ctx context.Context, limit int) ([]types.RunRecord, error) {
	query := selectRuns + ` ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (types.RunRecord, error) {
	var (
		rec               types.RunRecord
		status            string
		started, finished string
	)
	err := s.Scan(
		&rec.ID, &rec.Params.ParticipantID, &rec.Params.RootDir, &status,
		&rec.Outputs.SubsDir, &rec.Outputs.ConfigFile, &rec.Outputs.Cmd, &rec.Error,
		&started, &finished,
	)
	if err != nil {
		return rec, err
	}
	rec.Status = types.RunStatus(status)
	if rec.StartedAt, err = parseTime(started); err != nil {
		return rec, err
	}
	if rec.FinishedAt, err = parseTime(finished); err != nil {
		return rec, err
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing journal timestamp %q: %w", s, err)
	}
	return t, nil
}

// WriteYAML encodes runs as a YAML sequence.
func WriteYAML(w io.Writer, runs []types.RunRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("encoding runs: %w", err)
	}
	return enc.Close()
}

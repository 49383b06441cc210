package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteRunStore implements RunStore on a SQLite database file.
type SQLiteRunStore struct {
	db *sql.DB
}

// NewSQLiteRunStore opens (creating if needed) the run database at path.
func NewSQLiteRunStore(path string) (*SQLiteRunStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at    TEXT NOT NULL,
			topology      TEXT NOT NULL,
			seed          INTEGER NOT NULL,
			beta          REAL NOT NULL,
			learning_rate REAL NOT NULL,
			epochs        INTEGER NOT NULL,
			final_loss    REAL NOT NULL,
			converged     INTEGER NOT NULL,
			outcome       TEXT NOT NULL,
			weights       TEXT NOT NULL,
			taps          TEXT NOT NULL
		)`)
	return err
}

// SaveRun persists a run and fills in its ID and CreatedAt.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, run *Run) error {
	weights, err := json.Marshal(run.Weights)
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}
	taps, err := json.Marshal(run.Taps)
	if err != nil {
		return fmt.Errorf("encode taps: %w", err)
	}

	run.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (created_at, topology, seed, beta, learning_rate,
			epochs, final_loss, converged, outcome, weights, taps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.CreatedAt.Format(time.RFC3339Nano), run.Topology, run.Seed,
		run.Beta, run.LearningRate, run.Epochs, run.FinalLoss,
		run.Converged, run.Outcome, string(weights), string(taps))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	run.ID = id
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, topology, seed, beta, learning_rate,
			epochs, final_loss, converged, outcome, weights, taps
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %d: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, topology, seed, beta, learning_rate,
			epochs, final_loss, converged, outcome, weights, taps
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var createdAt, weights, taps string
	if err := row.Scan(&run.ID, &createdAt, &run.Topology, &run.Seed,
		&run.Beta, &run.LearningRate, &run.Epochs, &run.FinalLoss,
		&run.Converged, &run.Outcome, &weights, &taps); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	run.CreatedAt = t

	if err := json.Unmarshal([]byte(weights), &run.Weights); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}
	if err := json.Unmarshal([]byte(taps), &run.Taps); err != nil {
		return nil, fmt.Errorf("decode taps: %w", err)
	}
	return &run, nil
}

// Package store keeps a SQLite ledger of finished calculations, so that
// runs, their status and their headline numbers can be queried long after
// the working directories are gone.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB is the run ledger. Use ":memory:" as path for an ephemeral one.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a ledger handle for the given path without opening it.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("store: opening database: %w", err)
	}

	// SQLite only supports one writer at a time.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("store: connecting: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("store: setting busy timeout: %w", err)
	}
	// WAL mode is not supported for in-memory databases.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return fmt.Errorf("store: enabling WAL mode: %w", err)
		}
	}

	db.db = conn
	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("store: creating schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			dir TEXT NOT NULL,
			status TEXT NOT NULL,
			iteration INTEGER NOT NULL DEFAULT 1,
			steps_per_second REAL,
			total_wall_seconds REAL,
			final_energy REAL,
			warnings INTEGER NOT NULL DEFAULT 0,
			errors INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	`
	_, err := db.db.Exec(schema)
	return err
}

// Run is one ledger row.
type Run struct {
	ID               string
	Dir              string
	Status           string
	Iteration        int
	StepsPerSecond   float64
	TotalWallSeconds float64
	FinalEnergy      float64
	Warnings         int
	Errors           int
	CreatedAt        time.Time
}

// Record inserts a run into the ledger.
func (db *DB) Record(ctx context.Context, run *Run) error {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO runs (id, dir, status, iteration, steps_per_second,
			total_wall_seconds, final_energy, warnings, errors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Dir, run.Status, run.Iteration, run.StepsPerSecond,
		run.TotalWallSeconds, run.FinalEnergy, run.Warnings, run.Errors,
		createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: recording run %s: %w", run.ID, err)
	}
	return nil
}

// Get returns one run by id.
func (db *DB) Get(ctx context.Context, id string) (*Run, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, dir, status, iteration, steps_per_second,
			total_wall_seconds, final_energy, warnings, errors, created_at
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// List returns the most recent runs, newest first.
func (db *DB) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, dir, status, iteration, steps_per_second,
			total_wall_seconds, final_energy, warnings, errors, created_at
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: listing runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var createdAt string
	err := row.Scan(&run.ID, &run.Dir, &run.Status, &run.Iteration,
		&run.StepsPerSecond, &run.TotalWallSeconds, &run.FinalEnergy,
		&run.Warnings, &run.Errors, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("store: scanning run: %w", err)
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &run, nil
}

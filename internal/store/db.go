package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"h1b-statistics/internal/model"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	config TEXT,
	input_path TEXT,
	status TEXT,
	total_rows INTEGER DEFAULT 0,
	filtered_rows INTEGER DEFAULT 0,
	error_message TEXT DEFAULT '',
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS ranked_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT REFERENCES runs(id),
	field TEXT,
	rank INTEGER,
	value TEXT,
	count INTEGER,
	ratio REAL
);
CREATE INDEX IF NOT EXISTS idx_ranked_entries_run ON ranked_entries(run_id, field, rank);
`

// Run is one row of run history
type Run struct {
	ID           string               `json:"id"`
	Config       model.Config         `json:"config"`
	InputPath    string               `json:"input_path"`
	Status       string               `json:"status"`
	TotalRows    int                  `json:"total_rows"`
	FilteredRows int                  `json:"filtered_rows"`
	Error        string               `json:"error,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Outputs      []model.RankedOutput `json:"outputs,omitempty"`
}

// Store keeps run history in sqlite
type Store struct {
	db *sql.DB
}

// Open connects to the sqlite database at dbPath and creates the tables.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	// sqlite serializes writers; one connection avoids "database is locked"
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun stores a new run in the running state
func (s *Store) StartRun(ctx context.Context, runID string, cfg model.Config) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, config, input_path, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, string(cfgJSON), cfg.InputPath, "running", now, now)
	return err
}

// CompleteRun stores the counts and ranked entries of a finished run
func (s *Store) CompleteRun(ctx context.Context, runID string, tally model.Tally, outputs []model.RankedOutput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ranked_entries (run_id, field, rank, value, count, ratio) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, out := range outputs {
		for i, e := range out.Entries {
			if _, err := stmt.ExecContext(ctx, runID, out.Field, i+1, e.Value, e.Count, e.Ratio); err != nil {
				return fmt.Errorf("insert entry %s #%d: %w", out.Field, i+1, err)
			}
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, total_rows = ?, filtered_rows = ?, updated_at = ? WHERE id = ?`,
		"completed", tally.Total, tally.Filtered, time.Now().UTC(), runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// FailRun marks a run failed and records its error
func (s *Store) FailRun(ctx context.Context, runID string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		"failed", msg, time.Now().UTC(), runID)
	return err
}

// ListRuns returns all runs, newest first, without their entries
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, config, input_path, status, total_rows, filtered_rows, error_message, created_at, updated_at
		 FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run with its ranked entries grouped per field
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, config, input_path, status, total_rows, filtered_rows, error_message, created_at, updated_at
		 FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT field, value, count, ratio FROM ranked_entries WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	byField := make(map[string][]model.RankedEntry)
	for rows.Next() {
		var field string
		var e model.RankedEntry
		if err := rows.Scan(&field, &e.Value, &e.Count, &e.Ratio); err != nil {
			return Run{}, err
		}
		byField[field] = append(byField[field], e)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}

	// Keep the configured output order
	for _, o := range run.Config.Outputs {
		entries, ok := byField[o.Field]
		if !ok {
			continue
		}
		run.Outputs = append(run.Outputs, model.RankedOutput{
			Field:       o.Field,
			ValueColumn: o.ValueColumn,
			Path:        o.Path,
			Entries:     entries,
		})
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var cfgJSON string
	if err := sc.Scan(&run.ID, &cfgJSON, &run.InputPath, &run.Status, &run.TotalRows,
		&run.FilteredRows, &run.Error, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(cfgJSON), &run.Config); err != nil {
		return Run{}, fmt.Errorf("decode config of run %s: %w", run.ID, err)
	}
	return run, nil
}

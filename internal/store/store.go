// Package store keeps the evaluation history of tracked runs in SQLite so
// runs can be compared after their logs are gone.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lamim/trainkit/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	metric_name TEXT NOT NULL,
	ckpt_path   TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	best_value  REAL,
	best_epoch  INTEGER
);

CREATE TABLE IF NOT EXISTS evaluations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	epoch      INTEGER NOT NULL,
	metric     REAL NOT NULL,
	improved   INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_evaluations_run ON evaluations(run_id, epoch);
`

// RunSummary is one row of the runs table
type RunSummary struct {
	RunID      string
	MetricName string
	CkptPath   string
	StartedAt  time.Time
	FinishedAt time.Time // Zero while the run is in progress
	BestValue  float64
	BestEpoch  int
	HasBest    bool
	Evaluated  int
}

// Store manages run history in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun registers a run. Starting an existing run id again is an error.
func (s *Store) StartRun(runID, metricName, ckptPath string) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, metric_name, ckpt_path, started_at) VALUES (?, ?, ?, ?)`,
		runID, metricName, ckptPath, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}
	return nil
}

// RecordEvaluation appends an evaluation and moves the run's best when it improved
func (s *Store) RecordEvaluation(runID string, e models.EvaluationEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	created := e.Timestamp
	if created.IsZero() {
		created = time.Now()
	}

	_, err = tx.Exec(
		`INSERT INTO evaluations (run_id, epoch, metric, improved, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, e.Epoch, e.Metric, e.Improved, created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}

	if e.Improved {
		res, err := tx.Exec(
			`UPDATE runs SET best_value = ?, best_epoch = ? WHERE run_id = ?`,
			e.BestValue, e.BestEpoch, runID,
		)
		if err != nil {
			return fmt.Errorf("update best: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
	}

	return tx.Commit()
}

// FinishRun stamps the run as finished
func (s *Store) FinishRun(runID string) error {
	res, err := s.db.Exec(
		`UPDATE runs SET finished_at = ? WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// ListRuns returns every run, most recent first.
func (s *Store) ListRuns() ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT r.run_id, r.metric_name, r.ckpt_path, r.started_at, r.finished_at,
		        r.best_value, r.best_epoch, COUNT(e.id)
		 FROM runs r LEFT JOIN evaluations e ON e.run_id = r.run_id
		 GROUP BY r.run_id
		 ORDER BY r.started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started string
		var finished sql.NullString
		var bestValue sql.NullFloat64
		var bestEpoch sql.NullInt64
		if err := rows.Scan(&r.RunID, &r.MetricName, &r.CkptPath, &started, &finished,
			&bestValue, &bestEpoch, &r.Evaluated); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
		}
		if bestValue.Valid && bestEpoch.Valid {
			r.BestValue = bestValue.Float64
			r.BestEpoch = int(bestEpoch.Int64)
			r.HasBest = true
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Evaluations returns the evaluation history of a run in epoch order
func (s *Store) Evaluations(runID string) ([]models.EvaluationEntry, error) {
	rows, err := s.db.Query(
		`SELECT epoch, metric, improved, created_at FROM evaluations
		 WHERE run_id = ? ORDER BY epoch, id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var entries []models.EvaluationEntry
	var best models.EvaluationEntry
	for rows.Next() {
		var e models.EvaluationEntry
		var created string
		if err := rows.Scan(&e.Epoch, &e.Metric, &e.Improved, &created); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, created)
		if e.Improved {
			best = e
		}
		e.BestValue = best.Metric
		e.BestEpoch = best.Epoch
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Sink binds the store to one run so it can receive evaluation entries
type Sink struct {
	store *Store
	runID string
}

// Sink returns a writer for the evaluations of runID
func (s *Store) Sink(runID string) *Sink {
	return &Sink{store: s, runID: runID}
}

// WriteEntry records e for the bound run
func (k *Sink) WriteEntry(e models.EvaluationEntry) error {
	return k.store.RecordEvaluation(k.runID, e)
}

package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/haul/internal/engine"
)

const runColumns = `id, manifest, workers, error_policy, outcome,
	total, completed, errored, pending, started_at, finished_at`

// runRepository implements RunRepository using SQLite.
type runRepository struct {
	db *sql.DB
}

func newRunRepository(db *sql.DB) *runRepository {
	return &runRepository{db: db}
}

var _ RunRepository = (*runRepository)(nil)

func scanRun(scanner interface{ Scan(...any) error }) (Run, error) {
	var (
		run        Run
		startedAt  int64
		finishedAt sql.NullInt64
	)
	err := scanner.Scan(
		&run.ID, &run.Manifest, &run.Workers, &run.ErrorPolicy, &run.Outcome,
		&run.Stats.Total, &run.Stats.Completed, &run.Stats.Errored, &run.Stats.Pending,
		&startedAt, &finishedAt,
	)
	if err != nil {
		return run, err
	}
	run.StartedAt = time.UnixMilli(startedAt)
	if finishedAt.Valid {
		t := time.UnixMilli(finishedAt.Int64)
		run.FinishedAt = &t
	}
	return run, nil
}

// Create inserts a new run. The run's Outcome defaults to "running".
func (r *runRepository) Create(run *Run) error {
	if run.Outcome == "" {
		run.Outcome = engine.OutcomeRunning.String()
	}
	_, err := r.db.Exec(
		`INSERT INTO runs (id, manifest, workers, error_policy, outcome, total, pending, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Manifest, run.Workers, run.ErrorPolicy, run.Outcome,
		run.Stats.Total, run.Stats.Pending, run.StartedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Finish records a run's outcome and final counters.
func (r *runRepository) Finish(id, outcome string, stats engine.Stats, at time.Time) error {
	result, err := r.db.Exec(
		`UPDATE runs SET outcome = ?, total = ?, completed = ?, errored = ?, pending = ?, finished_at = ?
		WHERE id = ?`,
		outcome, stats.Total, stats.Completed, stats.Errored, stats.Pending, at.UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// AddResult appends a task result to its run.
func (r *runRepository) AddResult(result TaskResult) error {
	_, err := r.db.Exec(
		`INSERT INTO task_results (run_id, name, status, message, elapsed_ms, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		result.RunID, result.Name, result.Status, result.Message,
		result.Elapsed.Milliseconds(), result.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task result: %w", err)
	}
	return nil
}

// Get returns a run by ID.
func (r *runRepository) Get(id string) (*Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// Recent returns up to limit runs, newest first.
func (r *runRepository) Recent(limit int) ([]Run, error) {
	rows, err := r.db.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Results returns a run's task results in the order they finished.
func (r *runRepository) Results(runID string) ([]TaskResult, error) {
	rows, err := r.db.Query(
		`SELECT run_id, name, status, message, elapsed_ms, finished_at
		FROM task_results WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query task results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []TaskResult
	for rows.Next() {
		var (
			res        TaskResult
			elapsedMS  int64
			finishedAt int64
		)
		if err := rows.Scan(&res.RunID, &res.Name, &res.Status, &res.Message, &elapsedMS, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task result: %w", err)
		}
		res.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		res.FinishedAt = time.UnixMilli(finishedAt)
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task results: %w", err)
	}
	return results, nil
}

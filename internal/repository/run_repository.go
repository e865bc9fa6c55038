package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lewtec/imgvariant/internal/domain"
)

// RunRepository implements domain.RunRepository on sqlite
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start records a new run
func (r *RunRepository) Start(ctx context.Context, id, configPath string, startedAt time.Time) (*domain.Run, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, config_path, started_at) VALUES (?, ?, ?)`,
		id, configPath, startedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("while recording run %s: %w", id, err)
	}
	return &domain.Run{ID: id, ConfigPath: configPath, StartedAt: time.UnixMilli(startedAt.UnixMilli())}, nil
}

// Finish stores the counts and report lines of a run in one transaction
func (r *RunRepository) Finish(ctx context.Context, id string, finishedAt time.Time, stats domain.RunStats) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("while starting ledger transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, succeeded = ?, skipped = ?, failed = ? WHERE id = ?`,
		finishedAt.UnixMilli(), len(stats.Succeeded), len(stats.Skipped), len(stats.Failed), id)
	if err != nil {
		return fmt.Errorf("while finishing run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_entries (run_id, outcome, message) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("while preparing run entries: %w", err)
	}
	defer stmt.Close()

	groups := []struct {
		outcome domain.Outcome
		lines   []string
	}{
		{domain.OutcomeSucceeded, stats.Succeeded},
		{domain.OutcomeSkipped, stats.Skipped},
		{domain.OutcomeFailed, stats.Failed},
	}
	for _, g := range groups {
		for _, line := range g.lines {
			if _, err := stmt.ExecContext(ctx, id, string(g.outcome), line); err != nil {
				return fmt.Errorf("while recording entry of run %s: %w", id, err)
			}
		}
	}
	return tx.Commit()
}

const runColumns = `id, config_path, started_at, finished_at, succeeded, skipped, failed`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	var started int64
	var finished sql.NullInt64
	if err := row.Scan(&run.ID, &run.ConfigPath, &started, &finished, &run.Succeeded, &run.Skipped, &run.Failed); err != nil {
		return nil, err
	}
	run.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		run.FinishedAt = time.UnixMilli(finished.Int64)
	}
	return &run, nil
}

// Get retrieves a run by id, returning nil when it does not exist
func (r *RunRepository) Get(ctx context.Context, id string) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List retrieves the most recent runs first
func (r *RunRepository) List(ctx context.Context, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	return result, rows.Err()
}

// Entries retrieves the report lines of a run. An empty outcome returns all of them.
func (r *RunRepository) Entries(ctx context.Context, id string, outcome domain.Outcome) ([]*domain.RunEntry, error) {
	query := `SELECT id, run_id, outcome, message FROM run_entries WHERE run_id = ?`
	args := []any{id}
	if outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, string(outcome))
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.RunEntry
	for rows.Next() {
		var e domain.RunEntry
		var o string
		if err := rows.Scan(&e.ID, &e.RunID, &o, &e.Message); err != nil {
			return nil, err
		}
		e.Outcome = domain.Outcome(o)
		result = append(result, &e)
	}
	return result, rows.Err()
}

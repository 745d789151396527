package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vportnov/pod-extractor/internal/core/domain"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts the run and lets the database assign the attempt number, so
// concurrent attempts for one document still number monotonically.
func (r *RunRepository) Create(ctx context.Context, run *domain.ExtractionRun) error {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO extraction_runs (id, document_id, attempt, status, pages_total, pages_done, error_message, heartbeat_at, started_at)
VALUES ($1, $2, (SELECT COALESCE(MAX(attempt), 0) + 1 FROM extraction_runs WHERE document_id = $2), $3, $4, $5, $6, $7, $8)
RETURNING attempt
`,
		run.ID, run.DocumentID, string(run.Status), run.PagesTotal, run.PagesDone,
		run.Error, run.HeartbeatAt, run.StartedAt,
	)
	if err := row.Scan(&run.Attempt); err != nil {
		return fmt.Errorf("insert extraction run: %w", err)
	}
	return nil
}

func (r *RunRepository) SetPagesTotal(ctx context.Context, runID string, pagesTotal int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE extraction_runs
SET pages_total = $2, heartbeat_at = $3
WHERE id = $1
`, runID, pagesTotal, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set pages total: %w", err)
	}
	return requireRunAffected(result, "set pages total", runID)
}

func (r *RunRepository) Heartbeat(ctx context.Context, runID string, pagesDone int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE extraction_runs
SET pages_done = $2, heartbeat_at = $3
WHERE id = $1
`, runID, pagesDone, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("heartbeat run: %w", err)
	}
	return requireRunAffected(result, "heartbeat run", runID)
}

func (r *RunRepository) Finish(ctx context.Context, runID string, status domain.RunStatus, errMessage string) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE extraction_runs
SET status = $2, error_message = $3, heartbeat_at = $4, finished_at = $4
WHERE id = $1
`, runID, string(status), errMessage, now)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return requireRunAffected(result, "finish run", runID)
}

func (r *RunRepository) ListStalled(ctx context.Context, cutoff time.Time) ([]domain.ExtractionRun, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, attempt, status, pages_total, pages_done, error_message, heartbeat_at, started_at, finished_at
FROM extraction_runs
WHERE status = $1 AND heartbeat_at < $2
ORDER BY heartbeat_at ASC
`, string(domain.RunStatusRunning), cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stalled runs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ExtractionRun, 0)
	for rows.Next() {
		var run domain.ExtractionRun
		var status string
		var finished sql.NullTime
		err := rows.Scan(
			&run.ID, &run.DocumentID, &run.Attempt, &status, &run.PagesTotal, &run.PagesDone,
			&run.Error, &run.HeartbeatAt, &run.StartedAt, &finished,
		)
		if err != nil {
			return nil, fmt.Errorf("scan extraction run: %w", err)
		}
		run.Status = domain.RunStatus(status)
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stalled runs: %w", err)
	}
	return out, nil
}

// MarkStalled is idempotent: a run another sweep already moved out of RUNNING
// matches nothing and that is fine.
func (r *RunRepository) MarkStalled(ctx context.Context, runID string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
UPDATE extraction_runs
SET status = $2, finished_at = $3
WHERE id = $1 AND status = $4
`, runID, string(domain.RunStatusStalled), now, string(domain.RunStatusRunning))
	if err != nil {
		return fmt.Errorf("mark run stalled: %w", err)
	}
	return nil
}

func requireRunAffected(result sql.Result, operation, runID string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: run %s has no row", operation, runID)
	}
	return nil
}

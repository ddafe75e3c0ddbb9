package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JobStateRepo persists the batch job's resumption cursor between worker
// invocations. Cursors are opaque: stored and returned verbatim.
type JobStateRepo struct {
	pool *pgxpool.Pool
}

func (r *JobStateRepo) LoadCursor(ctx context.Context, job string) (string, error) {
	var cursor string
	err := r.pool.QueryRow(ctx,
		`SELECT cursor FROM job_state WHERE name = $1`, job).Scan(&cursor)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return cursor, nil
}

// SaveCursor upserts the cursor row. runID is the caller's pass
// identifier, kept so the stored position can be traced back to the log
// lines of the pass that wrote it.
func (r *JobStateRepo) SaveCursor(ctx context.Context, job, cursor, runID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO job_state (name, cursor, run_id, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (name)
		 DO UPDATE SET cursor = EXCLUDED.cursor, run_id = EXCLUDED.run_id, updated_at = now()`,
		job, cursor, runID)
	return err
}

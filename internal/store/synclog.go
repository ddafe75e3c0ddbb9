package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oktabridge/oktabridge/internal/reconcile"
)

// SyncLogRepo appends reconciliation failure records. Rows are never
// updated; retention is the only delete path.
type SyncLogRepo struct {
	pool *pgxpool.Pool
}

func (r *SyncLogRepo) Add(ctx context.Context, entry *reconcile.SyncLogEntry) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO sync_logs (code, message_id, provider, identifier)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		int(entry.Code), entry.MessageID, entry.Provider, entry.Identifier,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// FindByMessageID resolves a user-quoted support reference to its log
// entries, newest first.
func (r *SyncLogRepo) FindByMessageID(ctx context.Context, messageID int) ([]*reconcile.SyncLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, message_id, provider, identifier, created_at
		 FROM sync_logs WHERE message_id = $1 ORDER BY created_at DESC`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*reconcile.SyncLogEntry
	for rows.Next() {
		var entry reconcile.SyncLogEntry
		var code int
		if err := rows.Scan(&entry.ID, &code, &entry.MessageID, &entry.Provider, &entry.Identifier, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Code = reconcile.FailureCode(code)
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// PurgeBefore removes entries older than the cutoff and reports how many
// were deleted.
func (r *SyncLogRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM sync_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

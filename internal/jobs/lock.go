package jobs

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// lockKey derives a stable advisory-lock key from a job scope. Collisions
// across unrelated names are tolerable: a false overlap only serializes
// two jobs that could have run concurrently.
func lockKey(kind, name string) int64 {
	kind = strings.ToLower(strings.TrimSpace(kind))
	name = strings.ToLower(strings.TrimSpace(name))

	h := fnv.New64a()
	_, _ = h.Write([]byte(kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

type lockRunner struct {
	pool    *pgxpool.Pool
	inner   Runner
	key     int64
	tryLock bool
}

// NewBlockingLockRunner wraps inner so a pass waits for the advisory lock
// before running.
func NewBlockingLockRunner(pool *pgxpool.Pool, name string, inner Runner) Runner {
	return &lockRunner{pool: pool, inner: inner, key: lockKey("job", name)}
}

// NewTryLockRunner wraps inner so a pass returns ErrAlreadyRunning instead
// of waiting when another holder has the advisory lock.
func NewTryLockRunner(pool *pgxpool.Pool, name string, inner Runner) Runner {
	return &lockRunner{pool: pool, inner: inner, key: lockKey("job", name), tryLock: true}
}

func (r *lockRunner) RunOnce(ctx context.Context) error {
	if r == nil || r.pool == nil || r.inner == nil {
		return errors.New("lock runner is not configured")
	}

	// The lock is session-scoped: hold one dedicated connection for the
	// duration of the pass and release the lock on the same connection.
	lockConn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	locked := false
	defer func() {
		if locked {
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, _ = lockConn.Exec(unlockCtx, `SELECT pg_advisory_unlock($1)`, r.key)
		}
		lockConn.Release()
	}()

	if r.tryLock {
		var ok bool
		if err := lockConn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, r.key).Scan(&ok); err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyRunning
		}
		locked = true
		return r.inner.RunOnce(ctx)
	}

	if _, err := lockConn.Exec(ctx, `SELECT pg_advisory_lock($1)`, r.key); err != nil {
		return err
	}
	locked = true
	return r.inner.RunOnce(ctx)
}

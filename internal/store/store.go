// Package store implements the reconciliation repositories against
// Postgres. The store takes no locks of its own: the unique constraints
// declared in db/migrations are the sole concurrency guard, and every
// unique violation is surfaced as reconcile.ErrConflict so callers can
// classify racing duplicate creates as collision failures.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oktabridge/oktabridge/internal/reconcile"
)

const uniqueViolationCode = "23505"

// querier is the slice of the pgx pool the group repository touches,
// narrow enough for tests to stand in for a live database.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store bundles the repository implementations over one pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, errors.New("store pool is nil")
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Identities() *IdentityRepo { return &IdentityRepo{pool: s.pool} }
func (s *Store) Passports() *PassportRepo  { return &PassportRepo{pool: s.pool} }
func (s *Store) Groups() *GroupRepo        { return &GroupRepo{db: s.pool} }
func (s *Store) SyncLogs() *SyncLogRepo    { return &SyncLogRepo{pool: s.pool} }
func (s *Store) JobState() *JobStateRepo   { return &JobStateRepo{pool: s.pool} }
func (s *Store) Policy() *GrantPolicy      { return &GrantPolicy{pool: s.pool} }

// mapWriteErr converts constraint violations into the sentinel errors the
// reconciliation engine understands.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %s", reconcile.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func mapLookupErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return reconcile.ErrNotFound
	}
	return err
}

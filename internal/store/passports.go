package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oktabridge/oktabridge/internal/reconcile"
)

// PassportRepo persists passport records. Both composite uniqueness
// invariants, (identifier, provider) and (identity, provider), are
// enforced by the schema; this layer only translates the violations.
type PassportRepo struct {
	pool *pgxpool.Pool
}

const passportColumns = `id, identifier, provider, identity_id, created_by, created_at, updated_at`

func scanPassport(row pgx.Row) (*reconcile.Passport, error) {
	var out reconcile.Passport
	if err := row.Scan(&out.ID, &out.Identifier, &out.Provider, &out.IdentityID, &out.CreatedBy, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PassportRepo) FindBySubjectAndProvider(ctx context.Context, subject, provider string) (*reconcile.Passport, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+passportColumns+` FROM passports WHERE identifier = $1 AND provider = $2`,
		subject, provider)
	passport, err := scanPassport(row)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return passport, nil
}

func (r *PassportRepo) FindByIdentityAndProvider(ctx context.Context, id reconcile.IdentityID, provider string) (*reconcile.Passport, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+passportColumns+` FROM passports WHERE identity_id = $1 AND provider = $2`,
		id, provider)
	passport, err := scanPassport(row)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return passport, nil
}

func (r *PassportRepo) Create(ctx context.Context, passport *reconcile.Passport) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO passports (identifier, provider, identity_id, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		passport.Identifier, passport.Provider, passport.IdentityID, passport.CreatedBy,
	).Scan(&passport.ID, &passport.CreatedAt, &passport.UpdatedAt)
	return mapWriteErr(err)
}

// Update repoints the owning identity. The (identifier, provider) key is
// immutable by design and deliberately absent from the statement.
func (r *PassportRepo) Update(ctx context.Context, passport *reconcile.Passport) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE passports SET identity_id = $2, updated_at = now() WHERE id = $1`,
		passport.ID, passport.IdentityID)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return reconcile.ErrNotFound
	}
	return nil
}

func (r *PassportRepo) DeleteForIdentity(ctx context.Context, id reconcile.IdentityID, provider string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM passports WHERE identity_id = $1 AND provider = $2`, id, provider)
	return err
}

// DeleteEditedBefore removes passports for the provider whose last edit
// predates the cutoff. Used by the retention job.
func (r *PassportRepo) DeleteEditedBefore(ctx context.Context, provider string, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM passports WHERE provider = $1 AND updated_at < $2`, provider, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

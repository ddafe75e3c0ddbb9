package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oktabridge/oktabridge/internal/reconcile"
)

// IdentityRepo persists member records.
type IdentityRepo struct {
	pool *pgxpool.Pool
}

const identityColumns = `id, email, first_name, surname, okta_login, profile, last_sync_at, unlinked_at`

func scanIdentity(row pgx.Row) (*reconcile.Identity, error) {
	var out reconcile.Identity
	var oktaLogin *string
	if err := row.Scan(&out.ID, &out.Email, &out.FirstName, &out.Surname, &oktaLogin, &out.Profile, &out.LastSyncAt, &out.UnlinkedAt); err != nil {
		return nil, err
	}
	if oktaLogin != nil {
		out.OktaLogin = *oktaLogin
	}
	return &out, nil
}

// nullableLogin stores an empty external login as NULL so the partial
// unique index only constrains linked identities.
func nullableLogin(login string) *string {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil
	}
	return &login
}

func (r *IdentityRepo) FindByOktaLogin(ctx context.Context, login string) (*reconcile.Identity, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE okta_login = $1`, login)
	identity, err := scanIdentity(row)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return identity, nil
}

func (r *IdentityRepo) FindByEmail(ctx context.Context, email string) (*reconcile.Identity, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE lower(email) = lower($1) ORDER BY id LIMIT 1`, email)
	identity, err := scanIdentity(row)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return identity, nil
}

func (r *IdentityRepo) FindStale(ctx context.Context, before time.Time, limit int) ([]*reconcile.Identity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+identityColumns+` FROM identities
		 WHERE last_sync_at IS NOT NULL AND last_sync_at < $1
		 ORDER BY last_sync_at ASC
		 LIMIT $2`, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*reconcile.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, identity)
	}
	return out, rows.Err()
}

func (r *IdentityRepo) Create(ctx context.Context, identity *reconcile.Identity) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO identities (email, first_name, surname, okta_login, profile, last_sync_at, unlinked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		identity.Email, identity.FirstName, identity.Surname,
		nullableLogin(identity.OktaLogin), identity.Profile,
		identity.LastSyncAt, identity.UnlinkedAt,
	).Scan(&identity.ID)
	return mapWriteErr(err)
}

func (r *IdentityRepo) Update(ctx context.Context, identity *reconcile.Identity) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE identities
		 SET email = $2, first_name = $3, surname = $4, okta_login = $5,
		     profile = $6, last_sync_at = $7, unlinked_at = $8, updated_at = now()
		 WHERE id = $1`,
		identity.ID, identity.Email, identity.FirstName, identity.Surname,
		nullableLogin(identity.OktaLogin), identity.Profile,
		identity.LastSyncAt, identity.UnlinkedAt,
	)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return reconcile.ErrNotFound
	}
	return nil
}

func (r *IdentityRepo) Delete(ctx context.Context, id reconcile.IdentityID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	return err
}

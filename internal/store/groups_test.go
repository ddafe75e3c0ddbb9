package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oktabridge/oktabridge/internal/reconcile"
)

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error { return r.scan(dest...) }

// stubQuerier answers Exec with a canned command tag and QueryRow with a
// canned is_okta_group flag.
type stubQuerier struct {
	execTag   string
	oktaGroup bool
	lookupErr error

	execs   int
	lookups int
}

func (q *stubQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	q.execs++
	return pgconn.NewCommandTag(q.execTag), nil
}

func (q *stubQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	q.lookups++
	return stubRow{scan: func(dest ...any) error {
		if q.lookupErr != nil {
			return q.lookupErr
		}
		*(dest[0].(*bool)) = q.oktaGroup
		return nil
	}}
}

func (q *stubQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func TestGroupRepo_AddPermissionRefusesOktaGroup(t *testing.T) {
	t.Parallel()

	// The guarded insert matched no row, and the group turns out to be
	// origin-flagged: the write must be reported as refused.
	q := &stubQuerier{execTag: "INSERT 0 0", oktaGroup: true}
	repo := &GroupRepo{db: q}

	err := repo.AddPermission(context.Background(), 7, "CMS_ACCESS")
	if !errors.Is(err, ErrOktaGroupPermission) {
		t.Fatalf("AddPermission() error = %v, want ErrOktaGroupPermission", err)
	}
	if q.execs != 1 {
		t.Fatalf("execs = %d, want only the guarded insert", q.execs)
	}
}

func TestGroupRepo_AddRoleRefusesOktaGroup(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{execTag: "INSERT 0 0", oktaGroup: true}
	repo := &GroupRepo{db: q}

	if err := repo.AddRole(context.Background(), 7, "editor"); !errors.Is(err, ErrOktaGroupRole) {
		t.Fatalf("AddRole() error = %v, want ErrOktaGroupRole", err)
	}
}

func TestGroupRepo_AddPermissionMissingGroup(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{execTag: "INSERT 0 0", lookupErr: pgx.ErrNoRows}
	repo := &GroupRepo{db: q}

	err := repo.AddPermission(context.Background(), 404, "CMS_ACCESS")
	if !errors.Is(err, reconcile.ErrNotFound) {
		t.Fatalf("AddPermission() error = %v, want ErrNotFound for a missing group", err)
	}
}

func TestGroupRepo_AddPermissionRegularGroup(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{execTag: "INSERT 0 1"}
	repo := &GroupRepo{db: q}

	if err := repo.AddPermission(context.Background(), 7, "CMS_ACCESS"); err != nil {
		t.Fatalf("AddPermission() error = %v", err)
	}
	if q.lookups != 0 {
		t.Fatalf("lookups = %d, want none when the insert landed", q.lookups)
	}
}

func TestGroupRepo_AddPermissionDuplicateIsIdempotent(t *testing.T) {
	t.Parallel()

	// ON CONFLICT DO NOTHING on a regular group: zero rows affected but
	// the group is not origin-flagged, so the call succeeds.
	q := &stubQuerier{execTag: "INSERT 0 0", oktaGroup: false}
	repo := &GroupRepo{db: q}

	if err := repo.AddPermission(context.Background(), 7, "CMS_ACCESS"); err != nil {
		t.Fatalf("AddPermission() error = %v", err)
	}
}

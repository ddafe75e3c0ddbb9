package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/oktabridge/oktabridge/internal/reconcile"
)

// ErrOktaGroupPermission rejects any write that would attach a permission
// grant to an origin-flagged group. Synced groups exist solely to group
// users and target content; they may never escalate access.
var ErrOktaGroupPermission = errors.New("an Okta group may not be assigned permissions")

// ErrOktaGroupRole is the role-assignment counterpart of
// ErrOktaGroupPermission.
var ErrOktaGroupRole = errors.New("an Okta group may not be assigned roles")

// GroupRepo persists group records and origin-flagged memberships.
type GroupRepo struct {
	db querier
}

const groupColumns = `id, code, title, description, parent_id, is_okta_group, locked`

func scanGroup(row pgx.Row) (*reconcile.Group, error) {
	var out reconcile.Group
	if err := row.Scan(&out.ID, &out.Code, &out.Title, &out.Description, &out.ParentID, &out.IsOktaGroup, &out.Locked); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnsureRoot upserts the single parentless origin-flagged group by its
// configured code. Title, description and locked flag follow the
// configuration on every call, so retitling the root updates the existing
// row rather than creating a second one.
func (r *GroupRepo) EnsureRoot(ctx context.Context, cfg reconcile.RootGroupConfig) (*reconcile.Group, error) {
	title := cfg.Title
	if title == "" {
		title = "Okta"
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO groups (code, title, description, parent_id, is_okta_group, locked)
		 VALUES ($1, $2, $3, 0, TRUE, $4)
		 ON CONFLICT (code) WHERE parent_id = 0 AND is_okta_group
		 DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, locked = EXCLUDED.locked
		 RETURNING `+groupColumns,
		cfg.Code, title, cfg.Description, cfg.Locked)
	return scanGroup(row)
}

func (r *GroupRepo) FindOktaGroupByTitle(ctx context.Context, title string) (*reconcile.Group, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE is_okta_group AND title = $1`, title)
	group, err := scanGroup(row)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return group, nil
}

func (r *GroupRepo) CreateUnderRoot(ctx context.Context, root reconcile.GroupID, title, description string) (*reconcile.Group, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO groups (code, title, description, parent_id, is_okta_group, locked)
		 VALUES ('', $1, $2, $3, TRUE, FALSE)
		 RETURNING `+groupColumns,
		title, description, root)
	group, err := scanGroup(row)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return group, nil
}

func (r *GroupRepo) AddMember(ctx context.Context, group reconcile.GroupID, identity reconcile.IdentityID) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO group_members (group_id, identity_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, group, identity)
	return err
}

func (r *GroupRepo) RemoveMember(ctx context.Context, group reconcile.GroupID, identity reconcile.IdentityID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND identity_id = $2`, group, identity)
	return err
}

func (r *GroupRepo) ListOktaGroupsForIdentity(ctx context.Context, identity reconcile.IdentityID) ([]*reconcile.Group, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+groupColumns+` FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE g.is_okta_group AND gm.identity_id = $1
		 ORDER BY g.id`, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*reconcile.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, group)
	}
	return out, rows.Err()
}

// AddPermission attaches a permission grant to a group, refusing
// origin-flagged groups. The guarded insert leaves the store unchanged on
// rejection.
func (r *GroupRepo) AddPermission(ctx context.Context, group reconcile.GroupID, code string) error {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO group_permissions (group_id, code)
		 SELECT id, $2 FROM groups WHERE id = $1 AND NOT is_okta_group
		 ON CONFLICT DO NOTHING`, group, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		okta, err := r.isOktaGroup(ctx, group)
		if err != nil {
			return err
		}
		if okta {
			return ErrOktaGroupPermission
		}
	}
	return nil
}

// AddRole attaches a role to a group, refusing origin-flagged groups.
func (r *GroupRepo) AddRole(ctx context.Context, group reconcile.GroupID, role string) error {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO group_roles (group_id, role)
		 SELECT id, $2 FROM groups WHERE id = $1 AND NOT is_okta_group
		 ON CONFLICT DO NOTHING`, group, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		okta, err := r.isOktaGroup(ctx, group)
		if err != nil {
			return err
		}
		if okta {
			return ErrOktaGroupRole
		}
	}
	return nil
}

func (r *GroupRepo) isOktaGroup(ctx context.Context, group reconcile.GroupID) (bool, error) {
	var okta bool
	err := r.db.QueryRow(ctx,
		`SELECT is_okta_group FROM groups WHERE id = $1`, group).Scan(&okta)
	if err != nil {
		return false, mapLookupErr(err)
	}
	return okta, nil
}

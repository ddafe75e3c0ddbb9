package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oktabridge/oktabridge/internal/reconcile"
)

// GrantPolicy answers capability checks from the access_grants table,
// covering grants held directly and grants inherited through non-synced
// group permissions. Origin-flagged groups can never contribute here:
// the schema refuses permissions on them.
type GrantPolicy struct {
	pool *pgxpool.Pool
}

func (p *GrantPolicy) HasCapability(ctx context.Context, identity reconcile.IdentityID, capability string) (bool, error) {
	var ok bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM access_grants WHERE identity_id = $1 AND capability = $2
		   UNION ALL
		   SELECT 1 FROM group_permissions gp
		     JOIN group_members gm ON gm.group_id = gp.group_id
		   WHERE gm.identity_id = $1 AND gp.code = $2
		 )`, identity, capability).Scan(&ok)
	return ok, err
}

func (p *GrantPolicy) HasAnyGrant(ctx context.Context, identity reconcile.IdentityID) (bool, error) {
	var ok bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM access_grants WHERE identity_id = $1
		   UNION ALL
		   SELECT 1 FROM group_permissions gp
		     JOIN group_members gm ON gm.group_id = gp.group_id
		   WHERE gm.identity_id = $1
		 )`, identity).Scan(&ok)
	return ok, err
}

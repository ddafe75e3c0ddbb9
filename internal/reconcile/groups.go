package reconcile

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// syncedGroupDescription is the fixed description given to groups created
// during reconciliation.
const syncedGroupDescription = "Group synchronised from Okta"

// GroupReconciler makes an identity's origin-flagged group memberships
// match the upstream claim set. The same component serves the login path
// and the batch path.
type GroupReconciler struct {
	Groups GroupRepository
	Root   RootGroupConfig
}

// Reconcile links the identity to a local origin-flagged group for each
// upstream group name, creating missing groups under the root, then
// removes origin-flagged memberships no longer present upstream. Group
// records themselves are retained for audit purposes. An empty name set is
// a full revocation: every prior origin-flagged membership is removed.
func (r *GroupReconciler) Reconcile(ctx context.Context, names []string, identity IdentityID) ([]GroupID, error) {
	root, err := r.Groups.EnsureRoot(ctx, r.Root)
	if err != nil {
		return nil, err
	}

	linked := make(map[GroupID]struct{}, len(names))
	out := make([]GroupID, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		group, err := r.Groups.FindOktaGroupByTitle(ctx, name)
		if errors.Is(err, ErrNotFound) {
			group, err = r.Groups.CreateUnderRoot(ctx, root.ID, name, syncedGroupDescription)
		}
		if err != nil {
			return nil, err
		}
		if _, seen := linked[group.ID]; seen {
			continue
		}
		if err := r.Groups.AddMember(ctx, group.ID, identity); err != nil {
			return nil, err
		}
		linked[group.ID] = struct{}{}
		out = append(out, group.ID)
	}

	prior, err := r.Groups.ListOktaGroupsForIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	for _, group := range prior {
		if _, keep := linked[group.ID]; keep {
			continue
		}
		if err := r.Groups.RemoveMember(ctx, group.ID, identity); err != nil {
			return nil, err
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

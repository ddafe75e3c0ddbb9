package reconcile

import (
	"context"
	"slices"
	"testing"
)

var testRoot = RootGroupConfig{Code: "okta", Title: "Okta", Description: "Synced groups", Locked: true}

func TestReconcile_CreatesGroupsAndMemberships(t *testing.T) {
	t.Parallel()

	groups := newMemGroups()
	r := &GroupReconciler{Groups: groups, Root: testRoot}

	linked, err := r.Reconcile(context.Background(), []string{"Everyone", "Engineering"}, 1)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(linked) != 2 {
		t.Fatalf("linked = %v, want 2 groups", linked)
	}

	memberships, err := groups.ListOktaGroupsForIdentity(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListOktaGroupsForIdentity() error = %v", err)
	}
	var titles []string
	for _, g := range memberships {
		titles = append(titles, g.Title)
		if g.ParentID == 0 {
			t.Fatalf("synced group %q has no parent", g.Title)
		}
		if g.Description != "Group synchronised from Okta" {
			t.Fatalf("description = %q", g.Description)
		}
	}
	slices.Sort(titles)
	if !slices.Equal(titles, []string{"Engineering", "Everyone"}) {
		t.Fatalf("titles = %v", titles)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Parallel()

	groups := newMemGroups()
	r := &GroupReconciler{Groups: groups, Root: testRoot}

	first, err := r.Reconcile(context.Background(), []string{"Everyone"}, 1)
	if err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}
	second, err := r.Reconcile(context.Background(), []string{"Everyone"}, 1)
	if err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
	if !slices.Equal(first, second) {
		t.Fatalf("second run linked %v, want %v", second, first)
	}
	if got := len(groups.rows); got != 2 { // root + Everyone
		t.Fatalf("group count = %d, want 2", got)
	}
}

func TestReconcile_RemovesDroppedMemberships(t *testing.T) {
	t.Parallel()

	groups := newMemGroups()
	r := &GroupReconciler{Groups: groups, Root: testRoot}

	if _, err := r.Reconcile(context.Background(), []string{"Everyone", "Engineering"}, 1); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	linked, err := r.Reconcile(context.Background(), []string{"Engineering"}, 1)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(linked) != 1 {
		t.Fatalf("linked = %v, want 1", linked)
	}

	memberships, _ := groups.ListOktaGroupsForIdentity(context.Background(), 1)
	if len(memberships) != 1 || memberships[0].Title != "Engineering" {
		t.Fatalf("memberships = %+v, want Engineering only", memberships)
	}
	// The dropped group record itself is retained for audit.
	if _, err := groups.FindOktaGroupByTitle(context.Background(), "Everyone"); err != nil {
		t.Fatalf("dropped group record was deleted: %v", err)
	}
}

func TestReconcile_EmptySetIsFullRevocation(t *testing.T) {
	t.Parallel()

	groups := newMemGroups()
	r := &GroupReconciler{Groups: groups, Root: testRoot}

	if _, err := r.Reconcile(context.Background(), []string{"Everyone", "Engineering"}, 1); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	linked, err := r.Reconcile(context.Background(), nil, 1)
	if err != nil {
		t.Fatalf("Reconcile(nil) error = %v", err)
	}
	if len(linked) != 0 {
		t.Fatalf("linked = %v, want none", linked)
	}
	memberships, _ := groups.ListOktaGroupsForIdentity(context.Background(), 1)
	if len(memberships) != 0 {
		t.Fatalf("memberships = %+v, want none", memberships)
	}
}

func TestReconcile_SkipsBlankAndDuplicateNames(t *testing.T) {
	t.Parallel()

	groups := newMemGroups()
	r := &GroupReconciler{Groups: groups, Root: testRoot}

	linked, err := r.Reconcile(context.Background(), []string{" Everyone ", "", "Everyone"}, 1)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(linked) != 1 {
		t.Fatalf("linked = %v, want single group", linked)
	}
}

func TestReconcile_OnlyTouchesTargetIdentity(t *testing.T) {
	t.Parallel()

	groups := newMemGroups()
	r := &GroupReconciler{Groups: groups, Root: testRoot}

	if _, err := r.Reconcile(context.Background(), []string{"Everyone"}, 1); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if _, err := r.Reconcile(context.Background(), nil, 2); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	memberships, _ := groups.ListOktaGroupsForIdentity(context.Background(), 1)
	if len(memberships) != 1 {
		t.Fatalf("identity 1 memberships = %+v, want untouched", memberships)
	}
}

func TestEnsureRoot_RetitlesSingleRoot(t *testing.T) {
	t.Parallel()

	groups := newMemGroups()
	first, err := groups.EnsureRoot(context.Background(), RootGroupConfig{Code: "okta", Title: "Okta"})
	if err != nil {
		t.Fatalf("EnsureRoot() error = %v", err)
	}
	second, err := groups.EnsureRoot(context.Background(), RootGroupConfig{Code: "okta", Title: "Identity Provider"})
	if err != nil {
		t.Fatalf("EnsureRoot() error = %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second root id = %d, want existing root %d", second.ID, first.ID)
	}
	if second.Title != "Identity Provider" {
		t.Fatalf("root title = %q, want retitled", second.Title)
	}
	if len(groups.rows) != 1 {
		t.Fatalf("group count = %d, want exactly one root", len(groups.rows))
	}
}

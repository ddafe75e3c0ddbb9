package reconcile

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repository lookups that match nothing.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would violate a uniqueness
// constraint. The store's constraints are the sole concurrency guard:
// callers must treat a conflict on passport or identity creation as a
// collision failure, not a crash.
var ErrConflict = errors.New("uniqueness conflict")

// IdentityRepository is the persistence boundary for member records.
type IdentityRepository interface {
	FindByOktaLogin(ctx context.Context, login string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	// FindStale returns identities whose last sync is before the cutoff,
	// oldest first, capped at limit. Identities never synced are excluded.
	FindStale(ctx context.Context, before time.Time, limit int) ([]*Identity, error)
	Create(ctx context.Context, identity *Identity) error
	Update(ctx context.Context, identity *Identity) error
	Delete(ctx context.Context, id IdentityID) error
}

// PassportRepository is the persistence boundary for passport records.
type PassportRepository interface {
	FindBySubjectAndProvider(ctx context.Context, subject, provider string) (*Passport, error)
	FindByIdentityAndProvider(ctx context.Context, id IdentityID, provider string) (*Passport, error)
	Create(ctx context.Context, passport *Passport) error
	Update(ctx context.Context, passport *Passport) error
	DeleteForIdentity(ctx context.Context, id IdentityID, provider string) error
}

// GroupRepository is the persistence boundary for group records and
// origin-flagged group memberships.
type GroupRepository interface {
	// EnsureRoot creates or updates the single parentless origin-flagged
	// group. Calling it twice with different titles retitles the existing
	// root rather than creating a second one.
	EnsureRoot(ctx context.Context, cfg RootGroupConfig) (*Group, error)
	FindOktaGroupByTitle(ctx context.Context, title string) (*Group, error)
	CreateUnderRoot(ctx context.Context, root GroupID, title, description string) (*Group, error)
	AddMember(ctx context.Context, group GroupID, identity IdentityID) error
	RemoveMember(ctx context.Context, group GroupID, identity IdentityID) error
	// ListOktaGroupsForIdentity returns the identity's direct
	// origin-flagged memberships.
	ListOktaGroupsForIdentity(ctx context.Context, identity IdentityID) ([]*Group, error)
}

// SyncLogRepository appends reconciliation failure records. Entries are
// immutable once written.
type SyncLogRepository interface {
	Add(ctx context.Context, entry *SyncLogEntry) error
}

// AccessPolicy answers capability questions about a local identity; the
// host owns the actual permission model.
type AccessPolicy interface {
	HasCapability(ctx context.Context, identity IdentityID, capability string) (bool, error)
	// HasAnyGrant reports whether the identity holds any access grant at
	// all, deciding soft versus hard unlink.
	HasAnyGrant(ctx context.Context, identity IdentityID) (bool, error)
}

// PageOptions selects one page of the upstream application-user
// collection. After is an opaque cursor, stored and forwarded verbatim.
type PageOptions struct {
	Limit int
	After string
}

// DirectoryUser is one entry of an application-user page.
type DirectoryUser struct {
	ID string
}

// Page is one page of application users plus the cursor for the next one.
// An empty NextCursor means the traversal is complete.
type Page struct {
	Users      []DirectoryUser
	NextCursor string
}

// Profile is the upstream user profile the engine reconciles from.
type Profile struct {
	Login      string
	Email      string
	FirstName  string
	Surname    string
	Attributes map[string]any
}

// ExternalDirectory is the IdP boundary the engine consumes. Errors from
// these calls propagate per operation; the engine classifies them into
// per-user failures or fatal run errors.
type ExternalDirectory interface {
	ListApplicationUsers(ctx context.Context, opts PageOptions) (Page, error)
	GetUserProfile(ctx context.Context, subject string) (Profile, error)
	ListUserGroups(ctx context.Context, subject string) ([]string, error)
	UserExists(ctx context.Context, subject string) (bool, error)
}

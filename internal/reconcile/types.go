// Package reconcile contains the identity reconciliation engine: the
// login-time linking decision logic and the batch synchronisation and
// unlink state machine that runs against the whole user population.
package reconcile

import "time"

// IdentityID is the local identifier of a member record.
type IdentityID int64

// GroupID is the local identifier of a group record.
type GroupID int64

// Identity is a local member record reconciled against an Okta account.
type Identity struct {
	ID        IdentityID
	Email     string
	FirstName string
	Surname   string

	// OktaLogin is the external login identifier. Unique across all
	// identities when non-empty; empty until the first external sign-in.
	OktaLogin string

	// Profile is the latest external profile blob, schema driven by
	// whatever the upstream directory returns.
	Profile map[string]any

	LastSyncAt *time.Time
	UnlinkedAt *time.Time
}

// Passport binds one external (subject, provider) pair to exactly one
// local identity. The subject/provider key never changes once created;
// only the identity reference may be repointed during link resolution.
type Passport struct {
	ID         int64
	Identifier string
	Provider   string
	IdentityID IdentityID
	CreatedBy  IdentityID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Group is a local group record. Origin-flagged groups (IsOktaGroup) are
// entirely IdP-sourced and may hold no permission grants or roles.
type Group struct {
	ID          GroupID
	Code        string
	Title       string
	Description string
	ParentID    GroupID
	IsOktaGroup bool
	Locked      bool
}

// SyncLogEntry is an append-only record of a reconciliation failure.
// MessageID is the random reference shown to the end user.
type SyncLogEntry struct {
	ID         int64
	Code       FailureCode
	MessageID  int
	Provider   string
	Identifier string
	CreatedAt  time.Time
}

// Claims are the verified identity claims handed over by the OAuth layer.
// GroupsPresent distinguishes "groups claim absent" from "groups claim
// present but empty"; restriction checks care about the difference while
// group reconciliation treats both as the empty set.
type Claims struct {
	Subject           string   `json:"sub"`
	Provider          string   `json:"provider"`
	PreferredUsername string   `json:"preferred_username"`
	Email             string   `json:"email"`
	FirstName         string   `json:"given_name"`
	Surname           string   `json:"family_name"`
	Groups            []string `json:"groups"`
	GroupsPresent     bool     `json:"-"`
}

// RootGroupConfig describes the single parentless origin-flagged group
// under which all synced groups are nested.
type RootGroupConfig struct {
	Code        string
	Title       string
	Description string
	Locked      bool
}

// Options carries the reconciliation feature toggles, passed explicitly
// into each component at construction.
type Options struct {
	Provider                string
	AllowCreateOnLogin      bool
	AllowCreateOnBatch      bool
	EmailFallbackLinking    bool
	UpdateExistingOnLink    bool
	GroupRestrictionEnabled bool
	RequiredGroups          []string
	StalenessDays           int
	UnlinkBatchLimit        int
	LockoutAfterDays        int
	RootGroup               RootGroupConfig
}

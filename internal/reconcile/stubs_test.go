package reconcile

import (
	"context"
	"sort"
	"strings"
	"time"
)

// In-memory repositories mirroring the store's constraint behavior:
// uniqueness violations surface as ErrConflict, missing rows as
// ErrNotFound.

type memIdentities struct {
	nextID IdentityID
	rows   map[IdentityID]*Identity
}

func newMemIdentities() *memIdentities {
	return &memIdentities{rows: make(map[IdentityID]*Identity)}
}

func (m *memIdentities) add(identity *Identity) *Identity {
	m.nextID++
	identity.ID = m.nextID
	m.rows[identity.ID] = identity
	return identity
}

func clone(identity *Identity) *Identity {
	out := *identity
	return &out
}

func (m *memIdentities) FindByOktaLogin(_ context.Context, login string) (*Identity, error) {
	for _, row := range m.rows {
		if row.OktaLogin != "" && row.OktaLogin == login {
			return clone(row), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memIdentities) FindByEmail(_ context.Context, email string) (*Identity, error) {
	var ids []IdentityID
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if strings.EqualFold(m.rows[id].Email, email) {
			return clone(m.rows[id]), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memIdentities) FindStale(_ context.Context, before time.Time, limit int) ([]*Identity, error) {
	var out []*Identity
	for _, row := range m.rows {
		if row.LastSyncAt != nil && row.LastSyncAt.Before(before) {
			out = append(out, clone(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSyncAt.Before(*out[j].LastSyncAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memIdentities) loginTaken(login string, except IdentityID) bool {
	if login == "" {
		return false
	}
	for id, row := range m.rows {
		if id != except && row.OktaLogin == login {
			return true
		}
	}
	return false
}

func (m *memIdentities) Create(_ context.Context, identity *Identity) error {
	if m.loginTaken(identity.OktaLogin, 0) {
		return ErrConflict
	}
	m.nextID++
	identity.ID = m.nextID
	m.rows[identity.ID] = clone(identity)
	return nil
}

func (m *memIdentities) Update(_ context.Context, identity *Identity) error {
	if _, ok := m.rows[identity.ID]; !ok {
		return ErrNotFound
	}
	if m.loginTaken(identity.OktaLogin, identity.ID) {
		return ErrConflict
	}
	m.rows[identity.ID] = clone(identity)
	return nil
}

func (m *memIdentities) Delete(_ context.Context, id IdentityID) error {
	delete(m.rows, id)
	return nil
}

type memPassports struct {
	nextID int64
	rows   []*Passport
}

func (m *memPassports) FindBySubjectAndProvider(_ context.Context, subject, provider string) (*Passport, error) {
	for _, row := range m.rows {
		if row.Identifier == subject && row.Provider == provider {
			out := *row
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memPassports) FindByIdentityAndProvider(_ context.Context, id IdentityID, provider string) (*Passport, error) {
	for _, row := range m.rows {
		if row.IdentityID == id && row.Provider == provider {
			out := *row
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memPassports) Create(_ context.Context, passport *Passport) error {
	for _, row := range m.rows {
		if row.Identifier == passport.Identifier && row.Provider == passport.Provider {
			return ErrConflict
		}
		if row.IdentityID == passport.IdentityID && row.Provider == passport.Provider {
			return ErrConflict
		}
	}
	m.nextID++
	passport.ID = m.nextID
	stored := *passport
	m.rows = append(m.rows, &stored)
	return nil
}

func (m *memPassports) Update(_ context.Context, passport *Passport) error {
	for _, row := range m.rows {
		if row.ID != passport.ID && row.IdentityID == passport.IdentityID && row.Provider == passport.Provider {
			return ErrConflict
		}
	}
	for _, row := range m.rows {
		if row.ID == passport.ID {
			row.IdentityID = passport.IdentityID
			return nil
		}
	}
	return ErrNotFound
}

func (m *memPassports) DeleteForIdentity(_ context.Context, id IdentityID, provider string) error {
	kept := m.rows[:0]
	for _, row := range m.rows {
		if row.IdentityID == id && row.Provider == provider {
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return nil
}

type memGroups struct {
	nextID  GroupID
	rows    map[GroupID]*Group
	members map[GroupID]map[IdentityID]struct{}
}

func newMemGroups() *memGroups {
	return &memGroups{
		rows:    make(map[GroupID]*Group),
		members: make(map[GroupID]map[IdentityID]struct{}),
	}
}

func (m *memGroups) EnsureRoot(_ context.Context, cfg RootGroupConfig) (*Group, error) {
	for _, row := range m.rows {
		if row.IsOktaGroup && row.ParentID == 0 {
			row.Title = cfg.Title
			row.Description = cfg.Description
			row.Locked = cfg.Locked
			out := *row
			return &out, nil
		}
	}
	m.nextID++
	root := &Group{
		ID:          m.nextID,
		Code:        cfg.Code,
		Title:       cfg.Title,
		Description: cfg.Description,
		IsOktaGroup: true,
		Locked:      cfg.Locked,
	}
	m.rows[root.ID] = root
	out := *root
	return &out, nil
}

func (m *memGroups) FindOktaGroupByTitle(_ context.Context, title string) (*Group, error) {
	for _, row := range m.rows {
		if row.IsOktaGroup && row.ParentID != 0 && row.Title == title {
			out := *row
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memGroups) CreateUnderRoot(_ context.Context, root GroupID, title, description string) (*Group, error) {
	m.nextID++
	group := &Group{
		ID:          m.nextID,
		Title:       title,
		Description: description,
		ParentID:    root,
		IsOktaGroup: true,
	}
	m.rows[group.ID] = group
	out := *group
	return &out, nil
}

func (m *memGroups) AddMember(_ context.Context, group GroupID, identity IdentityID) error {
	if m.members[group] == nil {
		m.members[group] = make(map[IdentityID]struct{})
	}
	m.members[group][identity] = struct{}{}
	return nil
}

func (m *memGroups) RemoveMember(_ context.Context, group GroupID, identity IdentityID) error {
	delete(m.members[group], identity)
	return nil
}

func (m *memGroups) ListOktaGroupsForIdentity(_ context.Context, identity IdentityID) ([]*Group, error) {
	var out []*Group
	for groupID, members := range m.members {
		if _, ok := members[identity]; !ok {
			continue
		}
		if row := m.rows[groupID]; row != nil && row.IsOktaGroup {
			g := *row
			out = append(out, &g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memLogs struct {
	entries []*SyncLogEntry
}

func (m *memLogs) Add(_ context.Context, entry *SyncLogEntry) error {
	stored := *entry
	m.entries = append(m.entries, &stored)
	return nil
}

func (m *memLogs) lastCode() FailureCode {
	if len(m.entries) == 0 {
		return FailNone
	}
	return m.entries[len(m.entries)-1].Code
}

type stubPolicy struct {
	grants map[IdentityID]bool
}

func (p *stubPolicy) HasCapability(_ context.Context, identity IdentityID, _ string) (bool, error) {
	return p.grants[identity], nil
}

func (p *stubPolicy) HasAnyGrant(_ context.Context, identity IdentityID) (bool, error) {
	return p.grants[identity], nil
}

type stubDirectory struct {
	listUsers  func(ctx context.Context, opts PageOptions) (Page, error)
	getProfile func(ctx context.Context, subject string) (Profile, error)
	listGroups func(ctx context.Context, subject string) ([]string, error)
	userExists func(ctx context.Context, subject string) (bool, error)
}

func (d *stubDirectory) ListApplicationUsers(ctx context.Context, opts PageOptions) (Page, error) {
	return d.listUsers(ctx, opts)
}

func (d *stubDirectory) GetUserProfile(ctx context.Context, subject string) (Profile, error) {
	return d.getProfile(ctx, subject)
}

func (d *stubDirectory) ListUserGroups(ctx context.Context, subject string) ([]string, error) {
	return d.listGroups(ctx, subject)
}

func (d *stubDirectory) UserExists(ctx context.Context, subject string) (bool, error) {
	return d.userExists(ctx, subject)
}

package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// IdentityLinker finds or constructs the one local identity matching a set
// of external claims. It never persists: new identities come back with a
// zero ID and mutations are in-memory only, so callers can report planned
// changes without writing.
type IdentityLinker struct {
	Identities IdentityRepository

	// EmailFallback allows matching an existing identity by email when no
	// identity carries the external login. Only safe when the owner of the
	// Okta login is known to own the local email address.
	EmailFallback bool

	// UpdateExisting refreshes name fields on a matched identity and
	// backfills an empty external login.
	UpdateExisting bool
}

// LinkOrCreate resolves claims to an identity. Resolution order: external
// login, then email fallback if enabled, then creation if allowed. Returns
// nil when no identity could be resolved; the caller decides the failure
// semantics. Email on an existing identity is never overwritten.
func (l *IdentityLinker) LinkOrCreate(ctx context.Context, login, email, firstName, surname string, allowCreate bool) (*Identity, error) {
	login = strings.TrimSpace(login)
	email = strings.TrimSpace(email)
	if login == "" || email == "" {
		return nil, nil
	}

	identity, err := l.Identities.FindByOktaLogin(ctx, login)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if identity == nil && l.EmailFallback {
		slog.Debug("identity linker falling back to email match", "login", login)
		identity, err = l.Identities.FindByEmail(ctx, login)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	if identity == nil {
		if !allowCreate {
			return nil, nil
		}
		return &Identity{
			Email:     email,
			FirstName: firstName,
			Surname:   surname,
			OktaLogin: login,
		}, nil
	}

	if l.UpdateExisting {
		identity.FirstName = firstName
		identity.Surname = surname
		if identity.OktaLogin == "" {
			identity.OktaLogin = login
		}
	}
	return identity, nil
}

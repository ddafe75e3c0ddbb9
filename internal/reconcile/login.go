package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// LoginDeniedError is returned by a LoginGate to block an otherwise
// successful login. Its reason is surfaced to the end user verbatim.
type LoginDeniedError struct {
	Reason string
}

func (e *LoginDeniedError) Error() string { return e.Reason }

// LoginGate is the host's final "can this identity log in" check, applied
// after reconciliation has succeeded.
type LoginGate interface {
	CanLogIn(ctx context.Context, identity *Identity) error
}

// AgeLockoutGate denies login to identities whose last sync is older than
// a configured number of days. Identities never synced pass.
type AgeLockoutGate struct {
	Days int
	Now  func() time.Time
}

func (g *AgeLockoutGate) CanLogIn(_ context.Context, identity *Identity) error {
	if g.Days <= 0 || identity.LastSyncAt == nil {
		return nil
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	if identity.LastSyncAt.AddDate(0, 0, g.Days).Before(now()) {
		return &LoginDeniedError{
			Reason: "Sorry, you cannot sign in to this website as your account has not been used recently." +
				" Please contact a website administrator for further assistance.",
		}
	}
	return nil
}

// LoginResult is the terminal state of one login attempt. A zero
// FailureCode with OK unset still denotes a failure when the gate denied
// the login; SupportMessage is always safe to show to the end user.
type LoginResult struct {
	OK             bool
	Identity       *Identity
	LinkedGroups   []GroupID
	FailureCode    FailureCode
	MessageID      int
	SupportMessage string
}

// LoginHandler reconciles a single verified login attempt into local
// identity, passport and group state.
type LoginHandler struct {
	Identities IdentityRepository
	Passports  PassportRepository
	Logs       SyncLogRepository
	Linker     *IdentityLinker
	Groups     *GroupReconciler
	Gate       LoginGate
	Opts       Options
}

// Run executes the login reconciliation state machine. Handled failures
// come back in-band with an opaque support message and a correlation
// reference; only infrastructure errors are returned as errors.
func (h *LoginHandler) Run(ctx context.Context, claims Claims) (LoginResult, error) {
	provider := strings.TrimSpace(claims.Provider)
	subject := strings.TrimSpace(claims.Subject)
	username := strings.TrimSpace(claims.PreferredUsername)
	email := strings.TrimSpace(claims.Email)

	if provider == "" {
		return h.fail(ctx, FailNoProviderName, "", subject)
	}
	if username == "" {
		return h.fail(ctx, FailUserMissingUsername, provider, subject)
	}
	if email == "" {
		return h.fail(ctx, FailUserMissingEmail, provider, subject)
	}

	// The restriction check gates access only; group reconciliation below
	// runs regardless of it.
	if h.Opts.GroupRestrictionEnabled {
		if !claims.GroupsPresent || len(claims.Groups) == 0 {
			return h.fail(ctx, FailUserNoGroups, provider, subject)
		}
		if !subset(h.Opts.RequiredGroups, claims.Groups) {
			return h.fail(ctx, FailUserMissingRequiredGroups, provider, subject)
		}
	}

	passport, err := h.Passports.FindBySubjectAndProvider(ctx, subject, provider)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return LoginResult{}, err
	}

	identity, err := h.Linker.LinkOrCreate(ctx, username, email, claims.FirstName, claims.Surname, h.Opts.AllowCreateOnLogin)
	if err != nil {
		return LoginResult{}, err
	}
	if identity == nil {
		if passport == nil {
			return h.fail(ctx, FailNoPassportNoMemberCreated, provider, subject)
		}
		return h.fail(ctx, FailPassportNoMemberCreated, provider, subject)
	}

	if err := h.persistIdentity(ctx, identity); err != nil {
		if errors.Is(err, ErrConflict) {
			return h.fail(ctx, FailUserMemberCollision, provider, subject)
		}
		return LoginResult{}, err
	}

	if passport == nil {
		passport = &Passport{
			Identifier: subject,
			Provider:   provider,
			IdentityID: identity.ID,
			CreatedBy:  identity.ID,
		}
		if err := h.Passports.Create(ctx, passport); err != nil {
			if errors.Is(err, ErrConflict) {
				return h.fail(ctx, FailPassportCreateIdentCollision, provider, subject)
			}
			return LoginResult{}, err
		}
	} else if passport.IdentityID != identity.ID {
		// Repoint the passport to the resolved identity. The subject and
		// provider key never change here; the (identity, provider)
		// uniqueness constraint rejects a repoint that would give one
		// identity two passports for the provider.
		passport.IdentityID = identity.ID
		if err := h.Passports.Update(ctx, passport); err != nil {
			if errors.Is(err, ErrConflict) {
				return h.fail(ctx, FailPassportCreateIdentCollision, provider, subject)
			}
			return LoginResult{}, err
		}
	}

	// Absent or empty groups claim means full revocation here; the
	// restriction gate above already rejected that case when enabled.
	linked, err := h.Groups.Reconcile(ctx, claims.Groups, identity.ID)
	if err != nil {
		return LoginResult{}, err
	}

	if h.Gate != nil {
		if err := h.Gate.CanLogIn(ctx, identity); err != nil {
			var denied *LoginDeniedError
			if errors.As(err, &denied) {
				slog.Info("login denied by gate", "provider", provider, "subject", subject)
				return LoginResult{SupportMessage: denied.Reason}, nil
			}
			return LoginResult{}, err
		}
	}

	return LoginResult{OK: true, Identity: identity, LinkedGroups: linked}, nil
}

func (h *LoginHandler) persistIdentity(ctx context.Context, identity *Identity) error {
	if identity.ID == 0 {
		return h.Identities.Create(ctx, identity)
	}
	return h.Identities.Update(ctx, identity)
}

// fail records one sync log entry for the attempt and builds the
// user-facing result. The failure code and subject stay server-side; the
// user sees only the support message and the correlation reference.
func (h *LoginHandler) fail(ctx context.Context, code FailureCode, provider, subject string) (LoginResult, error) {
	messageID := NewMessageID()
	entry := &SyncLogEntry{
		Code:       code,
		MessageID:  messageID,
		Provider:   provider,
		Identifier: subject,
	}
	if err := h.Logs.Add(ctx, entry); err != nil {
		// A sync log write failure must not mask the login failure.
		slog.Error("sync log write failed", "code", int(code), "err", err)
	}
	slog.Info("login reconciliation failed",
		"code", int(code), "meaning", code.Message(), "provider", provider, "message_id", messageID)
	return LoginResult{
		FailureCode:    code,
		MessageID:      messageID,
		SupportMessage: fmt.Sprintf("%s (#%d)", supportMessage, messageID),
	}, nil
}

func subset(required, claimed []string) bool {
	have := make(map[string]struct{}, len(claimed))
	for _, name := range claimed {
		have[strings.TrimSpace(name)] = struct{}{}
	}
	for _, name := range required {
		if _, ok := have[strings.TrimSpace(name)]; !ok {
			return false
		}
	}
	return true
}

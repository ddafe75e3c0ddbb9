package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// BatchSyncEngine reconciles the upstream application-assigned user
// population into local state, one page per invocation. Multi-page
// traversal happens across invocations via the cursor the engine reports;
// within a run there are no retries and a single bad record never aborts
// the batch.
type BatchSyncEngine struct {
	Directory  ExternalDirectory
	Identities IdentityRepository
	Passports  PassportRepository
	Linker     *IdentityLinker
	Groups     *GroupReconciler
	Policy     AccessPolicy
	Opts       Options

	// DryRun performs all reads but suppresses every write, collecting
	// planned changes into the report instead.
	DryRun bool

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time

	start      time.Time
	success    map[string]IdentityID
	failures   []string
	unlinked   int
	nextCursor string
	report     *Report
}

// Run fetches one page of application users, reconciles each into a local
// identity, then runs the unlink pass over stale local identities capped
// at unlinkLimit. It returns the per-user success count; failures, the
// unlink count and the next cursor are exposed via accessors. Only a page
// fetch failure is fatal.
func (e *BatchSyncEngine) Run(ctx context.Context, page PageOptions, unlinkLimit int) (int, error) {
	e.success = make(map[string]IdentityID)
	e.failures = nil
	e.unlinked = 0
	e.report = NewReport()
	e.start = e.now()

	if e.DryRun {
		slog.Debug("batch sync running in dry-run mode")
	}

	fetched, err := e.Directory.ListApplicationUsers(ctx, page)
	if err != nil {
		return 0, fmt.Errorf("list application users: %w", err)
	}
	// Record the resumption cursor before processing so a crash mid-page
	// does not lose the pagination position.
	e.nextCursor = fetched.NextCursor

	for _, user := range fetched.Users {
		if err := ctx.Err(); err != nil {
			return len(e.success), err
		}
		identityID, err := e.processUser(ctx, user)
		if err != nil {
			slog.Warn("app user sync failed", "subject", user.ID, "err", err)
			e.failures = append(e.failures, user.ID)
			continue
		}
		e.success[user.ID] = identityID
	}
	slog.Info("batch page processed",
		"synced", len(e.success), "failed", len(e.failures), "next_cursor_set", e.nextCursor != "")

	if err := e.unlinkStale(ctx, unlinkLimit); err != nil {
		return len(e.success), err
	}
	return len(e.success), nil
}

// Successes maps upstream subject ids to the local identities they synced
// to in the last run.
func (e *BatchSyncEngine) Successes() map[string]IdentityID { return e.success }

// Failures lists the upstream subject ids that failed in the last run.
func (e *BatchSyncEngine) Failures() []string { return e.failures }

// UnlinkedCount is the number of identities unlinked in the last run.
func (e *BatchSyncEngine) UnlinkedCount() int { return e.unlinked }

// NextCursor is the opaque resumption cursor for the following page; empty
// once the traversal reached the end of the population.
func (e *BatchSyncEngine) NextCursor() string { return e.nextCursor }

// Report returns the dry-run report for the last run.
func (e *BatchSyncEngine) Report() *Report { return e.report }

func (e *BatchSyncEngine) processUser(ctx context.Context, user DirectoryUser) (IdentityID, error) {
	profile, err := e.Directory.GetUserProfile(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("profile fetch: %w", err)
	}
	if profile.Login == "" {
		return 0, fmt.Errorf("profile has no login value")
	}
	if profile.Email == "" {
		return 0, fmt.Errorf("profile has no email value")
	}
	groups, err := e.Directory.ListUserGroups(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("group fetch: %w", err)
	}

	var identity *Identity
	if !e.Opts.AllowCreateOnBatch {
		// Pure refresh mode: only users who already signed in are synced.
		passport, err := e.Passports.FindBySubjectAndProvider(ctx, user.ID, e.Opts.Provider)
		if err != nil {
			return 0, fmt.Errorf("no passport for provider %s: %w", e.Opts.Provider, err)
		}
		identity, err = e.Linker.LinkOrCreate(ctx, profile.Login, profile.Email, profile.FirstName, profile.Surname, false)
		if err != nil {
			return 0, err
		}
		if identity == nil {
			return 0, fmt.Errorf("no matching identity for login=%s", profile.Login)
		}
		if passport.IdentityID != identity.ID {
			return 0, fmt.Errorf("passport identity #%d does not match linked identity #%d", passport.IdentityID, identity.ID)
		}
	} else {
		identity, err = e.Linker.LinkOrCreate(ctx, profile.Login, profile.Email, profile.FirstName, profile.Surname, true)
		if err != nil {
			return 0, err
		}
		if identity == nil {
			return 0, fmt.Errorf("could not link or create identity for login=%s", profile.Login)
		}
	}

	if e.DryRun {
		if identity.ID == 0 {
			e.report.Add(user.ID, "would create identity for login=%s email=%s", profile.Login, profile.Email)
		} else {
			e.report.Add(user.ID, "would write profile for identity #%d", identity.ID)
		}
		for _, name := range groups {
			e.report.Add(user.ID, "would link group %q", name)
		}
		return identity.ID, nil
	}

	identity.Profile = profile.Attributes
	syncedAt := e.start
	identity.LastSyncAt = &syncedAt
	identity.UnlinkedAt = nil
	if identity.ID == 0 {
		err = e.Identities.Create(ctx, identity)
	} else {
		err = e.Identities.Update(ctx, identity)
	}
	if err != nil {
		return 0, fmt.Errorf("persist identity: %w", err)
	}

	if _, err := e.Groups.Reconcile(ctx, groups, identity.ID); err != nil {
		return 0, fmt.Errorf("group reconcile: %w", err)
	}
	return identity.ID, nil
}

// unlinkStale removes or soft-clears identities no longer present
// upstream. A candidate is unlinked only when its last sync predates the
// staleness window and the directory confirms the user is gone; directory
// errors skip the candidate rather than unlink on a transient failure.
func (e *BatchSyncEngine) unlinkStale(ctx context.Context, limit int) error {
	if limit <= 0 || e.Opts.StalenessDays <= 0 {
		return nil
	}
	cutoff := e.start.AddDate(0, 0, -e.Opts.StalenessDays)
	stale, err := e.Identities.FindStale(ctx, cutoff, limit)
	if err != nil {
		return fmt.Errorf("find stale identities: %w", err)
	}

	for _, identity := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}
		exists, err := e.Directory.UserExists(ctx, identity.OktaLogin)
		if err != nil {
			slog.Warn("unlink liveness check failed, skipping", "identity", identity.ID, "err", err)
			continue
		}
		if exists {
			continue
		}
		if err := e.unlinkIdentity(ctx, identity); err != nil {
			slog.Warn("unlink failed", "identity", identity.ID, "err", err)
			continue
		}
		e.unlinked++
	}
	if e.unlinked > 0 {
		slog.Info("unlink pass complete", "unlinked", e.unlinked)
	}
	return nil
}

func (e *BatchSyncEngine) unlinkIdentity(ctx context.Context, identity *Identity) error {
	key := fmt.Sprintf("identity #%d", identity.ID)
	if e.DryRun {
		e.report.Add(key, "not linked to application, would unlink")
		return nil
	}

	if err := e.Passports.DeleteForIdentity(ctx, identity.ID, e.Opts.Provider); err != nil {
		return fmt.Errorf("delete passports: %w", err)
	}
	if _, err := e.Groups.Reconcile(ctx, nil, identity.ID); err != nil {
		return fmt.Errorf("revoke group memberships: %w", err)
	}

	hasGrant, err := e.Policy.HasAnyGrant(ctx, identity.ID)
	if err != nil {
		return fmt.Errorf("access grant check: %w", err)
	}
	if !hasGrant {
		slog.Info("removing unlinked identity", "identity", identity.ID)
		return e.Identities.Delete(ctx, identity.ID)
	}

	// The identity holds unrelated access: revert it to a purely local
	// account instead of deleting it.
	identity.OktaLogin = ""
	identity.Profile = nil
	identity.LastSyncAt = nil
	unlinkedAt := e.start
	identity.UnlinkedAt = &unlinkedAt
	slog.Info("soft-unlinking identity with remaining grants", "identity", identity.ID)
	return e.Identities.Update(ctx, identity)
}

func (e *BatchSyncEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

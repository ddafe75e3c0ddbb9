package main

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oktabridge/oktabridge/internal/config"
	"github.com/oktabridge/oktabridge/internal/jobs"
	"github.com/oktabridge/oktabridge/internal/okta"
	"github.com/oktabridge/oktabridge/internal/reconcile"
	"github.com/oktabridge/oktabridge/internal/store"
)

// app bundles the wired components shared by the commands.
type app struct {
	cfg   config.Config
	store *store.Store

	linker *reconcile.IdentityLinker
	groups *reconcile.GroupReconciler
	login  *reconcile.LoginHandler
}

func newApp(cfg config.Config, pool *pgxpool.Pool) (*app, error) {
	st, err := store.New(pool)
	if err != nil {
		return nil, err
	}
	opts := cfg.ReconcileOptions()

	linker := &reconcile.IdentityLinker{
		Identities:     st.Identities(),
		EmailFallback:  opts.EmailFallbackLinking,
		UpdateExisting: opts.UpdateExistingOnLink,
	}
	groups := &reconcile.GroupReconciler{
		Groups: st.Groups(),
		Root:   opts.RootGroup,
	}

	var gate reconcile.LoginGate
	if opts.LockoutAfterDays > 0 {
		gate = &reconcile.AgeLockoutGate{Days: opts.LockoutAfterDays}
	}
	login := &reconcile.LoginHandler{
		Identities: st.Identities(),
		Passports:  st.Passports(),
		Logs:       st.SyncLogs(),
		Linker:     linker,
		Groups:     groups,
		Gate:       gate,
		Opts:       opts,
	}

	return &app{cfg: cfg, store: st, linker: linker, groups: groups, login: login}, nil
}

// batchEngine wires the batch sync engine against the live directory.
func (a *app) batchEngine(dryRun bool) (*reconcile.BatchSyncEngine, error) {
	directory, err := okta.New(a.cfg.Okta)
	if err != nil {
		return nil, err
	}
	return &reconcile.BatchSyncEngine{
		Directory:  directory,
		Identities: a.store.Identities(),
		Passports:  a.store.Passports(),
		Linker:     a.linker,
		Groups:     a.groups,
		Policy:     a.store.Policy(),
		Opts:       a.cfg.ReconcileOptions(),
		DryRun:     dryRun,
	}, nil
}

func (a *app) batchJob(engine *reconcile.BatchSyncEngine) *jobs.BatchJob {
	return &jobs.BatchJob{
		Engine:      engine,
		Cursors:     a.store.JobState(),
		PageSize:    a.cfg.SyncPageSize,
		UnlinkLimit: a.cfg.UnlinkBatchLimit,
	}
}

func (a *app) retentionJob() *jobs.RetentionJob {
	return &jobs.RetentionJob{
		Logs:               a.store.SyncLogs(),
		Passports:          a.store.Passports(),
		Provider:           a.cfg.Provider,
		LogRetentionDays:   a.cfg.LogRetentionDays,
		PassportMaxAgeDays: a.cfg.PassportMaxAgeDays,
	}
}

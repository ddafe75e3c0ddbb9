package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SyncLogPurger prunes reconciliation failure logs before a cutoff.
type SyncLogPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PassportPruner drops passports not edited since a cutoff.
type PassportPruner interface {
	DeleteEditedBefore(ctx context.Context, provider string, cutoff time.Time) (int64, error)
}

// RetentionJob prunes reconciliation failure logs past their retention
// window and, when PassportMaxAgeDays is set, drops passports that have
// not been touched within that window so the next sign-in relinks them
// from scratch.
type RetentionJob struct {
	Logs               SyncLogPurger
	Passports          PassportPruner
	Provider           string
	LogRetentionDays   int
	PassportMaxAgeDays int

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (j *RetentionJob) RunOnce(ctx context.Context) error {
	if j == nil || j.Logs == nil {
		return fmt.Errorf("retention job is not configured")
	}
	now := time.Now().UTC()
	if j.Now != nil {
		now = j.Now()
	}

	if j.LogRetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -j.LogRetentionDays)
		purged, err := j.Logs.PurgeBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("purge sync logs: %w", err)
		}
		if purged > 0 {
			slog.Info("purged sync logs", "purged", purged, "cutoff", cutoff)
		}
	}

	if j.Passports != nil && j.PassportMaxAgeDays > 0 {
		cutoff := now.AddDate(0, 0, -j.PassportMaxAgeDays)
		deleted, err := j.Passports.DeleteEditedBefore(ctx, j.Provider, cutoff)
		if err != nil {
			return fmt.Errorf("delete stale passports: %w", err)
		}
		if deleted > 0 {
			slog.Info("deleted stale passports", "deleted", deleted, "cutoff", cutoff)
		}
	}
	return nil
}

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oktabridge/oktabridge/internal/metrics"
	"github.com/oktabridge/oktabridge/internal/reconcile"
)

// BatchJobName keys the persisted cursor row for the batch sync job.
const BatchJobName = "okta_batch_sync"

// CursorStore persists the opaque pagination cursor between job passes.
// runID identifies the pass that wrote the cursor, correlating the stored
// row with that pass's log lines.
type CursorStore interface {
	LoadCursor(ctx context.Context, job string) (string, error)
	SaveCursor(ctx context.Context, job, cursor, runID string) error
}

// BatchJob adapts the batch sync engine to the Runner contract. Each pass
// processes one page of application users, resuming from the cursor
// persisted by the previous pass; an empty saved cursor restarts the
// traversal from the beginning of the population.
type BatchJob struct {
	Engine      *reconcile.BatchSyncEngine
	Cursors     CursorStore
	PageSize    int
	UnlinkLimit int
}

func (j *BatchJob) RunOnce(ctx context.Context) error {
	if j == nil || j.Engine == nil || j.Cursors == nil {
		return fmt.Errorf("batch job is not configured")
	}
	provider := j.Engine.Opts.Provider
	runID := uuid.NewString()

	cursor, err := j.Cursors.LoadCursor(ctx, BatchJobName)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}

	started := time.Now()
	synced, err := j.Engine.Run(ctx, reconcile.PageOptions{Limit: j.PageSize, After: cursor}, j.UnlinkLimit)
	metrics.BatchDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.BatchRunsTotal.WithLabelValues(provider, "error").Inc()
		return err
	}

	metrics.BatchRunsTotal.WithLabelValues(provider, "success").Inc()
	metrics.BatchUsersTotal.WithLabelValues(provider, "synced").Add(float64(synced))
	metrics.BatchUsersTotal.WithLabelValues(provider, "failed").Add(float64(len(j.Engine.Failures())))
	metrics.BatchUnlinkedTotal.WithLabelValues(provider).Add(float64(j.Engine.UnlinkedCount()))
	metrics.BatchLastSuccessTimestamp.WithLabelValues(provider).SetToCurrentTime()

	// Failures are already logged per user by the engine; the cursor still
	// advances so one bad record cannot wedge the traversal.
	if err := j.Cursors.SaveCursor(ctx, BatchJobName, j.Engine.NextCursor(), runID); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	slog.Info("batch job pass complete",
		"run_id", runID,
		"synced", synced,
		"failed", len(j.Engine.Failures()),
		"unlinked", j.Engine.UnlinkedCount(),
		"resumed_from_cursor", cursor != "",
		"has_next_page", j.Engine.NextCursor() != "")
	return nil
}

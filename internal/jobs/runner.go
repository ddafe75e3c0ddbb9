// Package jobs holds the recurring background work: the batch sync pass
// and the sync-log retention sweep, plus the scheduling and locking
// machinery around them.
package jobs

import (
	"context"
	"errors"
)

// Runner executes a single job pass.
type Runner interface {
	RunOnce(context.Context) error
}

// RunnerFunc adapts a plain function to the Runner contract.
type RunnerFunc func(context.Context) error

func (f RunnerFunc) RunOnce(ctx context.Context) error { return f(ctx) }

// ErrAlreadyRunning is returned by a try-lock runner when another pass is
// already in progress on some worker.
var ErrAlreadyRunning = errors.New("job is already running")

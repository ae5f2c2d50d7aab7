package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/semaphore"
)

// ErrRunInProgress is returned by Guard.Run while another run is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Runner executes one run.
type Runner interface {
	Run(ctx context.Context, opts ...RunOption) (*Outcome, error)
}

// Guard lets at most one run execute at a time. A run requested while
// another is active is rejected, not queued.
type Guard struct {
	runner Runner
	sem    *semaphore.Weighted
}

// NewGuard wraps runner.
func NewGuard(runner Runner) *Guard {
	return &Guard{runner: runner, sem: semaphore.NewWeighted(1)}
}

func (g *Guard) Run(ctx context.Context, opts ...RunOption) (*Outcome, error) {
	if !g.sem.TryAcquire(1) {
		return nil, ErrRunInProgress
	}
	defer g.sem.Release(1)
	return g.runner.Run(ctx, opts...)
}

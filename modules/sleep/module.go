// Package sleep provides an inert runner that waits for a duration and
// returns. Useful for demo pipelines and smoke tests.
package sleep

import (
	"context"
	"time"

	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/resources"
	"github.com/vk/taskgrid/internal/runner"
)

// Module implements the runner.Module interface for this package.
type Module struct{}

// Register binds the "sleep" kind to this runner.
func (m *Module) Register(r *runner.Registry) {
	r.Register("sleep", New)
}

// Runner waits for the task's configured duration.
type Runner struct {
	duration time.Duration
}

// New builds a sleep runner. The optional "duration_ms" argument defaults to
// 10 milliseconds.
func New(t *job.Task) (runner.Runner, error) {
	ms := 10.0
	if args, ok := t.Arguments.(map[string]any); ok {
		if v, ok := args["duration_ms"].(float64); ok {
			ms = v
		}
	}
	return &Runner{duration: time.Duration(ms) * time.Millisecond}, nil
}

// Run sleeps, honoring context cancellation.
func (r *Runner) Run(ctx context.Context) (any, error) {
	select {
	case <-time.After(r.duration):
		return r.duration.String(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Requirements implements runner.Runner.
func (r *Runner) Requirements() resources.Request {
	return resources.Request{CPU: 1}
}

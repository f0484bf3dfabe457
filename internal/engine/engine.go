// Package engine contains the two job execution strategies: a strictly
// sequential fail-fast engine and a concurrent best-effort engine built on a
// bounded worker pool gated by a resource ledger.
package engine

import (
	"context"
	"fmt"

	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/runner"
)

// Hook is invoked immediately before dispatch and immediately after
// completion of a task, for instrumentation. Hooks must not affect
// scheduling decisions. The concurrent engine fires the after hook for every
// outcome; the sequential engine skips it for the task whose failure aborts
// the job.
type Hook func(t *job.Task)

// Engine runs jobs to a terminal status. Run blocks within the calling
// goroutine until every registered job is terminal.
type Engine interface {
	Run(ctx context.Context, jobs ...*job.Job) error
}

// JobError reports a job aborted by the sequential engine, carrying the
// identity of the failing task and its captured failure.
type JobError struct {
	JobID  string
	TaskID string
	Err    error
}

// Error implements the error interface.
func (e *JobError) Error() string {
	return fmt.Sprintf("job %s: task %s failed: %v", e.JobID, e.TaskID, e.Err)
}

// Unwrap exposes the captured task failure.
func (e *JobError) Unwrap() error { return e.Err }

// core is the strategy-independent part of an engine: the job registry,
// runner resolution, and the instrumentation hooks.
type core struct {
	jobs     map[string]*job.Job
	order    []string // registration order, keeps scheduling passes deterministic
	registry *runner.Registry

	beforeTask Hook
	afterTask  Hook
}

func newCore(reg *runner.Registry) core {
	noop := func(*job.Task) {}
	return core{
		jobs:       make(map[string]*job.Job),
		registry:   reg,
		beforeTask: noop,
		afterTask:  noop,
	}
}

// register adds jobs to the engine's registry. Re-registering a job ID keeps
// the existing entry, so repeated Run calls never reprocess a finished job.
func (c *core) register(jobs ...*job.Job) {
	for _, j := range jobs {
		if _, exists := c.jobs[j.ID]; exists {
			continue
		}
		c.jobs[j.ID] = j
		c.order = append(c.order, j.ID)
	}
}

// resolveRunner looks up the execution strategy for a task.
func (c *core) resolveRunner(t *job.Task) (runner.Runner, error) {
	return c.registry.Resolve(t)
}

// Option configures an engine at construction.
type Option func(*core)

// WithBeforeTask installs the pre-dispatch hook.
func WithBeforeTask(h Hook) Option {
	return func(c *core) { c.beforeTask = h }
}

// WithAfterTask installs the post-completion hook.
func WithAfterTask(h Hook) Option {
	return func(c *core) { c.afterTask = h }
}

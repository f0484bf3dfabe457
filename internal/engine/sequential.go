package engine

import (
	"context"
	"errors"

	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/runner"
)

// Sequential executes one job's ready tasks one at a time, in the calling
// goroutine, aborting the job on the first task failure.
type Sequential struct {
	core
}

// NewSequential creates a sequential engine resolving runners from reg.
func NewSequential(reg *runner.Registry, opts ...Option) *Sequential {
	e := &Sequential{core: newCore(reg)}
	for _, opt := range opts {
		opt(&e.core)
	}
	return e
}

// Run registers the jobs and executes every QUEUED one to a terminal status.
// Jobs already past QUEUED are skipped, so Run is re-entrant. The returned
// error joins one JobError per failed job; each failure is also recorded on
// the job's status and error message, so callers may ignore the error and
// inspect statuses instead.
func (e *Sequential) Run(ctx context.Context, jobs ...*job.Job) error {
	e.register(jobs...)
	logger := ctxlog.FromContext(ctx)

	var errs []error
	for _, id := range e.order {
		j := e.jobs[id]
		if j.Status != job.Queued {
			continue
		}
		j.Status = job.Running
		logger.Info("Running job.", "jobID", j.ID)
		if err := e.runJob(ctx, j); err != nil {
			logger.Error("Job failed.", "jobID", j.ID, "error", err)
			j.Status = job.Failed
			j.ErrorMessage = err.Error()
			errs = append(errs, err)
			continue
		}
		j.Status = job.Finished
	}
	return errors.Join(errs...)
}

// runJob drains the job's ready frontier. The first FAILED task aborts the
// whole job: remaining ready tasks and all not-yet-reached tasks are never
// executed.
func (e *Sequential) runJob(ctx context.Context, j *job.Job) error {
	for ready := j.Graph.ReadyTasks(); len(ready) > 0; ready = j.Graph.ReadyTasks() {
		for _, t := range ready {
			e.beforeTask(t)
			e.runTask(ctx, t)
			if t.Status == job.TaskFailed {
				return &JobError{JobID: j.ID, TaskID: t.ID, Err: t.Result.Err}
			}
			e.afterTask(t)
			if err := j.Graph.ResolveTask(t); err != nil {
				return err
			}
		}
	}
	return nil
}

// runTask executes one task synchronously and records its outcome.
func (e *Sequential) runTask(ctx context.Context, t *job.Task) {
	logger := ctxlog.FromContext(ctx)
	t.Status = job.TaskRunning

	r, err := e.resolveRunner(t)
	if err != nil {
		t.Status = job.TaskFailed
		t.Result = &job.Result{Err: err}
		return
	}

	logger.Info("Running task.", "taskID", t.ID, "kind", t.Kind)
	res := capture(ctx, r)
	t.Result = &res
	if res.Failed() {
		logger.Error("Task failed.", "taskID", t.ID, "error", res.Err)
		t.Status = job.TaskFailed
		return
	}
	t.Status = job.TaskFinished
}

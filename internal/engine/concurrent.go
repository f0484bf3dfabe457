package engine

import (
	"context"
	"runtime"
	"time"

	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/resources"
	"github.com/vk/taskgrid/internal/runner"
)

// defaultPollInterval is how long a scheduling pass that made no progress
// sleeps before retrying.
const defaultPollInterval = 100 * time.Millisecond

// ConcurrentConfig sizes the concurrent engine's worker pool and resource
// budget.
type ConcurrentConfig struct {
	// CPUs is the total core budget; defaults to runtime.NumCPU().
	CPUs int
	// RAMMB is the total memory budget in megabytes; defaults to one
	// gigabyte per core.
	RAMMB int
	// Workers is the pool size; defaults to CPUs.
	Workers int
	// PollInterval overrides the idle sleep between scheduling passes.
	PollInterval time.Duration
}

// withDefaults fills unset fields from host introspection.
func (c ConcurrentConfig) withDefaults() ConcurrentConfig {
	if c.CPUs <= 0 {
		c.CPUs = runtime.NumCPU()
	}
	if c.RAMMB <= 0 {
		c.RAMMB = c.CPUs * 1024
	}
	if c.Workers <= 0 {
		c.Workers = c.CPUs
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}

// inflight is one dispatched task awaiting its result.
type inflight struct {
	job    *job.Job
	task   *job.Task
	handle *handle
}

// Concurrent executes ready tasks from all registered jobs through a bounded
// worker pool, admitting each task only when its resource request fits the
// ledger. Failure policy is best-effort: a failed task never aborts
// independent branches; a job turns FAILED only once its graph is exhausted
// with at least one task short of FINISHED.
//
// All engine state (the ledger, job and task statuses, the in-flight list) is
// owned by the control goroutine running Run; workers only execute runners
// and deliver results.
type Concurrent struct {
	core
	cfg      ConcurrentConfig
	ledger   *resources.Ledger
	inflight []*inflight
}

// NewConcurrent creates a concurrent engine resolving runners from reg.
func NewConcurrent(reg *runner.Registry, cfg ConcurrentConfig, opts ...Option) *Concurrent {
	cfg = cfg.withDefaults()
	e := &Concurrent{
		core:   newCore(reg),
		cfg:    cfg,
		ledger: resources.NewLedger(cfg.CPUs, cfg.RAMMB),
	}
	for _, opt := range opts {
		opt(&e.core)
	}
	return e
}

// Run registers the jobs and loops: dispatch every admissible ready task,
// poll in-flight results, recompute job statuses. It returns once no job has
// runnable or in-flight work. Job failures are left on the jobs themselves;
// the only errors returned are the engine's own.
//
// A pass that neither dispatched nor completed anything sleeps for the poll
// interval, so waiting is a bounded busy-wait rather than a blocking one. A
// task whose request can never be satisfied keeps the loop alive forever;
// there is no starvation detection.
func (e *Concurrent) Run(ctx context.Context, jobs ...*job.Job) error {
	e.register(jobs...)
	logger := ctxlog.FromContext(ctx)

	// Non-exclusive admissions hold at least one core each, and an exclusive
	// task runs alone, so the ledger bounds in-flight work to CPUs entries.
	// Sizing the queue the same way keeps Submit from ever blocking.
	workers := newPool(ctx, e.cfg.Workers, e.cfg.CPUs)
	defer workers.Stop()

	logger.Debug("Concurrent engine starting.", "workers", e.cfg.Workers, "ledger", e.ledger)
	for {
		dispatched := e.dispatchReady(ctx, workers)
		completed := e.pollInflight(ctx)
		hasReady := e.refreshJobs()
		if len(e.inflight) == 0 && !hasReady {
			logger.Debug("No runnable or in-flight work left.")
			return nil
		}
		if dispatched == 0 && completed == 0 {
			time.Sleep(e.cfg.PollInterval)
		}
	}
}

// dispatchReady walks every job's ready frontier and dispatches each task the
// ledger admits. Tasks failing admission are left ready and reattempted on
// the next pass.
func (e *Concurrent) dispatchReady(ctx context.Context, workers *pool) int {
	logger := ctxlog.FromContext(ctx)
	dispatched := 0
	for _, id := range e.order {
		j := e.jobs[id]
		if j.Terminal() {
			continue
		}
		for _, t := range j.Graph.ReadyTasks() {
			r, err := e.resolveRunner(t)
			if err != nil {
				// No strategy for this task: record the failure and let the
				// exhaustion check fail the job.
				logger.Error("Cannot resolve runner.", "taskID", t.ID, "error", err)
				t.Status = job.TaskFailed
				t.Result = &job.Result{Err: err}
				continue
			}
			if t.Resources == nil {
				req := r.Requirements()
				t.Resources = &req
			}
			if !e.ledger.Acquire(*t.Resources) {
				logger.Debug("Admission rejected.", "taskID", t.ID, "request", t.Resources, "ledger", e.ledger)
				continue
			}
			e.beforeTask(t)
			if j.Status == job.Queued {
				j.Status = job.Running
			}
			t.Status = job.TaskRunning
			logger.Info("Dispatching task.", "jobID", j.ID, "taskID", t.ID, "request", t.Resources, "ledger", e.ledger)
			e.inflight = append(e.inflight, &inflight{job: j, task: t, handle: workers.Submit(r)})
			dispatched++
		}
	}
	return dispatched
}

// pollInflight performs a non-blocking readiness check on every in-flight
// task, applying completions: classify the result, run the after hook,
// release resources, and resolve the task in its job's graph.
func (e *Concurrent) pollInflight(ctx context.Context) int {
	logger := ctxlog.FromContext(ctx)
	completed := 0
	remaining := e.inflight[:0]
	for _, in := range e.inflight {
		if !in.handle.Poll() {
			remaining = append(remaining, in)
			continue
		}
		t := in.task
		res := in.handle.Result()
		t.Result = &res
		if res.Failed() {
			logger.Error("Task failed.", "jobID", in.job.ID, "taskID", t.ID, "error", res.Err)
			t.Status = job.TaskFailed
		} else {
			logger.Info("Task finished.", "jobID", in.job.ID, "taskID", t.ID)
			t.Status = job.TaskFinished
		}
		e.afterTask(t)
		e.ledger.Release(*t.Resources)
		if t.Status == job.TaskFinished {
			if err := in.job.Graph.ResolveTask(t); err != nil {
				logger.Error("Resolve failed.", "jobID", in.job.ID, "taskID", t.ID, "error", err)
			}
		}
		completed++
	}
	e.inflight = remaining
	return completed
}

// refreshJobs recomputes every job's aggregate status and reports whether any
// job still has a non-empty ready frontier.
func (e *Concurrent) refreshJobs() bool {
	hasReady := false
	for _, id := range e.order {
		j := e.jobs[id]
		if j.Terminal() {
			continue
		}
		if len(j.Graph.ReadyTasks()) > 0 {
			hasReady = true
			continue
		}
		j.RefreshStatus()
	}
	return hasReady
}

// Ledger exposes the resource ledger for inspection.
func (e *Concurrent) Ledger() *resources.Ledger {
	return e.ledger
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/taskgrid/internal/builder"
	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/engine"
	"github.com/vk/taskgrid/internal/job"
)

// Run loads the pipeline, builds its jobs, and executes them with the engine
// the configuration selects. It returns an error when loading or building
// fails, or when any job ends FAILED.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	model, err := a.loader.Load(ctx, cfg.PipelinePath)
	if err != nil {
		return fmt.Errorf("failed to load pipeline: %w", err)
	}

	jobs, err := builder.Build(ctx, model, a.registry)
	if err != nil {
		return fmt.Errorf("failed to build jobs: %w", err)
	}
	if len(jobs) == 0 {
		a.logger.Warn("No jobs found in pipeline, nothing to run.")
		return nil
	}

	eng := a.buildEngine(model.Engine, cfg)
	a.logger.Info("Starting execution.", "jobs", len(jobs))
	if err := eng.Run(ctx, jobs...); err != nil {
		// Per-job failures are already recorded on the jobs themselves;
		// the report below covers them.
		a.logger.Debug("Engine reported job failures.", "error", err)
	}
	a.logger.Info("Execution finished.")

	a.report(jobs)

	for _, j := range jobs {
		if j.Status == job.Failed {
			return fmt.Errorf("job %s failed: %s", j.ID, j.ErrorMessage)
		}
	}
	return nil
}

// buildEngine picks the strategy and budget: CLI flags win over the
// pipeline's engine block, and the default strategy is concurrent.
func (a *App) buildEngine(ec *config.Engine, cfg *Config) engine.Engine {
	mode := ""
	var concCfg engine.ConcurrentConfig
	if ec != nil {
		mode = ec.Mode
		concCfg = engine.ConcurrentConfig{
			CPUs:         ec.CPUs,
			RAMMB:        ec.RAMMB,
			Workers:      ec.Workers,
			PollInterval: time.Duration(ec.PollMS) * time.Millisecond,
		}
	}
	if cfg.Mode != "" {
		mode = cfg.Mode
	}
	if cfg.CPUs > 0 {
		concCfg.CPUs = cfg.CPUs
	}
	if cfg.RAMMB > 0 {
		concCfg.RAMMB = cfg.RAMMB
	}
	if cfg.Workers > 0 {
		concCfg.Workers = cfg.Workers
	}
	if cfg.PollMS > 0 {
		concCfg.PollInterval = time.Duration(cfg.PollMS) * time.Millisecond
	}

	if mode == "sequential" {
		return engine.NewSequential(a.registry, a.hooks()...)
	}
	return engine.NewConcurrent(a.registry, concCfg, a.hooks()...)
}

// hooks instruments every task dispatch and completion through the app logger.
func (a *App) hooks() []engine.Option {
	return []engine.Option{
		engine.WithBeforeTask(func(t *job.Task) {
			a.logger.Debug("Task starting.", "taskID", t.ID, "kind", t.Kind)
		}),
		engine.WithAfterTask(func(t *job.Task) {
			a.logger.Debug("Task completed.", "taskID", t.ID, "status", t.Status)
		}),
	}
}

// report prints the per-job and per-task outcome table.
func (a *App) report(jobs []*job.Job) {
	for _, j := range jobs {
		fmt.Fprintf(a.outW, "job %s: %s\n", j.ID, j.Status)
		if j.ErrorMessage != "" {
			fmt.Fprintf(a.outW, "  error: %s\n", j.ErrorMessage)
		}
		for _, t := range j.Graph.Tasks() {
			fmt.Fprintf(a.outW, "  task %s [%s]: %s\n", t.ID, t.Kind, t.Status)
			if t.Result != nil && t.Result.Err != nil {
				fmt.Fprintf(a.outW, "    failure: %v\n", t.Result.Err)
			}
		}
	}
}

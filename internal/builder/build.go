// Package builder translates the loaded pipeline model into jobs with fully
// wired task graphs, validating references before anything runs.
package builder

import (
	"context"
	"fmt"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/resources"
	"github.com/vk/taskgrid/internal/runner"
)

// Build turns every job declaration in the model into a QUEUED job. It
// rejects duplicate task IDs, dependencies on unknown tasks, dependency
// cycles, and task kinds with no registered runner.
func Build(ctx context.Context, model *config.Model, reg *runner.Registry) ([]*job.Job, error) {
	logger := ctxlog.FromContext(ctx)

	jobs := make([]*job.Job, 0, len(model.Jobs))
	seen := make(map[string]bool)
	for _, jc := range model.Jobs {
		if jc.Name == "" {
			return nil, fmt.Errorf("job name is required")
		}
		if seen[jc.Name] {
			return nil, fmt.Errorf("duplicate job name: %q", jc.Name)
		}
		seen[jc.Name] = true

		j, err := buildJob(jc, reg)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", jc.Name, err)
		}
		logger.Debug("Built job.", "jobID", j.ID, "tasks", j.Graph.Len())
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func buildJob(jc *config.Job, reg *runner.Registry) (*job.Job, error) {
	graph := job.NewGraph()
	for _, tc := range jc.Tasks {
		t, err := buildTask(tc, reg)
		if err != nil {
			return nil, err
		}
		if err := graph.Add(t); err != nil {
			return nil, err
		}
	}
	// Edges only after all tasks exist, so forward references work.
	for _, tc := range jc.Tasks {
		for _, dep := range tc.DependsOn {
			if err := graph.AddDependency(dep, tc.ID); err != nil {
				return nil, fmt.Errorf("task %q: %w", tc.ID, err)
			}
		}
	}
	if err := graph.DetectCycles(); err != nil {
		return nil, err
	}
	return job.New(jc.Name, graph), nil
}

func buildTask(tc *config.Task, reg *runner.Registry) (*job.Task, error) {
	if tc.Kind == "" {
		return nil, fmt.Errorf("task %q: kind is required", tc.ID)
	}
	if !reg.Known(tc.Kind) {
		return nil, fmt.Errorf("task %q: no runner registered for kind %q", tc.ID, tc.Kind)
	}

	var app any
	if tc.AppType != "" {
		app = runner.AppTag(tc.AppType)
	}
	t := job.NewTask(tc.ID, tc.Kind, app, tc.Arguments)

	if tc.Resources != nil {
		req, err := buildRequest(tc.Resources)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", tc.ID, err)
		}
		t.Resources = &req
	}
	return t, nil
}

func buildRequest(rc *config.Resources) (resources.Request, error) {
	if rc.MemMB < 0 {
		return resources.Request{}, fmt.Errorf("mem_mb must not be negative, got %d", rc.MemMB)
	}
	if rc.Exclusive {
		return resources.Request{CPU: resources.CPUAll, MemMB: rc.MemMB}, nil
	}
	cpu := rc.CPU
	if cpu == 0 {
		cpu = 1
	}
	if cpu < 0 {
		return resources.Request{}, fmt.Errorf("cpu must be positive, got %d", cpu)
	}
	return resources.Request{CPU: cpu, MemMB: rc.MemMB}, nil
}

package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/resources"
	"github.com/vk/taskgrid/internal/runner"
)

// stubRunner is a scripted execution strategy for one task.
type stubRunner struct {
	req resources.Request
	fn  func(ctx context.Context) (any, error)
}

func (s *stubRunner) Run(ctx context.Context) (any, error) {
	if s.fn == nil {
		return "ok", nil
	}
	return s.fn(ctx)
}

func (s *stubRunner) Requirements() resources.Request {
	if s.req.CPU == 0 {
		return resources.Request{CPU: 1}
	}
	return s.req
}

// stubRegistry resolves every "stub" task to its scripted runner by task ID.
func stubRegistry(behaviors map[string]*stubRunner) *runner.Registry {
	reg := runner.NewRegistry()
	reg.Register("stub", func(t *job.Task) (runner.Runner, error) {
		s, ok := behaviors[t.ID]
		if !ok {
			return nil, fmt.Errorf("no behavior scripted for task %q", t.ID)
		}
		return s, nil
	})
	return reg
}

// buildJob wires tasks and edges into a QUEUED job.
func buildJob(t *testing.T, id string, taskIDs []string, edges [][2]string) *job.Job {
	t.Helper()
	g := job.NewGraph()
	for _, tid := range taskIDs {
		require.NoError(t, g.Add(job.NewTask(tid, "stub", nil, nil)))
	}
	for _, e := range edges {
		require.NoError(t, g.AddDependency(e[0], e[1]))
	}
	return job.New(id, g)
}

// executionLog records task completions in order, safely across workers.
type executionLog struct {
	mu  sync.Mutex
	ids []string
}

func (l *executionLog) record(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, id)
}

func (l *executionLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ids...)
}

// concurrencyProbe tracks the peak number of simultaneously running tasks.
type concurrencyProbe struct {
	mu      sync.Mutex
	current int
	peak    int
}

func (p *concurrencyProbe) enter() {
	p.mu.Lock()
	p.current++
	if p.current > p.peak {
		p.peak = p.current
	}
	p.mu.Unlock()
}

func (p *concurrencyProbe) exit() {
	p.mu.Lock()
	p.current--
	p.mu.Unlock()
}

func (p *concurrencyProbe) max() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

// tracked wraps a behavior with the probe and a small dwell time so overlap
// is observable.
func tracked(probe *concurrencyProbe, dwell time.Duration) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		probe.enter()
		defer probe.exit()
		time.Sleep(dwell)
		return "ok", nil
	}
}

// fastConfig keeps concurrent tests snappy.
func fastConfig(cpus, ramMB int) ConcurrentConfig {
	return ConcurrentConfig{
		CPUs:         cpus,
		RAMMB:        ramMB,
		PollInterval: 2 * time.Millisecond,
	}
}

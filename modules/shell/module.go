// Package shell provides the built-in runner that executes a task as a shell
// command line.
package shell

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/resources"
	"github.com/vk/taskgrid/internal/runner"
)

// Module implements the runner.Module interface for this package.
type Module struct{}

// Register binds the "shell" kind to this runner.
func (m *Module) Register(r *runner.Registry) {
	r.Register("shell", New)
}

// Runner executes one task's command line through /bin/sh.
type Runner struct {
	task    *job.Task
	command string
	req     resources.Request
}

// New builds a shell runner from the task's arguments. Recognized arguments:
// "command" (required string), "cpu" and "mem_mb" (optional numbers, default
// 1 core / 0 MB).
func New(t *job.Task) (runner.Runner, error) {
	args, _ := t.Arguments.(map[string]any)
	command, _ := args["command"].(string)
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("task %q: shell runner requires a 'command' argument", t.ID)
	}
	return &Runner{
		task:    t,
		command: command,
		req: resources.Request{
			CPU:   intArg(args, "cpu", 1),
			MemMB: intArg(args, "mem_mb", 0),
		},
	}, nil
}

// Run executes the command and returns its combined output.
func (r *Runner) Run(ctx context.Context) (any, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", r.command)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Requirements implements runner.Runner.
func (r *Runner) Requirements() resources.Request {
	return r.req
}

// intArg reads a numeric argument, tolerating the float64 the HCL convertor
// produces for all numbers.
func intArg(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}

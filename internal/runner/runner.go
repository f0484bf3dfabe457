// Package runner defines the execution-strategy contract and the registry the
// engine uses to resolve a concrete strategy for each task.
package runner

import (
	"context"

	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/resources"
)

// Runner is the external execution strategy for a single task. A Runner is
// constructed bound to its task by a Factory and is used for exactly one run.
//
// Run performs the work and returns its result value. The engine passes its
// context through but never aborts a dispatched task; runners may honor
// cancellation on their own account.
type Runner interface {
	Run(ctx context.Context) (any, error)
	// Requirements returns the resource request to use when the task does
	// not already carry one.
	Requirements() resources.Request
}

// Factory builds a Runner bound to the given task.
type Factory func(t *job.Task) (Runner, error)

// Typed is implemented by task app references that carry an application type
// tag, enabling per-app-type runner dispatch for polymorphic task kinds.
type Typed interface {
	AppType() string
}

// AppTag is a minimal Typed implementation for apps that are nothing more
// than their type tag.
type AppTag string

// AppType implements Typed.
func (a AppTag) AppType() string { return string(a) }

// Module is implemented by packages that contribute runner factories to a
// registry at startup.
type Module interface {
	Register(r *Registry)
}

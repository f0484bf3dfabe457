package runner

import (
	"fmt"
	"log/slog"

	"github.com/vk/taskgrid/internal/job"
)

// Registry maps task kinds to runner factories. Kinds that are polymorphic
// over an application type use a nested table keyed by the app's type tag
// instead of a single factory.
//
// The registry is an explicit value constructed once at startup and passed
// into the engine; there is no process-wide registration state.
type Registry struct {
	factories map[string]Factory
	typed     map[string]map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		typed:     make(map[string]map[string]Factory),
	}
}

// Register binds a factory to a task kind. Registering the same kind twice is
// a programmer error and panics.
func (r *Registry) Register(kind string, f Factory) {
	if _, exists := r.factories[kind]; exists {
		panic(fmt.Sprintf("runner factory for kind %q already registered", kind))
	}
	if _, exists := r.typed[kind]; exists {
		panic(fmt.Sprintf("kind %q already registered as app-type polymorphic", kind))
	}
	slog.Debug("Registering runner factory.", "kind", kind)
	r.factories[kind] = f
}

// RegisterAppType binds a factory to a (kind, app type) pair for kinds whose
// execution strategy depends on the application type of the task.
func (r *Registry) RegisterAppType(kind, appType string, f Factory) {
	if _, exists := r.factories[kind]; exists {
		panic(fmt.Sprintf("kind %q already registered with a plain factory", kind))
	}
	byType, ok := r.typed[kind]
	if !ok {
		byType = make(map[string]Factory)
		r.typed[kind] = byType
	}
	if _, exists := byType[appType]; exists {
		panic(fmt.Sprintf("runner factory for kind %q app type %q already registered", kind, appType))
	}
	slog.Debug("Registering runner factory.", "kind", kind, "appType", appType)
	byType[appType] = f
}

// Known reports whether the kind has any factory registered.
func (r *Registry) Known(kind string) bool {
	if _, ok := r.factories[kind]; ok {
		return true
	}
	_, ok := r.typed[kind]
	return ok
}

// Resolve looks up the factory for the task's kind (and, for polymorphic
// kinds, its app type tag) and returns a Runner bound to the task.
func (r *Registry) Resolve(t *job.Task) (Runner, error) {
	if f, ok := r.factories[t.Kind]; ok {
		return f(t)
	}
	byType, ok := r.typed[t.Kind]
	if !ok {
		return nil, fmt.Errorf("no runner registered for task kind %q", t.Kind)
	}
	typed, ok := t.App.(Typed)
	if !ok {
		return nil, fmt.Errorf("task %q kind %q requires an app type tag", t.ID, t.Kind)
	}
	f, ok := byType[typed.AppType()]
	if !ok {
		return nil, fmt.Errorf("no runner registered for task kind %q app type %q", t.Kind, typed.AppType())
	}
	return f(t)
}

// Package config holds the format-agnostic model of a pipeline description
// and the loader interface that format-specific parsers implement.
package config

// Model is the unified representation of everything a pipeline file declares:
// engine settings plus the jobs and their task graphs.
type Model struct {
	Engine *Engine
	Jobs   []*Job
}

// Engine carries the execution settings from the `engine` block. Zero values
// mean "use the engine's defaults".
type Engine struct {
	// Mode selects the strategy: "sequential" or "concurrent".
	Mode string
	// RAMMB is the total memory budget for the concurrent engine.
	RAMMB int
	// CPUs is the total core budget; 0 means host introspection.
	CPUs int
	// Workers is the worker pool size; 0 derives it from CPUs.
	Workers int
	// PollMS is the idle poll interval in milliseconds.
	PollMS int
}

// Job is the declaration of one job and its tasks.
type Job struct {
	Name  string
	Tasks []*Task
}

// Task is the declaration of one task inside a job.
type Task struct {
	ID   string
	Kind string
	// AppType is the application type tag for kinds with per-app-type
	// runner dispatch; empty otherwise.
	AppType string
	// Arguments holds the task's invocation data with HCL expressions
	// already evaluated to native Go values.
	Arguments map[string]any
	// DependsOn lists task IDs that must finish before this task starts.
	DependsOn []string
	// Resources is nil when the task defers to its runner's requirements.
	Resources *Resources
}

// Resources is a declared resource request.
type Resources struct {
	// CPU is a positive core count. Ignored when Exclusive is set.
	CPU int
	// MemMB is the requested memory in megabytes.
	MemMB int
	// Exclusive requests every core on the machine, exclusively.
	Exclusive bool
}

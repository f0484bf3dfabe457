// Package job defines the scheduling data model: tasks, the dependency graph
// that computes which of them are ready to run, and the job that owns both.
package job

import (
	"fmt"

	"github.com/vk/taskgrid/internal/resources"
)

// TaskStatus is the lifecycle state of a single task. WAITING and READY are
// maintained by the task graph; the remaining transitions are applied only by
// the engine's control goroutine.
type TaskStatus string

const (
	TaskWaiting  TaskStatus = "WAITING"
	TaskReady    TaskStatus = "READY"
	TaskRunning  TaskStatus = "RUNNING"
	TaskFinished TaskStatus = "FINISHED"
	TaskFailed   TaskStatus = "FAILED"
)

// Result is the outcome of one task execution: either a success value or a
// captured failure, never both. Failures are data here, not control flow —
// the engine stores them and moves on.
type Result struct {
	Value any
	Err   error
}

// Failed reports whether the result captures a failure.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Task is the smallest schedulable unit of work. The engine never interprets
// App or Arguments; they are passed through to the resolved runner.
type Task struct {
	// ID is stable and unique within the owning job.
	ID string
	// Kind selects the runner factory in the registry.
	Kind string
	// App is an opaque reference to what the task executes. For kinds that
	// are polymorphic over an application type it must carry a type tag
	// (see runner.Typed).
	App any
	// Arguments is task-specific invocation data, opaque to the engine.
	Arguments any
	// Resources is nil until attached by the caller or filled from the
	// resolved runner's requirements; immutable afterwards.
	Resources *resources.Request

	Status TaskStatus
	// Result is populated exactly once, when the task reaches FINISHED or
	// FAILED. It is retained for final reporting.
	Result *Result
}

// NewTask returns a WAITING task.
func NewTask(id, kind string, app, arguments any) *Task {
	return &Task{
		ID:        id,
		Kind:      kind,
		App:       app,
		Arguments: arguments,
		Status:    TaskWaiting,
	}
}

// String implements fmt.Stringer for log output.
func (t *Task) String() string {
	return fmt.Sprintf("%s[%s/%s]", t.ID, t.Kind, t.Status)
}

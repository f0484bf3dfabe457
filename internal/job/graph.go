package job

import "fmt"

// TaskGraph is a DAG over tasks where an edge means "must finish before". It
// is owned by exactly one Job and mutated only from the engine's control
// goroutine, so it carries no locking.
//
// Frontier membership is monotonic: a task never re-enters WAITING and a
// resolved task is never revisited.
type TaskGraph struct {
	tasks map[string]*Task
	order []string // insertion order, keeps ReadyTasks deterministic

	// remaining counts each task's not-yet-finished predecessors.
	remaining map[string]int
	// dependents maps a task to the tasks that depend on it.
	dependents map[string][]string
	// deps maps a task to its predecessor set, used for duplicate-edge checks.
	deps map[string]map[string]bool

	resolved map[string]bool
}

// NewGraph returns an empty task graph.
func NewGraph() *TaskGraph {
	return &TaskGraph{
		tasks:      make(map[string]*Task),
		remaining:  make(map[string]int),
		dependents: make(map[string][]string),
		deps:       make(map[string]map[string]bool),
		resolved:   make(map[string]bool),
	}
}

// Add inserts a task into the graph. Task IDs must be unique within the graph.
func (g *TaskGraph) Add(t *Task) error {
	if t.ID == "" {
		return fmt.Errorf("task id is required")
	}
	if _, exists := g.tasks[t.ID]; exists {
		return fmt.Errorf("duplicate task id: %q", t.ID)
	}
	g.tasks[t.ID] = t
	g.order = append(g.order, t.ID)
	g.deps[t.ID] = make(map[string]bool)
	return nil
}

// AddDependency records that afterID must not start until beforeID has
// finished. Both tasks must already be in the graph; self-edges and duplicate
// edges are rejected.
func (g *TaskGraph) AddDependency(beforeID, afterID string) error {
	if beforeID == afterID {
		return fmt.Errorf("self-referential dependency not allowed: %s -> %s", beforeID, afterID)
	}
	if _, ok := g.tasks[beforeID]; !ok {
		return fmt.Errorf("dependency references unknown task: %q", beforeID)
	}
	if _, ok := g.tasks[afterID]; !ok {
		return fmt.Errorf("dependency references unknown task: %q", afterID)
	}
	if g.deps[afterID][beforeID] {
		return fmt.Errorf("duplicate dependency: %s -> %s", beforeID, afterID)
	}
	g.deps[afterID][beforeID] = true
	g.dependents[beforeID] = append(g.dependents[beforeID], afterID)
	g.remaining[afterID]++
	return nil
}

// ReadyTasks returns the current ready frontier: every task whose
// predecessors are all FINISHED and which has not itself started. Tasks are
// promoted from WAITING to READY as a side effect; tasks that previously
// failed admission stay READY and reappear here until they start running.
//
// Callers must not depend on the order for correctness, only for scheduling
// preference; it follows insertion order.
func (g *TaskGraph) ReadyTasks() []*Task {
	var ready []*Task
	for _, id := range g.order {
		t := g.tasks[id]
		if t.Status != TaskWaiting && t.Status != TaskReady {
			continue
		}
		if g.remaining[id] > 0 {
			continue
		}
		t.Status = TaskReady
		ready = append(ready, t)
	}
	return ready
}

// ResolveTask removes a FINISHED task from further frontier consideration and
// promotes any dependents whose predecessors are now all satisfied. Resolving
// the same task twice is a no-op.
func (g *TaskGraph) ResolveTask(t *Task) error {
	if _, ok := g.tasks[t.ID]; !ok {
		return fmt.Errorf("task %q is not in this graph", t.ID)
	}
	if t.Status != TaskFinished {
		return fmt.Errorf("cannot resolve task %q with status %s", t.ID, t.Status)
	}
	if g.resolved[t.ID] {
		return nil
	}
	g.resolved[t.ID] = true
	for _, dep := range g.dependents[t.ID] {
		g.remaining[dep]--
	}
	return nil
}

// Tasks returns all tasks in insertion order.
func (g *TaskGraph) Tasks() []*Task {
	out := make([]*Task, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.tasks[id])
	}
	return out
}

// Task returns the task with the given ID, or nil.
func (g *TaskGraph) Task(id string) *Task {
	return g.tasks[id]
}

// Len returns the number of tasks in the graph.
func (g *TaskGraph) Len() int {
	return len(g.tasks)
}

// RunningCount returns how many tasks are currently RUNNING.
func (g *TaskGraph) RunningCount() int {
	n := 0
	for _, t := range g.tasks {
		if t.Status == TaskRunning {
			n++
		}
	}
	return n
}

// AllFinished reports whether every task reached FINISHED.
func (g *TaskGraph) AllFinished() bool {
	for _, t := range g.tasks {
		if t.Status != TaskFinished {
			return false
		}
	}
	return true
}

// DetectCycles checks the dependency structure for cycles. It returns a
// non-nil error naming a task involved in the first cycle found.
func (g *TaskGraph) DetectCycles() error {
	// Classic depth-first search with a permanent set for fully visited
	// tasks and a temporary set for the current recursion stack.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("dependency cycle detected involving task %q", id)
		}
		temporary[id] = true
		for _, dep := range g.dependents[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, id := range g.order {
		if !permanent[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

package job

import "fmt"

// Status is the aggregate lifecycle state of a job.
type Status string

const (
	Queued   Status = "QUEUED"
	Running  Status = "RUNNING"
	Finished Status = "FINISHED"
	Failed   Status = "FAILED"
)

// Job is a named collection of tasks plus the graph that orders them.
//
// Status invariant: FINISHED iff every task in the graph reached FINISHED;
// FAILED iff the graph is exhausted (no ready, no running) and at least one
// task is not FINISHED.
type Job struct {
	ID     string
	Status Status
	// ErrorMessage is set alongside a FAILED status, derived from the first
	// failing task.
	ErrorMessage string
	Graph        *TaskGraph
}

// New returns a QUEUED job owning the given graph.
func New(id string, graph *TaskGraph) *Job {
	return &Job{
		ID:     id,
		Status: Queued,
		Graph:  graph,
	}
}

// RefreshStatus recomputes the aggregate status. It is a no-op while the job
// still has ready or running tasks, and never demotes a terminal status.
func (j *Job) RefreshStatus() {
	if j.Status == Finished || j.Status == Failed {
		return
	}
	if len(j.Graph.ReadyTasks()) > 0 || j.Graph.RunningCount() > 0 {
		return
	}
	if j.Graph.AllFinished() {
		j.Status = Finished
		return
	}
	j.Status = Failed
	if j.ErrorMessage == "" {
		for _, t := range j.Graph.Tasks() {
			if t.Status == TaskFailed && t.Result != nil {
				j.ErrorMessage = fmt.Sprintf("task %s failed: %v", t.ID, t.Result.Err)
				break
			}
		}
	}
}

// Terminal reports whether the job reached FINISHED or FAILED.
func (j *Job) Terminal() bool {
	return j.Status == Finished || j.Status == Failed
}

// String implements fmt.Stringer for log output.
func (j *Job) String() string {
	return fmt.Sprintf("%s[%d tasks, %s]", j.ID, j.Graph.Len(), j.Status)
}

// Package job tracks background and stopped process groups and bridges
// asynchronous child-state notifications to the rest of the shell.
package job

import "sync"

// State is the lifecycle state of a job. Done is terminal.
type State int

const (
	Running State = iota
	Stopped
	Done
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Job records one pipeline's process group.
type Job struct {
	// ID is assigned by the table, starting at 1, never reused.
	ID int
	// Pgid is the process group id, equal to the leader's pid.
	Pgid int
	// Command is the original command line text.
	Command string
	State   State
}

// Table owns all jobs. It performs no process-control syscalls; it is
// bookkeeping driven by the signal bridge and the fg/bg builtins.
//
// Accessors return value copies so the bridge's watcher goroutine and
// the main loop never share Job pointers.
type Table struct {
	mu     sync.Mutex
	jobs   []Job
	nextID int
}

func NewTable() *Table {
	return &Table{nextID: 1}
}

// Add records a new job and returns it with its assigned id.
func (t *Table) Add(pgid int, command string, state State) Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	j := Job{ID: t.nextID, Pgid: pgid, Command: command, State: state}
	t.nextID++
	t.jobs = append(t.jobs, j)
	return j
}

// ByID looks up a job by its id.
func (t *Table) ByID(id int) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return Job{}, false
}

// ByPgid looks up a job by its process group id.
func (t *Table) ByPgid(pgid int) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.Pgid == pgid {
			return j, true
		}
	}
	return Job{}, false
}

// SetState transitions the job with the given id.
// It reports whether the job existed.
func (t *Table) SetState(id int, state State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.jobs {
		if t.jobs[i].ID == id {
			t.jobs[i].State = state
			return true
		}
	}
	return false
}

// SetStateByPgid transitions the job owning the given process group.
func (t *Table) SetStateByPgid(pgid int, state State) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.jobs {
		if t.jobs[i].Pgid == pgid {
			t.jobs[i].State = state
			return t.jobs[i], true
		}
	}
	return Job{}, false
}

// Jobs returns a snapshot of all jobs in creation order.
func (t *Table) Jobs() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Job, len(t.jobs))
	copy(out, t.jobs)
	return out
}

// RunningCount returns the number of jobs in state Running.
func (t *Table) RunningCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, j := range t.jobs {
		if j.State == Running {
			n++
		}
	}
	return n
}

// ReapDone removes all Done jobs and returns them. This is the only
// point entries are freed; it runs as a maintenance sweep at the top of
// each read-eval iteration and after listing jobs, so a finished job
// stays visible for at least one more iteration.
func (t *Table) ReapDone() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	var reaped, kept []Job
	for _, j := range t.jobs {
		if j.State == Done {
			reaped = append(reaped, j)
		} else {
			kept = append(kept, j)
		}
	}
	t.jobs = kept
	return reaped
}

package jobs

import (
	"errors"
	"fmt"
	"time"
)

// State represents the lifecycle state of a crew job. The values mirror the
// states exposed by the results endpoint.
type State string

const (
	StatePending  State = "PENDING"
	StateStarted  State = "STARTED"
	StateProgress State = "PROGRESS"
	StateSuccess  State = "SUCCESS"
	StateFailure  State = "FAILURE"
)

// rank orders states for monotonicity checks. Terminal states share the top
// rank because a job reaches exactly one of them.
var rank = map[State]int{
	StatePending:  0,
	StateStarted:  1,
	StateProgress: 2,
	StateSuccess:  3,
	StateFailure:  3,
}

// Rank returns the position of the state in the lifecycle ordering.
func (s State) Rank() int {
	return rank[s]
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// Progress is the last checkpoint recorded by the runner.
type Progress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
}

// Error captures a pipeline failure: the error kind, its message and a
// diagnostic trace.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Trace   string `json:"trace"`
}

// Job represents one crew pipeline execution.
type Job struct {
	ID          string    `json:"id"`
	Domain      string    `json:"domain"`
	Description string    `json:"description"`
	State       State     `json:"state"`
	Progress    *Progress `json:"progress,omitempty"`
	Result      string    `json:"result,omitempty"`
	Error       *Error    `json:"error,omitempty"`
	Log         string    `json:"log,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// String returns a string representation of the job.
func (j *Job) String() string {
	return fmt.Sprintf("Job{ID: %s, Domain: %s, State: %s}", j.ID, j.Domain, j.State)
}

// Store defines the queue-backend operations needed by the manager. The
// server and worker share no memory; all coordination goes through a Store.
type Store interface {
	Create(job *Job) error
	Get(id string) (*Job, error)
	Update(job *Job) error
	// ClaimPending atomically moves the oldest pending job to STARTED and
	// returns it, or returns nil when no job is claimable.
	ClaimPending() (*Job, error)
	List() ([]*Job, error)
}

// ErrNotFound is returned by Store.Get for unknown job ids.
var ErrNotFound = errors.New("job not found")

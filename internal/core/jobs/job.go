package jobs

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// JobID is a value object representing a review job identifier
type JobID struct {
	value string
}

// NewJobID creates a new JobID with validation
func NewJobID(value string) (JobID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return JobID{}, fmt.Errorf("job ID cannot be empty")
	}
	return JobID{value: value}, nil
}

// Value returns the string value of the JobID
func (j JobID) Value() string { return j.value }

// String implements the Stringer interface
func (j JobID) String() string { return j.value }

// State represents the lifecycle state of a review job
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// ParseState parses a state reported by the backend
func ParseState(s string) (State, error) {
	st := State(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatePending, StateProcessing, StateCompleted, StateFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job state: %q", s)
}

// IsTerminal reports whether no further transitions can happen
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

func (s State) rank() int {
	switch s {
	case StatePending:
		return 0
	case StateProcessing:
		return 1
	default:
		return 2
	}
}

// Status is one observation of a job
type Status struct {
	ID        JobID
	State     State
	Message   string
	Result    string
	UpdatedAt time.Time
}

// Job tracks the observed lifecycle of one submitted review job.
type Job struct {
	mu          sync.RWMutex
	id          JobID
	tool        string
	state       State
	submittedAt time.Time
	finishedAt  *time.Time
	history     []Status
}

// NewJob creates a job in the pending state
func NewJob(id JobID, tool string, submittedAt time.Time) *Job {
	return &Job{
		id:          id,
		tool:        tool,
		state:       StatePending,
		submittedAt: submittedAt,
	}
}

// ID returns the job ID
func (j *Job) ID() JobID { return j.id }

// Tool returns the tool the job was submitted for
func (j *Job) Tool() string { return j.tool }

// State returns the last observed state
func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// History returns every accepted observation in order
func (j *Job) History() []Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]Status(nil), j.history...)
}

// Duration returns time from submission to completion, or until now
func (j *Job) Duration() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.finishedAt != nil {
		return j.finishedAt.Sub(j.submittedAt)
	}
	return time.Since(j.submittedAt)
}

// Observe records a status. States only move forward and nothing follows a
// terminal state.
func (j *Job) Observe(st Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state.IsTerminal() {
		if st.State == j.state {
			return nil
		}
		return fmt.Errorf("job %s already %s, cannot move to %s", j.id, j.state, st.State)
	}
	if st.State.rank() < j.state.rank() {
		return fmt.Errorf("job %s cannot move from %s back to %s", j.id, j.state, st.State)
	}

	j.state = st.State
	j.history = append(j.history, st)
	if st.State.IsTerminal() {
		at := st.UpdatedAt
		if at.IsZero() {
			at = time.Now()
		}
		j.finishedAt = &at
	}
	return nil
}

package runner

import (
	"fmt"
	"time"

	"github.com/optqo/optqo/logging"
)

// RunState represents the current state of a pipeline run.
type RunState int

const (
	// RunStateIdle indicates no pipeline is running.
	RunStateIdle RunState = iota
	// RunStateRunning indicates a pipeline is in progress.
	RunStateRunning
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	switch s {
	case RunStateIdle:
		return "idle"
	case RunStateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s RunState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *RunState) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"running"`:
		*s = RunStateRunning
	case `"idle"`:
		*s = RunStateIdle
	default:
		return fmt.Errorf("unknown run state %s", data)
	}
	return nil
}

// RunSummary identifies one pipeline run and its outcome.
type RunSummary struct {
	// ID uniquely identifies the run, derived from its start time.
	ID string `json:"id"`
	// Context is the analysis context the pipeline ran under.
	Context string `json:"context,omitempty"`
	// Target is the target spec the run was asked to analyze.
	Target string `json:"target"`
	// StartedAt is when the run started. Nil if no run has occurred.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// EndedAt is when the run ended. Nil while in progress.
	EndedAt *time.Time `json:"ended_at,omitempty"`
	// Outcome is the pipeline outcome (success or failure). Empty when
	// the run never reached the pipeline.
	Outcome string `json:"outcome,omitempty"`
	// Complete reports whether every declared step was dispatched.
	Complete bool `json:"complete"`
	// Error contains the error message if the run failed before or
	// outside the pipeline. Empty on success.
	Error string `json:"error,omitempty"`
}

// CalculateID derives the run's ID from its start time.
func (s RunSummary) CalculateID() string {
	if s.StartedAt == nil {
		return "pending"
	}
	return s.StartedAt.Format("20060102T150405")
}

// StepExecution is one activity's execution within a run, with its
// captured logs.
type StepExecution struct {
	Activity string          `json:"activity"`
	Outcome  string          `json:"outcome,omitempty"`
	Status   string          `json:"status,omitempty"`
	Error    string          `json:"error,omitempty"`
	Logs     []logging.Entry `json:"logs,omitempty"`
}

// RunStatus is the full view of the current or last run.
type RunStatus struct {
	// State is the current state of the run.
	State RunState `json:"state"`

	RunSummary

	// Steps holds per-activity executions. Live while the run is in
	// progress, final afterwards.
	Steps []StepExecution `json:"steps,omitempty"`
}

// runRecord is the persisted form of a completed run.
type runRecord struct {
	RunSummary
	Steps []StepExecution `json:"steps,omitempty"`
}

package runner

// StateStore manages persistence of run history.
type StateStore interface {
	// History returns all runs as summaries, most recent first.
	History() []RunSummary
	// Logs returns the step executions for a specific run.
	Logs(id string) []StepExecution
	// Save persists a completed run.
	Save(summary RunSummary, steps []StepExecution) error
}

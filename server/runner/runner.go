// Package runner manages pipeline run execution for the optqo daemon.
//
// The runner handles:
//   - Starting pipeline runs in the background
//   - Preventing concurrent runs
//   - Tracking current run status with live log capture
//   - Maintaining history of completed runs
//
// Each run builds a fresh engine from the current configuration,
// ensuring config changes take effect on the next run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/optqo/optqo/activity"
	"github.com/optqo/optqo/engine"
	"github.com/optqo/optqo/logging"
	"github.com/optqo/optqo/pipeline"
	"github.com/optqo/optqo/report"
)

// runLogKey is the collector key every run's records are captured
// under; entries are partitioned by their "activity" attribute when
// step executions are built.
const runLogKey = "run"

// ErrRunInProgress is returned when attempting to start a run while one is already running.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// EngineBuilder builds an engine from the current configuration. The
// supplied logger becomes the engine's logger so the run's records can
// be captured.
type EngineBuilder interface {
	BuildEngine(logger *slog.Logger) (*engine.Engine, error)
}

// RunRequest asks for one pipeline run.
type RunRequest struct {
	// Context names the analysis context to initialize for the run.
	// Empty selects the configured default.
	Context string `json:"context,omitempty"`
	// Target is the target spec to analyze.
	Target string `json:"target"`
	// StopOnError skips remaining steps after the first failure.
	StopOnError bool `json:"stop_on_error,omitempty"`
}

// Runner manages pipeline run execution.
type Runner struct {
	logger  *slog.Logger
	builder EngineBuilder
	store   StateStore

	mu        sync.Mutex
	status    RunStatus
	collector *logging.Collector
	statuses  *activity.StatusHandler
	result    *pipeline.Result
	payload   *report.Payload
}

// Option configures a Runner.
type Option func(*Runner)

// WithStateStore configures the runner to use the provided store for persistence.
func WithStateStore(store StateStore) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// New creates a new Runner.
func New(logger *slog.Logger, builder EngineBuilder, opts ...Option) *Runner {
	r := &Runner{
		logger:  logger,
		builder: builder,
		store:   NewMemoryStore(),
		status:  RunStatus{State: RunStateIdle},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run starts a pipeline run in the background.
// Returns ErrRunInProgress if a run is already in progress.
func (r *Runner) Run(req RunRequest) error {
	if req.Target == "" {
		return fmt.Errorf("target is required")
	}
	if !r.tryStart(req) {
		return ErrRunInProgress
	}

	r.logger.Info("starting pipeline run", "target", req.Target, "context", req.Context)

	go func() {
		r.finish(r.executeRun(context.Background(), req))
	}()

	return nil
}

// Status returns the current run status. While a run is in progress
// the steps reflect live activity statuses and captured logs; when
// idle, the last completed run.
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := r.status
	if r.status.State == RunStateRunning {
		status.Steps = r.buildStepsLocked()
	}
	return status
}

// IsRunning returns true if a pipeline run is in progress.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status.State == RunStateRunning
}

// History returns the history of completed runs, most recent first.
func (r *Runner) History() []RunSummary {
	return r.store.History()
}

// Logs returns the step executions recorded for a completed run.
func (r *Runner) Logs(id string) []StepExecution {
	return r.store.Logs(id)
}

// LastReport returns the aggregated payload from the last completed
// pipeline, or nil if no pipeline has finished yet.
func (r *Runner) LastReport() *report.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.payload == nil {
		return nil
	}
	p := *r.payload
	return &p
}

// tryStart attempts to transition from idle to running.
func (r *Runner) tryStart(req RunRequest) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status.State == RunStateRunning {
		return false
	}

	now := time.Now()
	r.status = RunStatus{
		State: RunStateRunning,
		RunSummary: RunSummary{
			Context:   req.Context,
			Target:    req.Target,
			StartedAt: &now,
		},
	}
	r.collector = nil
	r.statuses = nil
	r.result = nil
	r.payload = nil
	return true
}

// finish transitions from running to idle and records the result.
func (r *Runner) finish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	endTime := time.Now()
	duration := endTime.Sub(*r.status.StartedAt)

	r.status.State = RunStateIdle
	r.status.EndedAt = &endTime

	if err != nil {
		r.status.Error = err.Error()
		r.logger.Error("pipeline run failed", "error", err, "duration", duration)
	} else {
		r.status.Error = ""
		r.logger.Info("pipeline run completed", "duration", duration)
	}

	if r.result != nil {
		r.status.Outcome = string(r.result.Outcome)
		r.status.Complete = r.result.Complete
	}
	r.status.Steps = r.buildStepsLocked()
	r.status.ID = r.status.CalculateID()

	if serr := r.store.Save(r.status.RunSummary, r.status.Steps); serr != nil {
		r.logger.Error("failed to save run to store", "error", serr)
	}
}

func (r *Runner) executeRun(ctx context.Context, req RunRequest) error {
	collector := logging.NewCollector()
	runLogger := logging.CaptureLogger(r.logger, collector, runLogKey)

	eng, err := r.builder.BuildEngine(runLogger)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	active, err := eng.Initialize(req.Context)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.collector = collector
	r.statuses = eng.Status()
	r.status.Context = active.Name
	r.mu.Unlock()

	payload, res, err := eng.RunPipeline(ctx, req.Target, req.StopOnError)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.result = &res
	r.payload = &payload
	r.mu.Unlock()

	if path, err := eng.WriteReport(payload); err != nil {
		r.logger.Warn("failed to write report", "error", err)
	} else {
		r.logger.Info("report written", "path", path)
	}

	return nil
}

// buildStepsLocked combines pipeline results, live statuses and
// captured logs into step executions. Callers must hold r.mu.
func (r *Runner) buildStepsLocked() []StepExecution {
	logs := r.groupLogsLocked()

	var statuses map[string]string
	if r.statuses != nil {
		statuses = r.statuses.All()
	}

	if r.result != nil {
		steps := make([]StepExecution, 0, len(r.result.Steps))
		for _, st := range r.result.Steps {
			steps = append(steps, StepExecution{
				Activity: st.Name,
				Outcome:  string(st.Outcome),
				Status:   statuses[st.Name],
				Error:    st.ErrorDetail,
				Logs:     logs[st.Name],
			})
		}
		return steps
	}

	// The run is still in flight; report what the status handler has
	// seen so far.
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	steps := make([]StepExecution, 0, len(names))
	for _, name := range names {
		steps = append(steps, StepExecution{
			Activity: name,
			Status:   statuses[name],
			Logs:     logs[name],
		})
	}
	return steps
}

// groupLogsLocked partitions the run's captured records by their
// "activity" attribute. Records without one belong to the run itself
// and are dropped from step views.
func (r *Runner) groupLogsLocked() map[string][]logging.Entry {
	if r.collector == nil {
		return nil
	}

	grouped := make(map[string][]logging.Entry)
	for _, entry := range r.collector.Logs(runLogKey) {
		name, ok := entry.Attributes["activity"].(string)
		if !ok {
			continue
		}
		grouped[name] = append(grouped[name], entry)
	}
	return grouped
}

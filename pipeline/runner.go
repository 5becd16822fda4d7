package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/optqo/optqo/activity"
	"github.com/optqo/optqo/session"
)

// ErrNotEnabled is returned when an activity is valid but not permitted
// under the active context. This is a hard policy gate checked before
// dispatch, not a soft warning.
var ErrNotEnabled = errors.New("activity not enabled in active context")

// StepResult pairs an activity name with its execution result. Steps are
// kept in pipeline order.
type StepResult struct {
	Name string `json:"name"`
	activity.Result
}

// Result is the outcome of one pipeline invocation.
type Result struct {
	// Context and Template identify the context the pipeline ran under,
	// captured when the run started.
	Context  string `json:"context"`
	Template string `json:"template"`

	// Target is the local path the activities ran against.
	Target string `json:"target"`

	// Steps holds one entry per enabled activity, in declared order.
	Steps []StepResult `json:"steps"`

	// Outcome is success iff every executed step succeeded. Skipped
	// steps do not count against success; they clear Complete instead.
	Outcome activity.Outcome `json:"outcome"`

	// Complete is false when stop-on-error skipped any step, so callers
	// can tell "all that ran succeeded" from "everything ran".
	Complete bool `json:"complete"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Failed returns the number of failed steps.
func (r Result) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == activity.OutcomeFailure {
			n++
		}
	}
	return n
}

// Options carries per-run settings.
type Options struct {
	// Output is the destination directory for step artifacts.
	Output string

	// StopOnError halts the pipeline after the first failing step and
	// marks unexecuted steps as skipped. The default is to continue past
	// failures so one broken analysis does not block the others.
	StopOnError bool

	// Params is forwarded to every activity; declared defaults fill in
	// unset keys per activity.
	Params map[string]string
}

// Metrics receives execution observations. Implemented by
// metrics.PipelineMetrics; nil disables recording.
type Metrics interface {
	ObserveActivity(name string, outcome activity.Outcome, d time.Duration)
	ObservePipeline(contextName string, outcome activity.Outcome, d time.Duration)
}

// Runner executes single activities and pipelines under the active
// context's enabled-activity policy.
//
// The runner reads the active context exactly once at the start of each
// call and uses that snapshot throughout, so a concurrent context switch
// only affects runs started afterwards.
type Runner struct {
	sessions *session.Manager
	registry *activity.Registry
	logger   *slog.Logger

	// stepTimeout bounds each activity execution. Zero means unbounded,
	// matching the historical behavior; a hung handle then blocks the
	// rest of the pipeline.
	stepTimeout time.Duration

	status  *activity.StatusHandler
	metrics Metrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger.With("component", "pipeline")
	}
}

// WithStepTimeout bounds each activity execution. Zero disables the
// bound.
func WithStepTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.stepTimeout = d
	}
}

// WithStatusHandler publishes per-step progress to the handler for live
// display.
func WithStatusHandler(sh *activity.StatusHandler) Option {
	return func(r *Runner) {
		r.status = sh
	}
}

// WithMetrics records step and pipeline observations.
func WithMetrics(m Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a Runner over the given session manager and registry.
func NewRunner(sessions *session.Manager, registry *activity.Registry, opts ...Option) *Runner {
	r := &Runner{
		sessions: sessions,
		registry: registry,
		logger:   slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunActivity executes one activity against target.
//
// It fails with ErrNotEnabled when the activity is not in the active
// context's allowlist (checked before dispatch), with
// activity.ErrNotFound when the name is allowlisted but unbound (a
// configuration inconsistency), and with session.ErrNotInitialized when
// no context is active. An error returned by the handle itself never
// propagates: it is converted into a failure Result.
func (r *Runner) RunActivity(ctx context.Context, name, target string, opts Options) (activity.Result, error) {
	cur, err := r.sessions.Current()
	if err != nil {
		return activity.Result{}, err
	}

	if !cur.Enabled(name) {
		return activity.Result{}, fmt.Errorf("%w: %q under context %q", ErrNotEnabled, name, cur.Name)
	}

	desc, err := r.registry.Resolve(name)
	if err != nil {
		// Allowlisted but unbound: the catalog and registry disagree.
		return activity.Result{}, fmt.Errorf("context %q enables unbound activity: %w", cur.Name, err)
	}

	return r.runStep(ctx, cur.Name, string(cur.Depth), desc, target, opts), nil
}

// RunPipeline executes every activity the active context enables, in
// declared order, against target.
//
// The active context is captured once at the start; it governs the whole
// run even if the session is switched concurrently. The only error
// return is session.ErrNotInitialized; step failures are collected in
// the Result, never thrown.
func (r *Runner) RunPipeline(ctx context.Context, target string, opts Options) (Result, error) {
	cur, err := r.sessions.Current()
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	res := Result{
		Context:   cur.Name,
		Template:  cur.OutputTemplate,
		Target:    target,
		Steps:     make([]StepResult, 0, len(cur.EnabledActivities)),
		Outcome:   activity.OutcomeSuccess,
		Complete:  true,
		StartedAt: start,
	}

	r.logger.Info("pipeline started",
		"context", cur.Name,
		"target", target,
		"steps", len(cur.EnabledActivities),
		"stop_on_error", opts.StopOnError,
	)

	stopped := false
	for _, name := range cur.EnabledActivities {
		if stopped {
			r.setStatus(name, "skipped")
			res.Steps = append(res.Steps, StepResult{
				Name:   name,
				Result: activity.Result{Outcome: activity.OutcomeSkipped},
			})
			res.Complete = false
			continue
		}

		var step activity.Result
		if desc, err := r.registry.Resolve(name); err != nil {
			// A binding that disappeared between load and run is
			// contained as a step failure so the rest of the report
			// can still be produced.
			step = activity.Result{
				Outcome:     activity.OutcomeFailure,
				ErrorDetail: err.Error(),
			}
		} else {
			step = r.runStep(ctx, cur.Name, string(cur.Depth), desc, target, opts)
		}

		res.Steps = append(res.Steps, StepResult{Name: name, Result: step})
		if step.Outcome == activity.OutcomeFailure {
			res.Outcome = activity.OutcomeFailure
			if opts.StopOnError {
				stopped = true
			}
		}
	}

	res.Duration = time.Since(start)

	r.logger.Info("pipeline finished",
		"context", cur.Name,
		"outcome", res.Outcome,
		"complete", res.Complete,
		"failed_steps", res.Failed(),
		"duration", res.Duration,
	)

	if r.metrics != nil {
		r.metrics.ObservePipeline(cur.Name, res.Outcome, res.Duration)
	}

	return res, nil
}

// runStep dispatches one activity and converts any handle error into a
// failure Result. A failing activity never crashes the orchestrator.
func (r *Runner) runStep(ctx context.Context, contextName, depth string, desc activity.Descriptor, target string, opts Options) activity.Result {
	stepLogger := r.logger.With("activity", desc.Name, "context", contextName)

	if r.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.stepTimeout)
		defer cancel()
	}

	actOpts := activity.Options{
		Output: opts.Output,
		Depth:  depth,
		Params: mergeParams(desc.Options, opts.Params),
	}

	r.setStatus(desc.Name, "running")
	stepLogger.Debug("activity dispatched", "target", target, "depth", depth)

	start := time.Now()
	result, err := desc.Handle.Execute(ctx, target, actOpts)
	elapsed := time.Since(start)

	if err != nil {
		stepLogger.Error("activity failed", "error", err, "duration", elapsed)
		r.setStatus(desc.Name, "failed: "+err.Error())
		result = activity.Result{
			Outcome:     activity.OutcomeFailure,
			ErrorDetail: err.Error(),
		}
	} else {
		stepLogger.Info("activity completed", "outcome", result.Outcome, "duration", elapsed)
		r.setStatus(desc.Name, "completed")
	}

	if r.metrics != nil {
		r.metrics.ObserveActivity(desc.Name, result.Outcome, elapsed)
	}

	return result
}

func (r *Runner) setStatus(name, status string) {
	if r.status != nil {
		r.status.Set(name, status)
	}
}

// mergeParams overlays caller params on the activity's declared defaults.
func mergeParams(specs map[string]activity.OptionSpec, params map[string]string) map[string]string {
	merged := make(map[string]string, len(specs)+len(params))
	for name, spec := range specs {
		if spec.Default != "" {
			merged[name] = spec.Default
		}
	}
	for name, value := range params {
		merged[name] = value
	}
	return merged
}

// Package engine assembles the analysis stack from a configuration:
// catalog, sessions, registry, fetcher, runner and metrics. The CLI
// and the daemon both build an Engine and drive it.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/optqo/optqo/activity"
	"github.com/optqo/optqo/builtin"
	"github.com/optqo/optqo/catalog"
	"github.com/optqo/optqo/config"
	"github.com/optqo/optqo/fetch"
	"github.com/optqo/optqo/logging"
	"github.com/optqo/optqo/metrics"
	"github.com/optqo/optqo/pipeline"
	"github.com/optqo/optqo/report"
	"github.com/optqo/optqo/session"
)

// Engine wires the context catalog, session state and activity
// execution behind one façade.
type Engine struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *activity.Registry
	sessions *session.Manager
	status   *activity.StatusHandler
	fetcher  *fetch.Fetcher
	runner   *pipeline.Runner
}

// Option configures an Engine under construction.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	metrics  pipeline.Metrics
	registry *activity.Registry
}

// WithLogger replaces the logger built from the config's logging
// section.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics replaces the push metrics built from the config's
// monitoring section. The daemon uses this to record into its scrape
// registry instead.
func WithMetrics(m pipeline.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRegistry supplies a pre-populated activity registry. The
// built-in activities are not added to a supplied registry.
func WithRegistry(r *activity.Registry) Option {
	return func(o *options) { o.registry = r }
}

// New builds an Engine from cfg. The context catalog is loaded and
// validated against the activity registry; a catalog that fails
// validation rejects the whole engine.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("building logger: %w", err)
		}
	}

	registry := o.registry
	if registry == nil {
		registry = activity.NewRegistry()
		if err := builtin.Register(registry); err != nil {
			return nil, fmt.Errorf("registering built-in activities: %w", err)
		}
	}

	store, err := catalog.Load(cfg.Catalog, registry)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(store, cfg.DefaultContext, session.WithLogger(logger))
	status := activity.NewStatusHandler()

	pm := o.metrics
	if pm == nil && cfg.Monitoring.URL != "" {
		reg := metrics.NewPushRegistry(metrics.PushConfig{
			URL:    cfg.Monitoring.URL,
			Prefix: cfg.Monitoring.MetricsPrefix,
			Job:    cfg.Monitoring.JobName,
		})
		pm, err = metrics.NewPipelineMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("building metrics: %w", err)
		}
	}

	runnerOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithStatusHandler(status),
	}
	if cfg.Behavior.ActivityTimeout > 0 {
		runnerOpts = append(runnerOpts, pipeline.WithStepTimeout(cfg.Behavior.ActivityTimeout))
	}
	if pm != nil {
		runnerOpts = append(runnerOpts, pipeline.WithMetrics(pm))
	}

	fetchOpts := []fetch.Option{fetch.WithLogger(logger)}
	if cfg.Fetch.GitBinary != "" {
		fetchOpts = append(fetchOpts, fetch.WithGitBinary(cfg.Fetch.GitBinary))
	}
	if cfg.Fetch.SSHKey != "" {
		fetchOpts = append(fetchOpts, fetch.WithSSHKey(cfg.Fetch.SSHKey))
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		sessions: sessions,
		status:   status,
		fetcher:  fetch.New(cfg.Workspace, fetchOpts...),
		runner:   pipeline.NewRunner(sessions, registry, runnerOpts...),
	}, nil
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Sessions exposes the session manager for context operations.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Registry exposes the activity registry.
func (e *Engine) Registry() *activity.Registry { return e.registry }

// Status exposes the live per-activity status map.
func (e *Engine) Status() *activity.StatusHandler { return e.status }

// Initialize activates the named context, or the configured default
// when name is empty.
func (e *Engine) Initialize(name string) (catalog.Context, error) {
	return e.sessions.Initialize(name)
}

// RunActivity resolves targetSpec and executes one enabled activity
// against it. Acquisition failures short-circuit before dispatch.
func (e *Engine) RunActivity(ctx context.Context, name, targetSpec string, params map[string]string) (activity.Result, error) {
	target, err := e.fetcher.Resolve(ctx, targetSpec)
	if err != nil {
		return activity.Result{}, err
	}
	return e.runner.RunActivity(ctx, name, target, pipeline.Options{
		Output: e.cfg.Output,
		Params: params,
	})
}

// RunPipeline resolves targetSpec, executes the active context's full
// pipeline and aggregates the outcome into a renderer payload.
// stopOnError layers on top of the configured behavior section.
func (e *Engine) RunPipeline(ctx context.Context, targetSpec string, stopOnError bool) (report.Payload, pipeline.Result, error) {
	target, err := e.fetcher.Resolve(ctx, targetSpec)
	if err != nil {
		return report.Payload{}, pipeline.Result{}, err
	}
	res, err := e.runner.RunPipeline(ctx, target, pipeline.Options{
		Output:      e.cfg.Output,
		StopOnError: stopOnError || e.cfg.Behavior.StopOnError,
	})
	if err != nil {
		return report.Payload{}, pipeline.Result{}, err
	}
	return report.Aggregate(res), res, nil
}

// WriteReport persists a pipeline payload into the configured output
// directory and returns the file path.
func (e *Engine) WriteReport(p report.Payload) (string, error) {
	return report.Write(p, e.cfg.Output)
}

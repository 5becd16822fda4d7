// Package server provides the HTTP daemon for the optqo analysis
// engine.
//
// The server exposes a REST API to manage analysis contexts, execute
// activities and pipelines, and inspect run history.
//
// # Endpoints
//
//   - GET /health - Simple health check, returns "ok"
//   - GET /contexts - List catalog contexts and the active one
//   - POST /initialize - Initialize a session with a context
//   - POST /context - Switch the active context
//   - POST /run - Execute one activity synchronously
//   - POST /pipeline - Start a background pipeline run
//   - GET /status - Current or last run status with live logs
//   - GET /history - History of completed runs
//   - GET /history/logs?id= - Step executions for one run
//   - GET /report - Last aggregated pipeline report
//   - POST /reload - Reload configuration from disk
//   - GET /metrics - Prometheus scrape endpoint
//
// # Architecture
//
// The server maintains two sets of dependencies:
//
// Server-level deps (config and engine) are swapped atomically on
// reload and serve the session and single-activity endpoints.
//
// Run-level deps are created fresh for each pipeline run from the
// current config, ensuring configuration changes take effect on the
// next run without interrupting any in-progress pipeline.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/optqo/optqo/config"
	"github.com/optqo/optqo/engine"
	"github.com/optqo/optqo/logging"
	"github.com/optqo/optqo/metrics"
	"github.com/optqo/optqo/server/cron"
	"github.com/optqo/optqo/server/handlers"
	"github.com/optqo/optqo/server/runner"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// serverDeps holds config-derived dependencies that are swapped atomically on reload.
type serverDeps struct {
	config *config.Config
	engine *engine.Engine
}

// Server is the HTTP daemon for the optqo analysis engine.
type Server struct {
	addr            string
	configPath      string
	logger          *slog.Logger
	deps            atomic.Pointer[serverDeps]
	httpServer      *http.Server
	runner          *runner.Runner
	cronTrigger     *cron.Trigger
	scrape          *metrics.ScrapeRegistry
	pipelineMetrics *metrics.PipelineMetrics
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr overrides the listen address from the config's
// server section.
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// New creates a new Server from the config at configPath.
// It loads the configuration and initializes all dependencies.
func New(configPath string, opts ...Option) (*Server, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	scrape, err := metrics.NewScrapeRegistry()
	if err != nil {
		return nil, fmt.Errorf("creating metrics registry: %w", err)
	}
	pm, err := metrics.NewPipelineMetrics(scrape)
	if err != nil {
		return nil, fmt.Errorf("registering pipeline metrics: %w", err)
	}

	s := &Server{
		addr:            cfg.Server.Addr,
		configPath:      configPath,
		logger:          logger,
		scrape:          scrape,
		pipelineMetrics: pm,
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	store, err := runner.NewDiskStore(cfg.Server.StateDir, cfg.Server.HistoryMax, logger)
	if err != nil {
		return nil, err
	}
	s.runner = runner.New(logger, s, runner.WithStateStore(store))

	if cfg.Server.Cron != "" {
		trigger, err := cron.NewTrigger(cfg.Server.Cron, cron.RunFunc(s.scheduledRun), logger)
		if err != nil {
			return nil, fmt.Errorf("creating cron trigger: %w", err)
		}
		s.cronTrigger = trigger
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Reload reads the config from disk and rebuilds server dependencies.
// The active context carries over when the reloaded catalog still
// contains it.
func (s *Server) Reload() error {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg,
		engine.WithLogger(s.logger),
		engine.WithMetrics(s.pipelineMetrics),
	)
	if err != nil {
		return err
	}

	if prev := s.deps.Load(); prev != nil {
		if current, err := prev.engine.Sessions().Current(); err == nil {
			if _, err := eng.Initialize(current.Name); err != nil {
				s.logger.Warn("active context dropped from reloaded catalog",
					"context", current.Name, "error", err)
			}
		}
	}

	s.deps.Store(&serverDeps{
		config: &cfg,
		engine: eng,
	})

	s.logger.Info("configuration loaded", "config_path", s.configPath)

	return nil
}

// Config returns the current configuration.
func (s *Server) Config() *config.Config {
	return s.deps.Load().config
}

// Engine returns the current engine.
func (s *Server) Engine() *engine.Engine {
	return s.deps.Load().engine
}

// BuildEngine builds a fresh engine from the current configuration
// with the supplied logger. The run-level runner uses it so each
// pipeline run picks up config changes and captures its own logs.
func (s *Server) BuildEngine(logger *slog.Logger) (*engine.Engine, error) {
	return engine.New(*s.Config(),
		engine.WithLogger(logger),
		engine.WithMetrics(s.pipelineMetrics),
	)
}

// NextRun returns the next scheduled run time, or nil if no cron is configured.
func (s *Server) NextRun() *time.Time {
	if s.cronTrigger == nil {
		return nil
	}
	next := s.cronTrigger.NextRun()
	return &next
}

// Status returns the current run status by delegating to the runner.
func (s *Server) Status() runner.RunStatus {
	return s.runner.Status()
}

// scheduledRun starts a pipeline run against the configured cron
// target.
func (s *Server) scheduledRun() error {
	cfg := s.Config()
	return s.runner.Run(runner.RunRequest{
		Target:      cfg.Server.CronTarget,
		StopOnError: cfg.Behavior.StopOnError,
	})
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
// If a cron trigger is configured, it will be started automatically.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	if s.cronTrigger != nil {
		s.logger.Info("starting cron trigger",
			"next_run", s.cronTrigger.NextRun(),
		)
		s.cronTrigger.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.addr,
			"config_path", s.configPath,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /contexts", handlers.NewContextsHandler(s))
	mux.Handle("POST /initialize", handlers.NewInitializeHandler(s))
	mux.Handle("POST /context", handlers.NewSwitchHandler(s))
	mux.Handle("POST /run", handlers.NewRunHandler(s))
	mux.Handle("POST /pipeline", handlers.NewPipelineHandler(s.runner))
	mux.Handle("GET /status", handlers.NewStatusHandler(s.runner))
	mux.Handle("GET /history", handlers.NewHistoryHandler(s.runner))
	mux.Handle("GET /history/logs", handlers.NewHistoryLogsHandler(s.runner))
	mux.Handle("GET /report", handlers.NewReportHandler(s.runner))
	mux.Handle("POST /reload", handlers.NewReloadHandler(s.logger, s))
	mux.Handle("GET /metrics", s.scrape.Handler())
}

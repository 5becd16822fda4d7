// Package handlers provides HTTP handlers for the optqo daemon.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"github.com/optqo/optqo/engine"
	"github.com/optqo/optqo/report"
	"github.com/optqo/optqo/server/runner"
)

// EngineProvider provides access to the current engine. The engine is
// rebuilt on reload, so handlers fetch it per request.
type EngineProvider interface {
	Engine() *engine.Engine
}

// PipelineStarter can start background pipeline runs.
type PipelineStarter interface {
	Run(req runner.RunRequest) error
}

// RunStatusProvider provides access to the current run status.
type RunStatusProvider interface {
	Status() runner.RunStatus
}

// HistoryProvider provides access to run history.
type HistoryProvider interface {
	History() []runner.RunSummary
	Logs(id string) []runner.StepExecution
}

// ReportProvider provides access to the last aggregated report.
type ReportProvider interface {
	LastReport() *report.Payload
}

// Reloader can reload its configuration.
type Reloader interface {
	Reload() error
}

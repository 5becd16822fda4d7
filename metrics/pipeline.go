package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/optqo/optqo/activity"
)

// PipelineMetrics records orchestration observations. It satisfies
// pipeline.Metrics and works over either registry mode.
type PipelineMetrics struct {
	pipelineRuns     CounterVec
	pipelineDuration GaugeVec
	activityRuns     CounterVec
	activityDuration GaugeVec
}

// NewPipelineMetrics creates and registers the engine's metrics.
func NewPipelineMetrics(reg Registry) (*PipelineMetrics, error) {
	pipelineRuns, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Pipeline runs by context and outcome.",
	}, []string{"context", "outcome"})
	if err != nil {
		return nil, fmt.Errorf("creating pipeline_runs_total: %w", err)
	}

	pipelineDuration, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pipeline_duration_seconds",
		Help: "Duration of the most recent pipeline run per context.",
	}, []string{"context"})
	if err != nil {
		return nil, fmt.Errorf("creating pipeline_duration_seconds: %w", err)
	}

	activityRuns, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_runs_total",
		Help: "Activity executions by activity and outcome.",
	}, []string{"activity", "outcome"})
	if err != nil {
		return nil, fmt.Errorf("creating activity_runs_total: %w", err)
	}

	activityDuration, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "activity_duration_seconds",
		Help: "Duration of the most recent execution per activity.",
	}, []string{"activity"})
	if err != nil {
		return nil, fmt.Errorf("creating activity_duration_seconds: %w", err)
	}

	return &PipelineMetrics{
		pipelineRuns:     pipelineRuns,
		pipelineDuration: pipelineDuration,
		activityRuns:     activityRuns,
		activityDuration: activityDuration,
	}, nil
}

// ObserveActivity records one activity execution.
func (m *PipelineMetrics) ObserveActivity(name string, outcome activity.Outcome, d time.Duration) {
	m.activityRuns.With(prometheus.Labels{"activity": name, "outcome": string(outcome)}).Inc()
	m.activityDuration.With(prometheus.Labels{"activity": name}).Set(d.Seconds())
}

// ObservePipeline records one pipeline run.
func (m *PipelineMetrics) ObservePipeline(contextName string, outcome activity.Outcome, d time.Duration) {
	m.pipelineRuns.With(prometheus.Labels{"context": contextName, "outcome": string(outcome)}).Inc()
	m.pipelineDuration.With(prometheus.Labels{"context": contextName}).Set(d.Seconds())
}

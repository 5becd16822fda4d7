// Package report folds a pipeline result into the payload handed to the
// external renderer.
//
// The aggregator derives lightweight cross-activity aggregates (failure
// counts, the concatenated artifact list) without reinterpreting what
// any individual activity measured: it does not know what "analyze"
// means, only that it produced a result.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/optqo/optqo/activity"
	"github.com/optqo/optqo/pipeline"
)

// StepReport is the renderer-facing view of one pipeline step.
type StepReport struct {
	Name      string         `json:"name"`
	Outcome   string         `json:"outcome"`
	Summary   map[string]any `json:"summary,omitempty"`
	Artifacts []string       `json:"artifacts,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Payload is the report-ready structure consumed by the renderer
// together with the context's output template.
type Payload struct {
	Context  string `json:"context"`
	Template string `json:"template"`
	Target   string `json:"target"`

	Outcome  string `json:"outcome"`
	Complete bool   `json:"complete"`

	TotalSteps int `json:"total_steps"`
	Executed   int `json:"executed"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`

	// Artifacts concatenates every step's artifact references in
	// pipeline order.
	Artifacts []string `json:"artifacts,omitempty"`

	Steps []StepReport `json:"steps"`

	StartedAt       time.Time `json:"started_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Aggregate builds the renderer payload from a pipeline result.
//
// It is a pure function and total: a malformed step result (an outcome
// value outside the known set) is treated as a failure with a synthetic
// error message instead of propagating, since this stage sits just
// before hand-off to a renderer the caller cannot easily recover from
// mid-render. Partial results (Complete=false) are aggregated like any
// other; the payload carries the flag so the renderer can badge the
// report as partial.
func Aggregate(res pipeline.Result) Payload {
	p := Payload{
		Context:         res.Context,
		Template:        res.Template,
		Target:          res.Target,
		Outcome:         string(res.Outcome),
		Complete:        res.Complete,
		TotalSteps:      len(res.Steps),
		Steps:           make([]StepReport, 0, len(res.Steps)),
		StartedAt:       res.StartedAt,
		DurationSeconds: res.Duration.Seconds(),
		GeneratedAt:     time.Now().UTC(),
	}

	if !activity.Outcome(p.Outcome).Valid() {
		p.Outcome = string(activity.OutcomeFailure)
	}

	for _, step := range res.Steps {
		sr := StepReport{
			Name:      step.Name,
			Outcome:   string(step.Outcome),
			Summary:   step.Summary,
			Artifacts: step.Artifacts,
			Error:     step.ErrorDetail,
		}

		if !step.Outcome.Valid() {
			sr.Outcome = string(activity.OutcomeFailure)
			sr.Summary = nil
			sr.Error = fmt.Sprintf("activity %q returned a malformed result (outcome %q)", step.Name, step.Outcome)
			p.Outcome = string(activity.OutcomeFailure)
		}

		switch activity.Outcome(sr.Outcome) {
		case activity.OutcomeSuccess:
			p.Executed++
			p.Succeeded++
		case activity.OutcomeFailure:
			p.Executed++
			p.Failed++
		case activity.OutcomeSkipped:
			p.Skipped++
		}

		p.Artifacts = append(p.Artifacts, sr.Artifacts...)
		p.Steps = append(p.Steps, sr)
	}

	return p
}

// Write serializes the payload as indented JSON under dir and returns
// the file path. The external renderer picks it up from there.
func Write(p Payload, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report payload: %w", err)
	}

	name := fmt.Sprintf("report_%s.json", p.StartedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing report payload: %w", err)
	}
	return path, nil
}

package activity

import "context"

// Outcome classifies how an activity execution ended.
type Outcome string

const (
	// OutcomeSuccess indicates the activity ran and completed without error.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure indicates the activity ran and reported an error.
	OutcomeFailure Outcome = "failure"

	// OutcomeSkipped indicates the activity never ran because an earlier
	// pipeline step failed under stop-on-error policy. Skipped results
	// carry no summary.
	OutcomeSkipped Outcome = "skipped"
)

// Valid reports whether o is one of the known outcome values.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomeSkipped:
		return true
	}
	return false
}

// Result is the structured outcome of a single activity execution.
type Result struct {
	// Outcome classifies the execution.
	Outcome Outcome `json:"outcome"`

	// Summary maps named metrics to values, e.g. {"files_seen": 3}.
	// Nil for skipped steps.
	Summary map[string]any `json:"summary,omitempty"`

	// Artifacts lists paths or identifiers produced by the activity.
	// Artifact contents are owned by the external renderer.
	Artifacts []string `json:"artifacts,omitempty"`

	// ErrorDetail holds the failure message when Outcome is failure.
	ErrorDetail string `json:"error,omitempty"`
}

// Options carries the per-invocation settings passed to a handle.
type Options struct {
	// Output is the destination directory for artifacts.
	Output string

	// Depth echoes the active context's analysis depth
	// (shallow, standard or deep).
	Depth string

	// Params holds activity-specific options. Declared defaults from the
	// activity's Descriptor are filled in before dispatch.
	Params map[string]string
}

// Param returns the named parameter, or def if unset.
func (o Options) Param(name, def string) string {
	if v, ok := o.Params[name]; ok {
		return v
	}
	return def
}

// Handle is the capability contract every activity implements.
//
// IMPLEMENTATION CONTRACT:
//   - Execute must not assume any other activity ran first.
//   - Execute must be safely re-runnable: repeated runs against an
//     unchanged target produce structurally identical summaries.
//   - Execute treats the target as read-only and writes only under
//     opts.Output.
//   - Return an error for failures; the pipeline converts it into a
//     failure Result. Handles must not panic across this boundary.
type Handle interface {
	Execute(ctx context.Context, target string, opts Options) (Result, error)
}

// HandleFunc adapts a plain function to the Handle interface.
type HandleFunc func(ctx context.Context, target string, opts Options) (Result, error)

// Execute implements Handle.
func (f HandleFunc) Execute(ctx context.Context, target string, opts Options) (Result, error) {
	return f(ctx, target, opts)
}

// OptionSpec documents a single option an activity recognizes.
type OptionSpec struct {
	// Description explains the option's effect.
	Description string

	// Default is applied to Options.Params when the caller left the
	// option unset. Empty means no default.
	Default string
}

// Descriptor binds an activity name to its handle and declared options.
type Descriptor struct {
	// Name is the unique registry key, e.g. "analyze".
	Name string

	// Description is a short human-readable summary.
	Description string

	// Handle performs the work.
	Handle Handle

	// Options declares the options this activity recognizes, keyed by
	// option name.
	Options map[string]OptionSpec
}

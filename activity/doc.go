// Package activity defines the capability contract between the
// orchestration engine and the units of work it dispatches.
//
// An activity is a single named, independently invocable capability
// (e.g. "analyze") bound in a Registry at process start. Activities are
// looked up by name at run time, which keeps them late-bound: adding a
// capability means registering another Descriptor, not changing control
// flow.
//
// # Registration
//
//	reg := activity.NewRegistry()
//	err := reg.Register(activity.Descriptor{
//	    Name:        "analyze",
//	    Description: "static file census of the target",
//	    Handle:      analyzeHandle,
//	    Options: map[string]activity.OptionSpec{
//	        "max_files": {Description: "walk limit", Default: "50000"},
//	    },
//	})
//
// Registration of an already-bound name fails with ErrDuplicate: the
// registry is populated exactly once at startup, so a duplicate means a
// wiring bug rather than a recoverable condition.
//
// # Execution contract
//
// Handles receive a target (a local path, possibly produced by target
// acquisition) and Options, and return a Result. Activities must not
// depend on other activities having run, must be re-runnable against a
// read-only view of the target, and must report failures through the
// returned error rather than panicking.
//
// # Status reporting
//
// StatusLine/StatusHandler provide progress text for live display,
// following the writer/handler split of log/slog: the pipeline runner
// writes step transitions through a StatusLine and the server reads the
// StatusHandler while a run is in flight.
package activity

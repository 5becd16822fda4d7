// Package pipeline executes activities against a target under the
// active context's enabled-activity policy.
//
// # Execution model
//
// A pipeline is the ordered sequence of activities the active context
// enables, run strictly one after another against a single target. The
// order comes from the context's configuration, never from runtime
// analysis: later steps may read files earlier steps wrote under the
// output directory, and ordering is the only dependency mechanism the
// engine offers.
//
// The active context is captured once when a run starts. A concurrent
// context switch (a second CLI invocation, a second HTTP request) only
// affects runs started afterwards; the in-flight run completes under the
// context it started with.
//
// # Failure policy
//
// By default the pipeline continues past a failing step, collecting the
// failure and running the remaining steps, which favors report
// completeness over fail-fast. With Options.StopOnError the pipeline
// halts after the first failure and records the unexecuted steps as
// skipped; the Result's Complete flag is cleared so callers can
// distinguish "all that ran succeeded" from "everything ran".
//
// Errors returned by activity handles are always contained: they become
// failure results inside the step that produced them and are reported,
// not thrown. Only usage errors (session.ErrNotInitialized, ErrNotEnabled,
// activity.ErrNotFound) cross the call boundary, and
// those are returned to the immediate caller without affecting any other
// step.
//
// # Timeouts
//
// The engine historically placed no bound on activity execution; a hung
// handle blocks the remainder of the pipeline. WithStepTimeout adds an
// opt-in per-step bound. There is no default value.
package pipeline

package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optqo/optqo/activity"
	"github.com/optqo/optqo/catalog"
	"github.com/optqo/optqo/session"
)

// countingHandle records invocations and returns a fixed result.
type countingHandle struct {
	calls   atomic.Int64
	result  activity.Result
	err     error
	lastOpt activity.Options
}

func (h *countingHandle) Execute(ctx context.Context, target string, opts activity.Options) (activity.Result, error) {
	h.calls.Add(1)
	h.lastOpt = opts
	return h.result, h.err
}

func successHandle(summary map[string]any) *countingHandle {
	return &countingHandle{
		result: activity.Result{Outcome: activity.OutcomeSuccess, Summary: summary},
	}
}

type fixture struct {
	registry *activity.Registry
	sessions *session.Manager
	analyze  *countingHandle
	optimize *countingHandle
	document *countingHandle
}

// newFixture wires a registry with analyze/optimize/document handles and a
// catalog with a three-step and a two-step context.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		registry: activity.NewRegistry(),
		analyze:  successHandle(map[string]any{"files_seen": 3}),
		optimize: successHandle(map[string]any{"rewrites": 0}),
		document: successHandle(map[string]any{"pages_written": 1}),
	}

	require.NoError(t, f.registry.Register(activity.Descriptor{Name: "analyze", Handle: f.analyze}))
	require.NoError(t, f.registry.Register(activity.Descriptor{Name: "optimize", Handle: f.optimize}))
	require.NoError(t, f.registry.Register(activity.Descriptor{
		Name:   "document",
		Handle: f.document,
		Options: map[string]activity.OptionSpec{
			"format": {Description: "artifact format", Default: "markdown"},
		},
	}))

	store, err := catalog.New([]catalog.Context{
		{
			Name:              "general-analyst",
			EnabledActivities: []string{"analyze", "document"},
			Depth:             catalog.DepthStandard,
		},
		{
			Name:              "full-pass",
			EnabledActivities: []string{"analyze", "optimize", "document"},
			Depth:             catalog.DepthDeep,
		},
	}, f.registry)
	require.NoError(t, err)

	f.sessions = session.NewManager(store, "general-analyst")
	return f
}

func TestRunActivity_Success(t *testing.T) {
	f := newFixture(t)
	_, err := f.sessions.Initialize("")
	require.NoError(t, err)

	r := NewRunner(f.sessions, f.registry)
	res, err := r.RunActivity(context.Background(), "analyze", "/some/path", Options{})
	require.NoError(t, err)

	assert.Equal(t, activity.OutcomeSuccess, res.Outcome)
	assert.Equal(t, map[string]any{"files_seen": 3}, res.Summary)
	assert.Equal(t, int64(1), f.analyze.calls.Load())
	assert.Equal(t, "standard", f.analyze.lastOpt.Depth, "depth echoes the context")
}

func TestRunActivity_NotEnabledGatesBeforeDispatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.sessions.Initialize("general-analyst")
	require.NoError(t, err)

	r := NewRunner(f.sessions, f.registry)
	_, err = r.RunActivity(context.Background(), "optimize", "/some/path", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotEnabled)
	assert.Equal(t, int64(0), f.optimize.calls.Load(), "handle must not be invoked")
}

func TestRunActivity_NotInitialized(t *testing.T) {
	f := newFixture(t)

	r := NewRunner(f.sessions, f.registry)
	_, err := r.RunActivity(context.Background(), "analyze", "/some/path", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrNotInitialized)
}

func TestRunActivity_AllowlistedButUnbound(t *testing.T) {
	f := newFixture(t)

	// Build a catalog entry naming an activity the registry never bound.
	// The subset invariant normally rejects this at load; skipping the
	// check simulates a catalog/registry drift.
	store, err := catalog.New([]catalog.Context{
		{Name: "drifted", EnabledActivities: []string{"vanished"}},
	}, nil)
	require.NoError(t, err)
	sessions := session.NewManager(store, "drifted")
	_, err = sessions.Initialize("")
	require.NoError(t, err)

	r := NewRunner(sessions, f.registry)
	_, err = r.RunActivity(context.Background(), "vanished", "/some/path", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, activity.ErrNotFound)
}

func TestRunActivity_HandleErrorBecomesFailureResult(t *testing.T) {
	f := newFixture(t)
	f.analyze.err = errors.New("parse explosion")
	_, err := f.sessions.Initialize("")
	require.NoError(t, err)

	r := NewRunner(f.sessions, f.registry)
	res, err := r.RunActivity(context.Background(), "analyze", "/some/path", Options{})
	require.NoError(t, err, "handle errors are contained, not propagated")

	assert.Equal(t, activity.OutcomeFailure, res.Outcome)
	assert.Equal(t, "parse explosion", res.ErrorDetail)
}

func TestRunPipeline_AllSucceed(t *testing.T) {
	f := newFixture(t)
	_, err := f.sessions.Initialize("general-analyst")
	require.NoError(t, err)

	r := NewRunner(f.sessions, f.registry)
	res, err := r.RunPipeline(context.Background(), "/some/path", Options{})
	require.NoError(t, err)

	require.Len(t, res.Steps, 2)
	assert.Equal(t, "analyze", res.Steps[0].Name)
	assert.Equal(t, map[string]any{"files_seen": 3}, res.Steps[0].Summary)
	assert.Equal(t, "document", res.Steps[1].Name)
	assert.Equal(t, map[string]any{"pages_written": 1}, res.Steps[1].Summary)

	assert.Equal(t, activity.OutcomeSuccess, res.Outcome)
	assert.True(t, res.Complete)
	assert.Equal(t, "general-analyst", res.Context)
	assert.GreaterOrEqual(t, res.Duration, time.Duration(0))
}

func TestRunPipeline_ContinuesPastFailure(t *testing.T) {
	f := newFixture(t)
	f.optimize.err = errors.New("rewrite blew up")
	_, err := f.sessions.Initialize("full-pass")
	require.NoError(t, err)

	r := NewRunner(f.sessions, f.registry)
	res, err := r.RunPipeline(context.Background(), "/some/path", Options{})
	require.NoError(t, err)

	require.Len(t, res.Steps, 3)
	assert.Equal(t, activity.OutcomeSuccess, res.Steps[0].Outcome)
	assert.Equal(t, activity.OutcomeFailure, res.Steps[1].Outcome)
	assert.Equal(t, "rewrite blew up", res.Steps[1].ErrorDetail)
	assert.Equal(t, activity.OutcomeSuccess, res.Steps[2].Outcome, "step 3 runs despite step 2 failing")
	assert.Equal(t, int64(1), f.document.calls.Load())

	assert.Equal(t, activity.OutcomeFailure, res.Outcome)
	assert.True(t, res.Complete, "every step executed")
	assert.Equal(t, 1, res.Failed())
}

func TestRunPipeline_StopOnError(t *testing.T) {
	f := newFixture(t)
	f.optimize.err = errors.New("rewrite blew up")
	_, err := f.sessions.Initialize("full-pass")
	require.NoError(t, err)

	r := NewRunner(f.sessions, f.registry)
	res, err := r.RunPipeline(context.Background(), "/some/path", Options{StopOnError: true})
	require.NoError(t, err)

	require.Len(t, res.Steps, 3)
	assert.Equal(t, activity.OutcomeSuccess, res.Steps[0].Outcome)
	assert.Equal(t, activity.OutcomeFailure, res.Steps[1].Outcome)
	assert.Equal(t, activity.OutcomeSkipped, res.Steps[2].Outcome)
	assert.Nil(t, res.Steps[2].Summary, "skipped steps carry no summary")
	assert.Equal(t, int64(0), f.document.calls.Load(), "skipped step never dispatched")

	assert.Equal(t, activity.OutcomeFailure, res.Outcome)
	assert.False(t, res.Complete)
}

func TestRunPipeline_CapturedContextSurvivesSwitch(t *testing.T) {
	f := newFixture(t)
	_, err := f.sessions.Initialize("full-pass")
	require.NoError(t, err)

	// The first step switches the session mid-pipeline; remaining steps
	// must still run under the captured context.
	switching := activity.HandleFunc(func(ctx context.Context, target string, opts activity.Options) (activity.Result, error) {
		_, err := f.sessions.Switch("general-analyst")
		return activity.Result{Outcome: activity.OutcomeSuccess}, err
	})

	registry := activity.NewRegistry()
	require.NoError(t, registry.Register(activity.Descriptor{Name: "analyze", Handle: switching}))
	require.NoError(t, registry.Register(activity.Descriptor{Name: "optimize", Handle: f.optimize}))
	require.NoError(t, registry.Register(activity.Descriptor{Name: "document", Handle: f.document}))

	r := NewRunner(f.sessions, registry)
	res, err := r.RunPipeline(context.Background(), "/some/path", Options{})
	require.NoError(t, err)

	require.Len(t, res.Steps, 3, "full-pass order governs the whole run")
	assert.Equal(t, "full-pass", res.Context)
	assert.Equal(t, int64(1), f.optimize.calls.Load())

	cur, err := f.sessions.Current()
	require.NoError(t, err)
	assert.Equal(t, "general-analyst", cur.Name, "switch takes effect for later runs")
}

func TestRunPipeline_Idempotent(t *testing.T) {
	f := newFixture(t)
	_, err := f.sessions.Initialize("general-analyst")
	require.NoError(t, err)

	r := NewRunner(f.sessions, f.registry)
	first, err := r.RunPipeline(context.Background(), "/some/path", Options{})
	require.NoError(t, err)
	second, err := r.RunPipeline(context.Background(), "/some/path", Options{})
	require.NoError(t, err)

	// Registered activities are idempotent over a read-only target, so
	// back-to-back runs produce structurally identical summaries.
	require.Len(t, second.Steps, len(first.Steps))
	for i := range first.Steps {
		assert.Equal(t, first.Steps[i].Summary, second.Steps[i].Summary)
	}
}

func TestRunPipeline_DeclaredDefaultsApplied(t *testing.T) {
	f := newFixture(t)
	_, err := f.sessions.Initialize("general-analyst")
	require.NoError(t, err)

	r := NewRunner(f.sessions, f.registry)
	_, err = r.RunPipeline(context.Background(), "/some/path", Options{
		Params: map[string]string{"extra": "1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "markdown", f.document.lastOpt.Params["format"], "declared default filled in")
	assert.Equal(t, "1", f.document.lastOpt.Params["extra"])
}

func TestRunPipeline_StatusHandlerUpdated(t *testing.T) {
	f := newFixture(t)
	f.optimize.err = errors.New("rewrite blew up")
	_, err := f.sessions.Initialize("full-pass")
	require.NoError(t, err)

	sh := activity.NewStatusHandler()
	r := NewRunner(f.sessions, f.registry, WithStatusHandler(sh))
	_, err = r.RunPipeline(context.Background(), "/some/path", Options{StopOnError: true})
	require.NoError(t, err)

	assert.Equal(t, "completed", sh.Get("analyze"))
	assert.Equal(t, "failed: rewrite blew up", sh.Get("optimize"))
	assert.Equal(t, "skipped", sh.Get("document"))
}

type recordingMetrics struct {
	activities int
	pipelines  int
}

func (m *recordingMetrics) ObserveActivity(string, activity.Outcome, time.Duration) { m.activities++ }
func (m *recordingMetrics) ObservePipeline(string, activity.Outcome, time.Duration) { m.pipelines++ }

func TestRunPipeline_MetricsObserved(t *testing.T) {
	f := newFixture(t)
	_, err := f.sessions.Initialize("general-analyst")
	require.NoError(t, err)

	m := &recordingMetrics{}
	r := NewRunner(f.sessions, f.registry, WithMetrics(m))
	_, err = r.RunPipeline(context.Background(), "/some/path", Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, m.activities)
	assert.Equal(t, 1, m.pipelines)
}

func TestRunPipeline_NotInitialized(t *testing.T) {
	f := newFixture(t)

	r := NewRunner(f.sessions, f.registry)
	_, err := r.RunPipeline(context.Background(), "/some/path", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrNotInitialized)
}

func TestRunStep_TimeoutBoundsHungHandle(t *testing.T) {
	hang := activity.HandleFunc(func(ctx context.Context, target string, opts activity.Options) (activity.Result, error) {
		<-ctx.Done()
		return activity.Result{}, ctx.Err()
	})

	registry := activity.NewRegistry()
	require.NoError(t, registry.Register(activity.Descriptor{Name: "analyze", Handle: hang}))

	store, err := catalog.New([]catalog.Context{
		{Name: "hangy", EnabledActivities: []string{"analyze"}},
	}, registry)
	require.NoError(t, err)
	sessions := session.NewManager(store, "hangy")
	_, err = sessions.Initialize("")
	require.NoError(t, err)

	r := NewRunner(sessions, registry, WithStepTimeout(20*time.Millisecond))

	done := make(chan Result, 1)
	go func() {
		res, _ := r.RunPipeline(context.Background(), "/some/path", Options{})
		done <- res
	}()

	select {
	case res := <-done:
		require.Len(t, res.Steps, 1)
		assert.Equal(t, activity.OutcomeFailure, res.Steps[0].Outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not respect the step timeout")
	}
}

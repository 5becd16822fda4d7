// Package cron provides cron-based scheduling for triggering pipeline
// runs.
//
// The Trigger type wraps a Runnable and executes it according to a
// cron schedule. It is designed to be started once and run until the
// context is cancelled.
package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSpec is returned when the cron specification cannot be parsed.
var ErrInvalidSpec = errors.New("invalid cron spec")

// Runnable is implemented by anything that can be triggered by the scheduler.
type Runnable interface {
	Run() error
}

// RunFunc adapts a plain function to the Runnable interface.
type RunFunc func() error

// Run implements Runnable.
func (f RunFunc) Run() error { return f() }

// Trigger executes a Runnable according to a cron schedule.
type Trigger struct {
	spec     string
	schedule cron.Schedule
	runnable Runnable
	logger   *slog.Logger
}

// NewTrigger creates a Trigger from a standard 5-field cron spec
// (minute, hour, day, month, weekday).
// Returns ErrInvalidSpec if the specification cannot be parsed.
func NewTrigger(spec string, runnable Runnable, logger *slog.Logger) (*Trigger, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidSpec, err)
	}

	return &Trigger{
		spec:     spec,
		schedule: schedule,
		runnable: runnable,
		logger:   logger,
	}, nil
}

// Start launches a goroutine that triggers runs according to the cron schedule.
// Returns immediately. The goroutine exits when ctx is cancelled.
func (t *Trigger) Start(ctx context.Context) {
	go t.loop(ctx)
}

// NextRun returns the next scheduled run time from now.
func (t *Trigger) NextRun() time.Time {
	return t.schedule.Next(time.Now())
}

func (t *Trigger) loop(ctx context.Context) {
	for {
		nextRun := t.schedule.Next(time.Now())
		waitDuration := time.Until(nextRun)

		t.logger.Debug("waiting for next scheduled run",
			"next_run", nextRun,
			"wait_duration", waitDuration,
		)

		select {
		case <-ctx.Done():
			t.logger.Info("cron trigger shutting down")
			return
		case <-time.After(waitDuration):
			t.executeRun()
		}
	}
}

func (t *Trigger) executeRun() {
	t.logger.Info("starting scheduled pipeline run")

	if err := t.runnable.Run(); err != nil {
		t.logger.Warn("scheduled run not started", "error", err)
	} else {
		t.logger.Info("scheduled run started")
	}
}

package activity

import (
	"log/slog"
	"sync"
)

// StatusHandler stores the latest status message per activity name.
// It is the shared storage behind StatusLine, analogous to slog.Handler:
// status lines write, the server reads for live run display.
type StatusHandler struct {
	mu       sync.RWMutex
	statuses map[string]string
}

// NewStatusHandler creates an empty status handler.
func NewStatusHandler() *StatusHandler {
	return &StatusHandler{
		statuses: make(map[string]string),
	}
}

// Set updates the status for an activity.
func (sh *StatusHandler) Set(name, status string) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.statuses[name] = status
}

// Get returns the current status for an activity, or "" if none.
func (sh *StatusHandler) Get(name string) string {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.statuses[name]
}

// All returns a copy of all activity statuses.
func (sh *StatusHandler) All() map[string]string {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	out := make(map[string]string, len(sh.statuses))
	for k, v := range sh.statuses {
		out[k] = v
	}
	return out
}

// StatusLine reports status for one activity: each message is logged with
// the activity name attached and stored in the handler if one is present.
type StatusLine struct {
	logger  *slog.Logger
	handler *StatusHandler
	name    string
}

// NewStatusLine creates a status line bound to an activity name.
// The handler may be nil, in which case messages are only logged.
func NewStatusLine(name string, logger *slog.Logger, handler *StatusHandler) *StatusLine {
	return &StatusLine{
		logger:  logger,
		handler: handler,
		name:    name,
	}
}

// Set records the activity's current status.
func (sl *StatusLine) Set(status string) {
	sl.logger.Info(status, "activity", sl.name)
	if sl.handler != nil {
		sl.handler.Set(sl.name, status)
	}
}

package handlers

import "net/http"

// StatusHandler handles requests for the current run status.
type StatusHandler struct {
	provider RunStatusProvider
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(provider RunStatusProvider) *StatusHandler {
	return &StatusHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.Status())
}

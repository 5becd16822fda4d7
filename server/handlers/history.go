package handlers

import "net/http"

// HistoryHandler handles requests for the run history.
type HistoryHandler struct {
	provider HistoryProvider
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(provider HistoryProvider) *HistoryHandler {
	return &HistoryHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.History())
}

// HistoryLogsHandler handles requests for the step executions of a
// specific run.
type HistoryLogsHandler struct {
	provider HistoryProvider
}

// NewHistoryLogsHandler creates a new HistoryLogsHandler.
func NewHistoryLogsHandler(provider HistoryProvider) *HistoryLogsHandler {
	return &HistoryLogsHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *HistoryLogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "missing run id",
			Kind:  "bad_request",
		})
		return
	}

	steps := h.provider.Logs(id)
	if steps == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "no run with id " + id,
			Kind:  "not_found",
		})
		return
	}

	writeJSON(w, http.StatusOK, steps)
}

package handlers

import (
	"net/http"

	"github.com/optqo/optqo/activity"
)

// RunRequest defines the request body for POST /run.
type RunRequest struct {
	Activity string            `json:"activity"`
	Target   string            `json:"target"`
	Params   map[string]string `json:"params,omitempty"`
}

// RunResponse wraps a single activity execution result.
type RunResponse struct {
	Activity string          `json:"activity"`
	Result   activity.Result `json:"result"`
}

// RunHandler handles requests to execute one activity synchronously.
type RunHandler struct {
	provider EngineProvider
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(provider EngineProvider) *RunHandler {
	return &RunHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Activity == "" || req.Target == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "activity and target are required",
			Kind:  "bad_request",
		})
		return
	}

	result, err := h.provider.Engine().RunActivity(r.Context(), req.Activity, req.Target, req.Params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{Activity: req.Activity, Result: result})
}

package handlers

import (
	"net/http"

	"github.com/optqo/optqo/server/runner"
)

// PipelineHandler handles requests to start a background pipeline run.
type PipelineHandler struct {
	starter PipelineStarter
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(starter PipelineStarter) *PipelineHandler {
	return &PipelineHandler{starter: starter}
}

// ServeHTTP implements http.Handler.
func (h *PipelineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req runner.RunRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Target == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "target is required",
			Kind:  "bad_request",
		})
		return
	}

	if err := h.starter.Run(req); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

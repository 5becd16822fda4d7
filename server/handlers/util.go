package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/optqo/optqo/activity"
	"github.com/optqo/optqo/catalog"
	"github.com/optqo/optqo/config"
	"github.com/optqo/optqo/fetch"
	"github.com/optqo/optqo/pipeline"
	"github.com/optqo/optqo/server/runner"
	"github.com/optqo/optqo/session"
)

// ErrorResponse is returned when an error occurs. Kind lets clients
// distinguish failure classes without parsing messages.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError maps err onto an HTTP status and error kind.
func writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, activity.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, pipeline.ErrNotEnabled):
		return http.StatusForbidden, "not_enabled"
	case errors.Is(err, session.ErrNotInitialized):
		return http.StatusConflict, "not_initialized"
	case errors.Is(err, runner.ErrRunInProgress):
		return http.StatusConflict, "run_in_progress"
	case errors.Is(err, activity.ErrDuplicate):
		return http.StatusConflict, "duplicate_activity"
	case errors.Is(err, catalog.ErrInvalid), errors.Is(err, config.ErrInvalid):
		return http.StatusBadRequest, "config_error"
	case errors.Is(err, fetch.ErrBadTarget):
		return http.StatusBadRequest, "bad_target"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// decodeBody decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid JSON: " + err.Error(),
			Kind:  "bad_request",
		})
		return false
	}
	return true
}

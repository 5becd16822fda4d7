package handlers

import "net/http"

// SessionRequest names a context for initialize and switch requests.
type SessionRequest struct {
	Context string `json:"context"`
}

// InitializeHandler handles requests to initialize a session with a
// context. An empty context selects the configured default.
type InitializeHandler struct {
	provider EngineProvider
}

// NewInitializeHandler creates a new InitializeHandler.
func NewInitializeHandler(provider EngineProvider) *InitializeHandler {
	return &InitializeHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *InitializeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	active, err := h.provider.Engine().Initialize(req.Context)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, active)
}

// SwitchHandler handles requests to switch the active context. A
// failed switch leaves the current context untouched.
type SwitchHandler struct {
	provider EngineProvider
}

// NewSwitchHandler creates a new SwitchHandler.
func NewSwitchHandler(provider EngineProvider) *SwitchHandler {
	return &SwitchHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *SwitchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	active, err := h.provider.Engine().Sessions().Switch(req.Context)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, active)
}

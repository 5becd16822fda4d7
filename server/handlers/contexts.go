package handlers

import (
	"net/http"

	"github.com/optqo/optqo/catalog"
)

// ContextsResponse lists the catalog and which context is active.
type ContextsResponse struct {
	Active   string            `json:"active,omitempty"`
	Contexts []catalog.Context `json:"contexts"`
}

// ContextsHandler handles requests to list available analysis contexts.
type ContextsHandler struct {
	provider EngineProvider
}

// NewContextsHandler creates a new ContextsHandler.
func NewContextsHandler(provider EngineProvider) *ContextsHandler {
	return &ContextsHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *ContextsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessions := h.provider.Engine().Sessions()

	resp := ContextsResponse{Contexts: sessions.List()}
	if current, err := sessions.Current(); err == nil {
		resp.Active = current.Name
	}

	writeJSON(w, http.StatusOK, resp)
}

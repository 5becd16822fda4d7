package handlers

import "net/http"

// ReportHandler handles requests for the last aggregated pipeline
// report.
type ReportHandler struct {
	provider ReportProvider
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(provider ReportProvider) *ReportHandler {
	return &ReportHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload := h.provider.LastReport()
	if payload == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "no pipeline has completed yet",
			Kind:  "not_found",
		})
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

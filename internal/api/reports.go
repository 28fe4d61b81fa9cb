package api

import (
	"net/http"

	"polycare/m/internal/reports"
)

func (h *Handler) auditLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.reports.AuditLogs(r.Context(), reports.DefaultAuditLimit)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func (h *Handler) businessSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.BusinessSummary(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/apexhvac/dispatch-ai-platform/internal/audit"
	"github.com/apexhvac/dispatch-ai-platform/pkg/logging"
)

type auditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
	KPIs(ctx context.Context, since time.Time) (audit.KPISummary, error)
}

// AdminAuditHandler serves the dispatcher's read-only view of scheduling
// decisions and outcome KPIs.
type AdminAuditHandler struct {
	trail  auditReader
	logger *logging.Logger
}

// NewAdminAuditHandler creates the admin audit handler.
func NewAdminAuditHandler(trail auditReader, logger *logging.Logger) *AdminAuditHandler {
	if trail == nil {
		panic("handlers: audit trail required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAuditHandler{trail: trail, logger: logger}
}

// ListEvents handles GET /admin/audit?limit=N.
func (h *AdminAuditHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := h.trail.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list audit events", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// KPIs handles GET /admin/audit/kpis?since_hours=N. Defaults to the last
// 24 hours.
func (h *AdminAuditHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	sinceHours := 24
	if raw := r.URL.Query().Get("since_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "since_hours must be a positive integer")
			return
		}
		sinceHours = parsed
	}

	summary, err := h.trail.KPIs(r.Context(), time.Now().UTC().Add(-time.Duration(sinceHours)*time.Hour))
	if err != nil {
		h.logger.Error("compute audit KPIs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

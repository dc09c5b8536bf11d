package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/xavierca1/products-cms/internal/entity"
	"github.com/xavierca1/products-cms/internal/logger"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type AuditHandler struct {
	Repo entity.AuditRepositoryInterface
}

// NewAuditHandler accepts a nil repo when no audit database is configured.
func NewAuditHandler(repo entity.AuditRepositoryInterface) *AuditHandler {
	return &AuditHandler{Repo: repo}
}

// ListRecent (GET /api/audit?limit=N)
func (h *AuditHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "audit trail not configured"})
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxAuditLimit)
	}

	events, err := h.Repo.ListRecent(r.Context(), limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("❌ Error listing audit events", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list audit events"})
		return
	}
	writeJSON(w, http.StatusOK, events)
}

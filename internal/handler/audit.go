package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/storeplane/internal/service"
)

const defaultAuditLimit = 50

// AuditHandler handles audit log queries
type AuditHandler struct {
	storeService *service.StoreService
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(storeService *service.StoreService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		storeService: storeService,
		logger:       logger,
	}
}

// ServeHTTP handles GET /api/audit requests. Events come back most recent
// first; ?limit= caps the page, defaulting to 50.
func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	events, err := h.storeService.ListAuditEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list audit events", slog.String("error", err.Error()))
		http.Error(w, "failed to list audit events", http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"events": events,
		"count":  len(events),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

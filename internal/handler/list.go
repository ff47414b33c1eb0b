package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/storeplane/internal/service"
)

// ListStoresHandler handles listing all stores
type ListStoresHandler struct {
	storeService *service.StoreService
	logger       *slog.Logger
}

// NewListStoresHandler creates a new list handler
func NewListStoresHandler(storeService *service.StoreService, logger *slog.Logger) *ListStoresHandler {
	return &ListStoresHandler{
		storeService: storeService,
		logger:       logger,
	}
}

// ServeHTTP handles GET /api/stores requests
func (h *ListStoresHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stores, err := h.storeService.ListStores(r.Context())
	if err != nil {
		h.logger.Error("failed to list stores", slog.String("error", err.Error()))
		http.Error(w, "failed to list stores", http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"stores": stores,
		"count":  len(stores),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

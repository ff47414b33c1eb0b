package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/storeplane/internal/domain"
	"github.com/yourorg/storeplane/internal/service"
)

// GetStoreHandler handles single-store lookups
type GetStoreHandler struct {
	storeService *service.StoreService
	logger       *slog.Logger
}

// NewGetStoreHandler creates a new get handler
func NewGetStoreHandler(storeService *service.StoreService, logger *slog.Logger) *GetStoreHandler {
	return &GetStoreHandler{
		storeService: storeService,
		logger:       logger,
	}
}

// ServeHTTP handles GET /api/stores/{id} requests
func (h *GetStoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("id")
	if storeID == "" {
		http.Error(w, "store id required", http.StatusBadRequest)
		return
	}

	store, err := h.storeService.GetStore(r.Context(), storeID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			http.Error(w, "store not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get store", slog.String("store_id", storeID), slog.String("error", err.Error()))
		http.Error(w, "failed to get store", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(store)
}

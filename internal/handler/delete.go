package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/storeplane/internal/service"
)

// DeleteStoreHandler handles store deletion requests
type DeleteStoreHandler struct {
	storeService *service.StoreService
	logger       *slog.Logger
}

// NewDeleteStoreHandler creates a new delete handler
func NewDeleteStoreHandler(storeService *service.StoreService, logger *slog.Logger) *DeleteStoreHandler {
	return &DeleteStoreHandler{
		storeService: storeService,
		logger:       logger,
	}
}

// ServeHTTP handles DELETE /api/stores/{id} requests. Deleting an unknown
// store succeeds: the caller's goal state already holds.
func (h *DeleteStoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("id")
	if storeID == "" {
		http.Error(w, "store id required", http.StatusBadRequest)
		return
	}

	h.logger.Debug("delete store request", slog.String("store_id", storeID))

	if err := h.storeService.DeleteStore(r.Context(), storeID); err != nil {
		h.logger.Error("failed to delete store", slog.String("store_id", storeID), slog.String("error", err.Error()))
		http.Error(w, "failed to delete store", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/storeplane/internal/domain"
	"github.com/yourorg/storeplane/internal/featureflags"
	"github.com/yourorg/storeplane/internal/service"
)

// adminCredentialsFlag gates credential recovery; the endpoint exposes live
// secrets, so it ships disabled.
const adminCredentialsFlag = "ADMIN_CREDENTIALS"

// CredentialsHandler handles admin credential recovery requests
type CredentialsHandler struct {
	storeService *service.StoreService
	logger       *slog.Logger
}

// NewCredentialsHandler creates a new credentials handler
func NewCredentialsHandler(storeService *service.StoreService, logger *slog.Logger) *CredentialsHandler {
	return &CredentialsHandler{
		storeService: storeService,
		logger:       logger,
	}
}

// ServeHTTP handles GET /api/stores/{id}/credentials requests
func (h *CredentialsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !featureflags.Enabled(adminCredentialsFlag) {
		http.Error(w, "admin credential access is disabled", http.StatusForbidden)
		return
	}

	storeID := r.PathValue("id")
	if storeID == "" {
		http.Error(w, "store id required", http.StatusBadRequest)
		return
	}

	creds, err := h.storeService.AdminCredentials(r.Context(), storeID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrStoreNotFound):
			http.Error(w, "store not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrCredentialsUnsupported):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrSecretNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("failed to recover credentials",
				slog.String("store_id", storeID),
				slog.String("error", err.Error()),
			)
			http.Error(w, "failed to recover credentials", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(creds)
}

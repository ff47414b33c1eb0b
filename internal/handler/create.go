package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/yourorg/storeplane/internal/domain"
	"github.com/yourorg/storeplane/internal/service"
)

// storeNamePattern constrains names to what a release name and namespace can
// carry, after normalization.
var storeNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,48}[a-z0-9]$`)

// CreateStoreRequest represents the request to create a store
type CreateStoreRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CreateStoreHandler handles store creation requests
type CreateStoreHandler struct {
	storeService *service.StoreService
	logger       *slog.Logger
}

// NewCreateStoreHandler creates a new create handler
func NewCreateStoreHandler(storeService *service.StoreService, logger *slog.Logger) *CreateStoreHandler {
	return &CreateStoreHandler{
		storeService: storeService,
		logger:       logger,
	}
}

// ServeHTTP handles POST /api/stores requests. Provisioning continues in the
// background after the 202 response; poll the store until READY or FAILED.
func (h *CreateStoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req CreateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	name := domain.NormalizeName(req.Name)
	if !storeNamePattern.MatchString(name) {
		http.Error(w, "name must be 3-50 characters of lowercase letters, digits and hyphens", http.StatusBadRequest)
		return
	}

	storeType := domain.StoreType(req.Type)
	if !domain.ValidStoreType(storeType) {
		http.Error(w, "type must be one of: woocommerce, medusa", http.StatusBadRequest)
		return
	}

	store, err := h.storeService.CreateStore(r.Context(), name, storeType)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNameTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrStoreLimitReached):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to create store", slog.String("error", err.Error()))
			http.Error(w, "failed to create store", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(store)
}

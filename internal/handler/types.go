package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yourorg/storeplane/internal/domain"
)

// StoreTypeInfo describes one supported store variant.
type StoreTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// StoreTypesHandler lists the store variants this deployment can provision
type StoreTypesHandler struct{}

// NewStoreTypesHandler creates a new store types handler
func NewStoreTypesHandler() *StoreTypesHandler {
	return &StoreTypesHandler{}
}

// ServeHTTP handles GET /api/store-types requests
func (h *StoreTypesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	types := []StoreTypeInfo{
		{Type: string(domain.StoreTypeWooCommerce), Description: "WordPress + WooCommerce storefront"},
		{Type: string(domain.StoreTypeMedusa), Description: "Medusa headless commerce with separate API host"},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"types": types})
}

package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoreType identifies which deployment package a store runs.
type StoreType string

const (
	StoreTypeWooCommerce StoreType = "woocommerce"
	StoreTypeMedusa      StoreType = "medusa"
)

// ValidStoreType reports whether t is one of the supported store variants.
func ValidStoreType(t StoreType) bool {
	return t == StoreTypeWooCommerce || t == StoreTypeMedusa
}

// StoreStatus is the lifecycle state of a store. Transitions are driven only
// by the orchestrators: PROVISIONING -> READY|FAILED, READY|FAILED -> DELETING,
// DELETING -> record removed. A FAILED store is never re-provisioned; it must
// be deleted and recreated.
type StoreStatus string

const (
	StatusProvisioning StoreStatus = "PROVISIONING"
	StatusReady        StoreStatus = "READY"
	StatusFailed       StoreStatus = "FAILED"
	StatusDeleting     StoreStatus = "DELETING"
)

// Store represents a provisioned (or provisioning) tenant store instance.
type Store struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      StoreType   `json:"type"`
	Status    StoreStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	URL       string      `json:"url,omitempty"`
	Namespace string      `json:"namespace"`
}

// NormalizeName lower-cases and trims a requested store name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewStore allocates a store record in PROVISIONING. The namespace carries a
// random suffix so a reused name never collides with a namespace that is still
// terminating from a previous deletion.
func NewStore(name string, storeType StoreType) *Store {
	normalized := NormalizeName(name)
	return &Store{
		ID:        uuid.NewString(),
		Name:      normalized,
		Type:      storeType,
		Status:    StatusProvisioning,
		CreatedAt: time.Now().UTC(),
		Namespace: "store-" + normalized + "-" + uuid.NewString()[:8],
	}
}

// AuditAction classifies an audit event.
type AuditAction string

const (
	AuditStoreCreated    AuditAction = "STORE_CREATED"
	AuditStoreDeleted    AuditAction = "STORE_DELETED"
	AuditProvisionReady  AuditAction = "PROVISION_READY"
	AuditProvisionFailed AuditAction = "PROVISION_FAILED"
)

// AuditEvent is an immutable fact about a lifecycle transition. StoreName is a
// denormalized snapshot so the event survives deletion of the store record.
type AuditEvent struct {
	ID        string      `json:"id"`
	StoreID   string      `json:"store_id,omitempty"`
	StoreName string      `json:"store_name,omitempty"`
	Action    AuditAction `json:"action"`
	Message   string      `json:"message,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewAuditEvent builds an event for a store transition.
func NewAuditEvent(store *Store, action AuditAction, message string) *AuditEvent {
	return &AuditEvent{
		ID:        uuid.NewString(),
		StoreID:   store.ID,
		StoreName: store.Name,
		Action:    action,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// AdminCredentials holds recovered administrator access details for a store.
type AdminCredentials struct {
	StoreURL      string `json:"store_url"`
	AdminURL      string `json:"admin_url"`
	AdminUser     string `json:"admin_user"`
	AdminPassword string `json:"admin_password"`
	AdminEmail    string `json:"admin_email"`
}

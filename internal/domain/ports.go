package domain

import "context"

// StoreRepository is the durable owner of Store and AuditEvent records.
type StoreRepository interface {
	Save(ctx context.Context, store *Store) error
	GetByID(ctx context.Context, id string) (*Store, error)
	GetByName(ctx context.Context, name string) (*Store, error)
	List(ctx context.Context) ([]*Store, error)
	Delete(ctx context.Context, id string) error

	AddAuditEvent(ctx context.Context, event *AuditEvent) error
	ListAuditEvents(ctx context.Context, limit int) ([]*AuditEvent, error)
}

// Namespace phases reported by ClusterClient.GetNamespaceStatus.
const (
	NamespaceActive      = "Active"
	NamespaceTerminating = "Terminating"
	// NamespaceTerminated is reported for namespaces that no longer exist.
	NamespaceTerminated = "Terminated"
)

// ClusterClient manages isolated namespaces and reads cluster-managed secrets.
type ClusterClient interface {
	// CreateNamespace is idempotent; an existing namespace is success.
	CreateNamespace(ctx context.Context, name string) error
	// DeleteNamespace ignores not-found.
	DeleteNamespace(ctx context.Context, name string) error
	// GetNamespaceStatus returns the namespace phase, or "Terminated" when the
	// namespace no longer exists.
	GetNamespaceStatus(ctx context.Context, name string) (string, error)
	ListSecretNames(ctx context.Context, namespace, labelSelector string) ([]string, error)
	// GetSecretData returns the secret payload; values are base64-encoded.
	GetSecretData(ctx context.Context, namespace, name string) (map[string]string, error)
}

// ReleaseDeployer installs and removes deployment package releases. The
// install call blocks up to an externally configured timeout and creates the
// namespace if it does not exist yet.
type ReleaseDeployer interface {
	InstallOrUpgrade(ctx context.Context, releaseName, chartPath, namespace string, values map[string]any) error
	// Uninstall treats a missing release as success.
	Uninstall(ctx context.Context, releaseName, namespace string) error
}

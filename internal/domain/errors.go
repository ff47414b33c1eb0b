package domain

import "errors"

// Domain errors surfaced synchronously at request boundaries. Infrastructure
// failures (cluster, deployer) never carry these; they stay inside the
// orchestrators and are expressed through store status and the audit log.
var (
	ErrStoreNotFound          = errors.New("store not found")
	ErrNameTaken              = errors.New("store name already exists")
	ErrStoreLimitReached      = errors.New("store limit reached")
	ErrCredentialsUnsupported = errors.New("admin credentials are only available for woocommerce stores")
	ErrSecretNotFound         = errors.New("admin credentials secret not found")
)

package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourorg/storeplane/internal/domain"
)

const (
	secretNameSuffix    = "-secret"
	instanceLabelPrefix = "app.kubernetes.io/instance="
)

// AdminCredentials recovers the platform-generated administrator login for a
// woocommerce store from its cluster secret. Secret keys are independently
// optional: a missing or undecodable key produces an empty field, not an
// error.
func (s *StoreService) AdminCredentials(ctx context.Context, storeID string) (*domain.AdminCredentials, error) {
	store, err := s.repo.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.Type != domain.StoreTypeWooCommerce {
		return nil, domain.ErrCredentialsUnsupported
	}

	selector := instanceLabelPrefix + store.Name
	names, err := s.cluster.ListSecretNames(ctx, store.Namespace, selector)
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}

	var secretName string
	for _, name := range names {
		if strings.HasSuffix(name, secretNameSuffix) {
			secretName = name
			break
		}
	}
	if secretName == "" {
		return nil, domain.ErrSecretNotFound
	}

	data, err := s.cluster.GetSecretData(ctx, store.Namespace, secretName)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", secretName, err)
	}

	creds := &domain.AdminCredentials{
		StoreURL:      store.URL,
		AdminUser:     s.decodeSecretValue(store, data, "wp-admin-user"),
		AdminPassword: s.decodeSecretValue(store, data, "wp-admin-password"),
		AdminEmail:    s.decodeSecretValue(store, data, "wp-admin-email"),
	}
	if store.URL != "" {
		creds.AdminURL = store.URL + "/wp-admin"
	}
	return creds, nil
}

// decodeSecretValue base64-decodes one secret entry, returning "" when the key
// is absent or the payload is not valid base64.
func (s *StoreService) decodeSecretValue(store *domain.Store, data map[string]string, key string) string {
	encoded, ok := data[key]
	if !ok {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		s.logger.Warn("secret value is not valid base64",
			slog.String("store_id", store.ID),
			slog.String("key", key),
		)
		return ""
	}
	return string(decoded)
}

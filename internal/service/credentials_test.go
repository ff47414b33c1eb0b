package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/yourorg/storeplane/internal/domain"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func seedReadyWoo(t *testing.T, repo *fakeStoreRepo) *domain.Store {
	t.Helper()
	store := domain.NewStore("myshop", domain.StoreTypeWooCommerce)
	store.Status = domain.StatusReady
	store.URL = "http://" + store.Namespace + ".127.0.0.1.nip.io"
	if err := repo.Save(context.Background(), store); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func TestAdminCredentials(t *testing.T) {
	repo := newFakeStoreRepo()
	cluster := newFakeCluster()
	svc := newTestService(t, repo, cluster, &fakeDeployer{})

	store := seedReadyWoo(t, repo)
	cluster.secretNames = []string{"myshop-tls", "myshop-secret"}
	cluster.secretData = map[string]string{
		"wp-admin-user":     b64("admin"),
		"wp-admin-password": b64("s3cret"),
		"wp-admin-email":    b64("admin@myshop.test"),
	}

	creds, err := svc.AdminCredentials(context.Background(), store.ID)
	if err != nil {
		t.Fatalf("AdminCredentials: %v", err)
	}

	if creds.AdminUser != "admin" {
		t.Errorf("user = %q", creds.AdminUser)
	}
	if creds.AdminPassword != "s3cret" {
		t.Errorf("password = %q", creds.AdminPassword)
	}
	if creds.AdminEmail != "admin@myshop.test" {
		t.Errorf("email = %q", creds.AdminEmail)
	}
	if creds.StoreURL != store.URL {
		t.Errorf("store url = %q, want %q", creds.StoreURL, store.URL)
	}
	if creds.AdminURL != store.URL+"/wp-admin" {
		t.Errorf("admin url = %q, want %q", creds.AdminURL, store.URL+"/wp-admin")
	}

	wantSelector := "app.kubernetes.io/instance=myshop"
	if cluster.lastSelector != wantSelector {
		t.Errorf("selector = %q, want %q", cluster.lastSelector, wantSelector)
	}
}

func TestAdminCredentialsMedusaRejected(t *testing.T) {
	repo := newFakeStoreRepo()
	cluster := newFakeCluster()
	svc := newTestService(t, repo, cluster, &fakeDeployer{})

	store := domain.NewStore("medushop", domain.StoreTypeMedusa)
	store.Status = domain.StatusReady
	repo.Save(context.Background(), store)

	_, err := svc.AdminCredentials(context.Background(), store.ID)
	if !errors.Is(err, domain.ErrCredentialsUnsupported) {
		t.Fatalf("err = %v, want ErrCredentialsUnsupported", err)
	}
	if cluster.listCalls != 0 {
		t.Error("cluster queried for an unsupported store type")
	}
}

func TestAdminCredentialsUnknownStore(t *testing.T) {
	svc := newTestService(t, newFakeStoreRepo(), newFakeCluster(), &fakeDeployer{})

	_, err := svc.AdminCredentials(context.Background(), "no-such-id")
	if !errors.Is(err, domain.ErrStoreNotFound) {
		t.Fatalf("err = %v, want ErrStoreNotFound", err)
	}
}

func TestAdminCredentialsNoMatchingSecret(t *testing.T) {
	repo := newFakeStoreRepo()
	cluster := newFakeCluster()
	svc := newTestService(t, repo, cluster, &fakeDeployer{})

	store := seedReadyWoo(t, repo)
	cluster.secretNames = []string{"myshop-tls", "myshop-registry"}

	_, err := svc.AdminCredentials(context.Background(), store.ID)
	if !errors.Is(err, domain.ErrSecretNotFound) {
		t.Fatalf("err = %v, want ErrSecretNotFound", err)
	}
}

func TestAdminCredentialsKeysIndependentlyOptional(t *testing.T) {
	repo := newFakeStoreRepo()
	cluster := newFakeCluster()
	svc := newTestService(t, repo, cluster, &fakeDeployer{})

	store := seedReadyWoo(t, repo)
	cluster.secretNames = []string{"myshop-secret"}
	cluster.secretData = map[string]string{
		"wp-admin-user":  b64("admin"),
		"wp-admin-email": "%%% not base64 %%%",
		// wp-admin-password absent
	}

	creds, err := svc.AdminCredentials(context.Background(), store.ID)
	if err != nil {
		t.Fatalf("AdminCredentials: %v", err)
	}
	if creds.AdminUser != "admin" {
		t.Errorf("user = %q", creds.AdminUser)
	}
	if creds.AdminPassword != "" {
		t.Errorf("password = %q, want empty for missing key", creds.AdminPassword)
	}
	if creds.AdminEmail != "" {
		t.Errorf("email = %q, want empty for undecodable value", creds.AdminEmail)
	}
}

func TestAdminCredentialsNoURLNoAdminURL(t *testing.T) {
	repo := newFakeStoreRepo()
	cluster := newFakeCluster()
	svc := newTestService(t, repo, cluster, &fakeDeployer{})

	store := domain.NewStore("myshop", domain.StoreTypeWooCommerce)
	store.Status = domain.StatusProvisioning
	repo.Save(context.Background(), store)
	cluster.secretNames = []string{"myshop-secret"}
	cluster.secretData = map[string]string{"wp-admin-user": b64("admin")}

	creds, err := svc.AdminCredentials(context.Background(), store.ID)
	if err != nil {
		t.Fatalf("AdminCredentials: %v", err)
	}
	if creds.AdminURL != "" {
		t.Errorf("admin url = %q, want empty when store has no URL", creds.AdminURL)
	}
}

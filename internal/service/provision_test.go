package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yourorg/storeplane/internal/domain"
	"github.com/yourorg/storeplane/internal/values"
)

func seedProvisioning(t *testing.T, repo *fakeStoreRepo, name string, storeType domain.StoreType) *domain.Store {
	t.Helper()
	store := domain.NewStore(name, storeType)
	if err := repo.Save(context.Background(), store); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func TestProvisionStoreSuccess(t *testing.T) {
	repo := newFakeStoreRepo()
	cluster := newFakeCluster()
	deployer := &fakeDeployer{}
	svc := newTestService(t, repo, cluster, deployer)

	store := seedProvisioning(t, repo, "myshop", domain.StoreTypeWooCommerce)
	svc.ProvisionStore(context.Background(), store.ID, "test")

	final, err := repo.GetByID(context.Background(), store.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != domain.StatusReady {
		t.Fatalf("status = %s, want READY", final.Status)
	}

	wantURL := "http://" + store.Namespace + values.DefaultHostSuffix
	if final.URL != wantURL {
		t.Errorf("url = %q, want %q", final.URL, wantURL)
	}

	cluster.mu.Lock()
	nsCreated := cluster.namespaces[store.Namespace]
	cluster.mu.Unlock()
	if !nsCreated {
		t.Error("namespace was not created")
	}

	if deployer.installCount() != 1 {
		t.Fatalf("installs = %d, want 1", deployer.installCount())
	}
	call := deployer.installs[0]
	if call.release != "myshop" {
		t.Errorf("release = %q, want %q", call.release, "myshop")
	}
	if call.chart != "charts/woocommerce" {
		t.Errorf("chart = %q, want charts/woocommerce", call.chart)
	}
	if call.namespace != store.Namespace {
		t.Errorf("namespace = %q, want %q", call.namespace, store.Namespace)
	}
	ingress, ok := call.values["ingress"].(map[string]any)
	if !ok {
		t.Fatalf("values missing ingress block: %v", call.values)
	}
	if enabled, _ := ingress["enabled"].(bool); !enabled {
		t.Error("ingress.enabled not set")
	}
	if host, _ := ingress["host"].(string); host != store.Namespace+values.DefaultHostSuffix {
		t.Errorf("ingress.host = %q", host)
	}
	if _, hasAPIHost := ingress["apiHost"]; hasAPIHost {
		t.Error("woocommerce values carry apiHost")
	}
	if name, _ := call.values["storeName"].(string); name != "myshop" {
		t.Errorf("storeName = %q", name)
	}

	if !repo.hasAuditAction(domain.AuditProvisionReady) {
		t.Error("expected PROVISION_READY audit event")
	}
}

func TestProvisionStoreMedusaAPIHost(t *testing.T) {
	repo := newFakeStoreRepo()
	deployer := &fakeDeployer{}
	svc := newTestService(t, repo, newFakeCluster(), deployer)

	store := seedProvisioning(t, repo, "medushop", domain.StoreTypeMedusa)
	svc.ProvisionStore(context.Background(), store.ID, "test")

	if deployer.installCount() != 1 {
		t.Fatalf("installs = %d, want 1", deployer.installCount())
	}
	call := deployer.installs[0]
	if call.chart != "charts/medusa" {
		t.Errorf("chart = %q, want charts/medusa", call.chart)
	}
	ingress, ok := call.values["ingress"].(map[string]any)
	if !ok {
		t.Fatalf("values missing ingress block: %v", call.values)
	}
	wantAPIHost := "api-" + store.Namespace + values.DefaultHostSuffix
	if apiHost, _ := ingress["apiHost"].(string); apiHost != wantAPIHost {
		t.Errorf("ingress.apiHost = %q, want %q", apiHost, wantAPIHost)
	}
}

func TestProvisionStoreRetriesAfterFailure(t *testing.T) {
	repo := newFakeStoreRepo()
	cluster := newFakeCluster()
	deployer := &fakeDeployer{installErrs: []error{errors.New("chart render failed"), nil}}
	svc := newTestService(t, repo, cluster, deployer)

	store := seedProvisioning(t, repo, "myshop", domain.StoreTypeWooCommerce)
	svc.ProvisionStore(context.Background(), store.ID, "test")

	final, err := repo.GetByID(context.Background(), store.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != domain.StatusReady {
		t.Fatalf("status = %s, want READY after retry", final.Status)
	}
	if deployer.installCount() != 2 {
		t.Errorf("installs = %d, want 2", deployer.installCount())
	}
	// The failed attempt was compensated before the retry.
	if deployer.uninstallCount() != 1 {
		t.Errorf("uninstalls = %d, want 1", deployer.uninstallCount())
	}
	cluster.mu.Lock()
	deleted := len(cluster.deleted)
	cluster.mu.Unlock()
	if deleted != 1 {
		t.Errorf("namespace deletes = %d, want 1", deleted)
	}
	if repo.hasAuditAction(domain.AuditProvisionFailed) {
		t.Error("PROVISION_FAILED audited despite eventual success")
	}
}

func TestProvisionStoreFailsAfterMaxAttempts(t *testing.T) {
	repo := newFakeStoreRepo()
	deployer := &fakeDeployer{installErrs: []error{
		errors.New("chart render failed"),
		errors.New("registry unreachable"),
	}}
	svc := newTestService(t, repo, newFakeCluster(), deployer)

	store := seedProvisioning(t, repo, "myshop", domain.StoreTypeWooCommerce)
	svc.ProvisionStore(context.Background(), store.ID, "test")

	final, err := repo.GetByID(context.Background(), store.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want FAILED", final.Status)
	}
	if final.URL != "" {
		t.Errorf("FAILED store has url %q", final.URL)
	}
	if deployer.installCount() != 2 {
		t.Errorf("installs = %d, want 2", deployer.installCount())
	}
	if deployer.uninstallCount() != 2 {
		t.Errorf("uninstalls = %d, want 2 (one per failed attempt)", deployer.uninstallCount())
	}

	var failedEvent *domain.AuditEvent
	repo.mu.Lock()
	for _, e := range repo.events {
		if e.Action == domain.AuditProvisionFailed {
			failedEvent = e
		}
	}
	repo.mu.Unlock()
	if failedEvent == nil {
		t.Fatal("expected PROVISION_FAILED audit event")
	}
	if !strings.Contains(failedEvent.Message, "registry unreachable") {
		t.Errorf("audit message = %q, want last attempt's error", failedEvent.Message)
	}
}

func TestProvisionStoreCleanupFailureDoesNotAbortRetry(t *testing.T) {
	repo := newFakeStoreRepo()
	cluster := newFakeCluster()
	cluster.deleteErr = errors.New("namespace stuck")
	deployer := &fakeDeployer{installErrs: []error{errors.New("transient"), nil}}
	svc := newTestService(t, repo, cluster, deployer)

	store := seedProvisioning(t, repo, "myshop", domain.StoreTypeWooCommerce)
	svc.ProvisionStore(context.Background(), store.ID, "test")

	final, err := repo.GetByID(context.Background(), store.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != domain.StatusReady {
		t.Fatalf("status = %s, want READY despite cleanup failure", final.Status)
	}
}

func TestProvisionStoreCancelledBetweenAttempts(t *testing.T) {
	repo := newFakeStoreRepo()
	deployer := &fakeDeployer{installErrs: []error{
		errors.New("transient"),
		errors.New("transient"),
	}}
	svc := newTestService(t, repo, newFakeCluster(), deployer)

	store := seedProvisioning(t, repo, "myshop", domain.StoreTypeWooCommerce)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.ProvisionStore(ctx, store.ID, "test")

	// The run stopped after the first failure instead of retrying or
	// recording a terminal status; the store is left for the deleter.
	if deployer.installCount() != 1 {
		t.Errorf("installs = %d, want 1 (no retry after cancel)", deployer.installCount())
	}
	final, err := repo.GetByID(context.Background(), store.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != domain.StatusProvisioning {
		t.Errorf("status = %s, want PROVISIONING (no terminal write after cancel)", final.Status)
	}
}

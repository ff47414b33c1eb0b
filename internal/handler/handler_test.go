package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/storeplane/internal/domain"
	"github.com/yourorg/storeplane/internal/service"
	"github.com/yourorg/storeplane/internal/values"
	"github.com/yourorg/storeplane/pkg/config"
)

type memRepo struct {
	mu     sync.Mutex
	stores map[string]domain.Store
	events []*domain.AuditEvent
}

func newMemRepo() *memRepo {
	return &memRepo{stores: make(map[string]domain.Store)}
}

func (r *memRepo) Save(ctx context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[store.ID] = *store
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[id]
	if !ok {
		return nil, domain.ErrStoreNotFound
	}
	copied := store
	return &copied, nil
}

func (r *memRepo) GetByName(ctx context.Context, name string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, store := range r.stores {
		if store.Name == name {
			copied := store
			return &copied, nil
		}
	}
	return nil, domain.ErrStoreNotFound
}

func (r *memRepo) List(ctx context.Context) ([]*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Store, 0, len(r.stores))
	for _, store := range r.stores {
		copied := store
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, id)
	return nil
}

func (r *memRepo) AddAuditEvent(ctx context.Context, event *domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *memRepo) ListAuditEvents(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AuditEvent, 0)
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}

type memCluster struct{}

func (memCluster) CreateNamespace(ctx context.Context, name string) error { return nil }
func (memCluster) DeleteNamespace(ctx context.Context, name string) error { return nil }
func (memCluster) GetNamespaceStatus(ctx context.Context, name string) (string, error) {
	return domain.NamespaceTerminated, nil
}
func (memCluster) ListSecretNames(ctx context.Context, namespace, labelSelector string) ([]string, error) {
	return nil, nil
}
func (memCluster) GetSecretData(ctx context.Context, namespace, name string) (map[string]string, error) {
	return map[string]string{}, nil
}

type memDeployer struct{}

func (memDeployer) InstallOrUpgrade(ctx context.Context, releaseName, chartPath, namespace string, vals map[string]any) error {
	return nil
}
func (memDeployer) Uninstall(ctx context.Context, releaseName, namespace string) error { return nil }

func newTestHandlers(t *testing.T) (*service.StoreService, *memRepo) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{Environment: "test", MaxStores: 20, ChartsDir: "charts"}
	repo := newMemRepo()
	svc := service.NewStoreService(repo, memCluster{}, memDeployer{}, values.NewLoader(t.TempDir(), log), log, cfg)
	return svc, repo
}

func testMux(svc *service.StoreService) *http.ServeMux {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	mux.Handle("POST /api/stores", NewCreateStoreHandler(svc, log))
	mux.Handle("GET /api/stores", NewListStoresHandler(svc, log))
	mux.Handle("GET /api/stores/{id}", NewGetStoreHandler(svc, log))
	mux.Handle("DELETE /api/stores/{id}", NewDeleteStoreHandler(svc, log))
	mux.Handle("GET /api/stores/{id}/credentials", NewCredentialsHandler(svc, log))
	mux.Handle("GET /api/audit", NewAuditHandler(svc, log))
	mux.Handle("GET /api/store-types", NewStoreTypesHandler())
	return mux
}

func TestCreateStoreAccepted(t *testing.T) {
	svc, _ := newTestHandlers(t)
	mux := testMux(svc)

	req := httptest.NewRequest("POST", "/api/stores", strings.NewReader(`{"name":"MyShop","type":"woocommerce"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%s)", rec.Code, rec.Body.String())
	}

	var store domain.Store
	if err := json.NewDecoder(rec.Body).Decode(&store); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if store.Name != "myshop" {
		t.Errorf("name = %q, want normalized %q", store.Name, "myshop")
	}
	if store.Status != domain.StatusProvisioning {
		t.Errorf("status = %s, want PROVISIONING", store.Status)
	}
}

func TestCreateStoreValidation(t *testing.T) {
	svc, _ := newTestHandlers(t)
	mux := testMux(svc)

	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"empty name", `{"name":"","type":"woocommerce"}`},
		{"short name", `{"name":"ab","type":"woocommerce"}`},
		{"uppercase only symbols", `{"name":"!!!","type":"woocommerce"}`},
		{"leading hyphen", `{"name":"-shop","type":"woocommerce"}`},
		{"unknown type", `{"name":"myshop","type":"shopify"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/stores", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateStoreDuplicateConflict(t *testing.T) {
	svc, _ := newTestHandlers(t)
	mux := testMux(svc)

	first := httptest.NewRequest("POST", "/api/stores", strings.NewReader(`{"name":"myshop","type":"woocommerce"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, first)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first create status = %d", rec.Code)
	}

	second := httptest.NewRequest("POST", "/api/stores", strings.NewReader(`{"name":"MYSHOP","type":"medusa"}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, second)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}
}

func TestGetStoreNotFound(t *testing.T) {
	svc, _ := newTestHandlers(t)
	mux := testMux(svc)

	req := httptest.NewRequest("GET", "/api/stores/nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteStoreNoContent(t *testing.T) {
	svc, repo := newTestHandlers(t)
	mux := testMux(svc)

	store := domain.NewStore("myshop", domain.StoreTypeWooCommerce)
	store.Status = domain.StatusReady
	repo.Save(context.Background(), store)

	req := httptest.NewRequest("DELETE", "/api/stores/"+store.ID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	// Unknown IDs are also a 204: the goal state already holds.
	req = httptest.NewRequest("DELETE", "/api/stores/never-existed", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("unknown id status = %d, want 204", rec.Code)
	}
}

func TestAuditLimitValidation(t *testing.T) {
	svc, _ := newTestHandlers(t)
	mux := testMux(svc)

	req := httptest.NewRequest("GET", "/api/audit?limit=abc", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/audit?limit=-1", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", rec.Code)
	}
}

func TestAuditReturnsRecentFirst(t *testing.T) {
	svc, repo := newTestHandlers(t)
	mux := testMux(svc)

	store := domain.NewStore("myshop", domain.StoreTypeWooCommerce)
	repo.AddAuditEvent(context.Background(), domain.NewAuditEvent(store, domain.AuditStoreCreated, ""))
	time.Sleep(time.Millisecond)
	repo.AddAuditEvent(context.Background(), domain.NewAuditEvent(store, domain.AuditProvisionReady, ""))

	req := httptest.NewRequest("GET", "/api/audit", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Events []*domain.AuditEvent `json:"events"`
		Count  int                  `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
	if body.Events[0].Action != domain.AuditProvisionReady {
		t.Errorf("first event = %s, want most recent", body.Events[0].Action)
	}
}

func TestCredentialsGatedByFeatureFlag(t *testing.T) {
	svc, repo := newTestHandlers(t)
	mux := testMux(svc)

	store := domain.NewStore("medushop", domain.StoreTypeMedusa)
	repo.Save(context.Background(), store)

	req := httptest.NewRequest("GET", "/api/stores/"+store.ID+"/credentials", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("flag off: status = %d, want 403", rec.Code)
	}

	t.Setenv("FLAG_ADMIN_CREDENTIALS", "true")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stores/"+store.ID+"/credentials", nil))
	// Flag on: the request reaches the service, which rejects medusa stores.
	if rec.Code != http.StatusBadRequest {
		t.Errorf("flag on: status = %d, want 400", rec.Code)
	}
}

func TestStoreTypesListing(t *testing.T) {
	svc, _ := newTestHandlers(t)
	mux := testMux(svc)

	req := httptest.NewRequest("GET", "/api/store-types", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Types []StoreTypeInfo `json:"types"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Types) != 2 {
		t.Fatalf("types = %d, want 2", len(body.Types))
	}
}

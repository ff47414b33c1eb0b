package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/storeplane/internal/domain"
	"github.com/yourorg/storeplane/internal/observability/metrics"
	"github.com/yourorg/storeplane/internal/values"
	"github.com/yourorg/storeplane/pkg/config"
)

// StoreService drives the store lifecycle: creation, provisioning,
// credential recovery and teardown.
type StoreService struct {
	repo     domain.StoreRepository
	cluster  domain.ClusterClient
	deployer domain.ReleaseDeployer
	values   *values.Loader
	guard    *lifecycleGuard
	logger   *slog.Logger
	config   *config.Config

	// backoff between provisioning attempts; shortened in tests.
	provisionBackoff time.Duration
}

// NewStoreService creates a new store service
func NewStoreService(
	repo domain.StoreRepository,
	cluster domain.ClusterClient,
	deployer domain.ReleaseDeployer,
	valuesLoader *values.Loader,
	logger *slog.Logger,
	cfg *config.Config,
) *StoreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreService{
		repo:             repo,
		cluster:          cluster,
		deployer:         deployer,
		values:           valuesLoader,
		guard:            newLifecycleGuard(),
		logger:           logger,
		config:           cfg,
		provisionBackoff: retryBackoff,
	}
}

// CreateStore allocates a store record in PROVISIONING and kicks off the
// provisioning run in the background. The caller gets the record back
// immediately; the outcome shows up on its status and in the audit log.
func (s *StoreService) CreateStore(ctx context.Context, name string, storeType domain.StoreType) (*domain.Store, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count stores: %w", err)
	}
	if len(existing) >= s.config.MaxStores {
		return nil, domain.ErrStoreLimitReached
	}

	normalized := domain.NormalizeName(name)
	if _, err := s.repo.GetByName(ctx, normalized); err == nil {
		return nil, domain.ErrNameTaken
	} else if !errors.Is(err, domain.ErrStoreNotFound) {
		return nil, fmt.Errorf("failed to check store name: %w", err)
	}

	store := domain.NewStore(normalized, storeType)
	if err := s.repo.Save(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to save store: %w", err)
	}
	s.recordAudit(ctx, store, domain.AuditStoreCreated, "")

	go s.ProvisionStore(context.Background(), store.ID, s.config.Environment)

	s.logger.Info("store created",
		slog.String("store_id", store.ID),
		slog.String("name", store.Name),
		slog.String("type", string(store.Type)),
		slog.String("namespace", store.Namespace),
	)
	return store, nil
}

// GetStore retrieves a store by ID.
func (s *StoreService) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	return s.repo.GetByID(ctx, storeID)
}

// ListStores returns all stores.
func (s *StoreService) ListStores(ctx context.Context) ([]*domain.Store, error) {
	return s.repo.List(ctx)
}

// ListAuditEvents returns up to limit audit events, most recent first.
func (s *StoreService) ListAuditEvents(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	return s.repo.ListAuditEvents(ctx, limit)
}

// DeleteStore permanently removes a store. Deleting an unknown ID is a
// no-op. The record transitions to DELETING before any teardown call so
// concurrent readers see it; if teardown then fails the store stays parked in
// DELETING and the reaper retries it later.
func (s *StoreService) DeleteStore(ctx context.Context, storeID string) error {
	s.guard.cancelRun(storeID)
	release := s.guard.acquire(storeID)
	defer release()

	store, err := s.repo.GetByID(ctx, storeID)
	if errors.Is(err, domain.ErrStoreNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch store: %w", err)
	}

	store.Status = domain.StatusDeleting
	if err := s.repo.Save(ctx, store); err != nil {
		return fmt.Errorf("failed to mark store deleting: %w", err)
	}

	if err := s.CompleteDeletion(ctx, store); err != nil {
		s.logger.Error("deletion failed, store parked in DELETING",
			slog.String("store_id", store.ID),
			slog.String("name", store.Name),
			slog.String("error", err.Error()),
		)
		metrics.ObserveTeardown("api", "error")
		return nil
	}

	metrics.ObserveTeardown("api", "success")
	return nil
}

// CompleteDeletion tears down cluster resources and removes the record. It
// is shared by the synchronous delete path and the deletion reaper; the
// caller holds the store's lifecycle lock.
func (s *StoreService) CompleteDeletion(ctx context.Context, store *domain.Store) error {
	if err := s.deployer.Uninstall(ctx, store.Name, store.Namespace); err != nil {
		return fmt.Errorf("release uninstall: %w", err)
	}
	if err := s.cluster.DeleteNamespace(ctx, store.Namespace); err != nil {
		return fmt.Errorf("namespace delete: %w", err)
	}
	if err := s.repo.Delete(ctx, store.ID); err != nil {
		return fmt.Errorf("record delete: %w", err)
	}

	s.recordAudit(ctx, store, domain.AuditStoreDeleted, "")
	s.logger.Info("store deleted",
		slog.String("store_id", store.ID),
		slog.String("name", store.Name),
	)
	return nil
}

// RetryDeletion re-drives teardown for a store parked in DELETING. Called by
// the deletion reaper; a store that meanwhile disappeared or changed status
// is left alone.
func (s *StoreService) RetryDeletion(ctx context.Context, storeID string) error {
	release := s.guard.acquire(storeID)
	defer release()

	store, err := s.repo.GetByID(ctx, storeID)
	if errors.Is(err, domain.ErrStoreNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch store: %w", err)
	}
	if store.Status != domain.StatusDeleting {
		return nil
	}

	return s.CompleteDeletion(ctx, store)
}

// recordAudit appends an event to the audit log. Append failures are logged
// rather than surfaced: losing one audit row must not fail a lifecycle
// transition that already happened.
func (s *StoreService) recordAudit(ctx context.Context, store *domain.Store, action domain.AuditAction, message string) {
	event := domain.NewAuditEvent(store, action, message)
	if err := s.repo.AddAuditEvent(ctx, event); err != nil {
		s.logger.Error("failed to append audit event",
			slog.String("store_id", store.ID),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
		return
	}
	metrics.ObserveAuditEvent(string(action))
}

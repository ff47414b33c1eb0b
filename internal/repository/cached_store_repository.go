package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/yourorg/storeplane/internal/domain"
	"github.com/yourorg/storeplane/internal/infrastructure/redis"
)

// CachedStoreRepository decorates a StoreRepository with a short-lived Redis
// cache for by-ID lookups. Status polling during provisioning hits GetByID
// hard, so a few seconds of staleness buys a lot of load off Postgres. Writes
// invalidate the cached entry so lifecycle transitions show up immediately.
type CachedStoreRepository struct {
	inner  domain.StoreRepository
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStoreRepository wraps inner with a Redis read-through cache.
func NewCachedStoreRepository(inner domain.StoreRepository, redisClient *redis.Client, logger *slog.Logger) *CachedStoreRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStoreRepository{
		inner:  inner,
		redis:  redisClient,
		ttl:    5 * time.Second,
		logger: logger,
	}
}

func storeKey(id string) string {
	return "store:" + id
}

// Save writes through and drops the cached entry.
func (r *CachedStoreRepository) Save(ctx context.Context, store *domain.Store) error {
	if err := r.inner.Save(ctx, store); err != nil {
		return err
	}
	if err := r.redis.Delete(ctx, storeKey(store.ID)); err != nil {
		r.logger.Warn("failed to invalidate store cache", slog.String("store_id", store.ID), slog.String("error", err.Error()))
	}
	return nil
}

// GetByID serves from cache when possible, falling back to the inner
// repository. Cache failures are logged, never surfaced.
func (r *CachedStoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	if data, err := r.redis.Get(ctx, storeKey(id)); err == nil {
		store := &domain.Store{}
		if err := json.Unmarshal([]byte(data), store); err == nil {
			return store, nil
		}
	}

	store, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(store); err == nil {
		if err := r.redis.Set(ctx, storeKey(id), string(data), r.ttl); err != nil {
			r.logger.Warn("failed to cache store", slog.String("store_id", id), slog.String("error", err.Error()))
		}
	}

	return store, nil
}

// GetByName always goes to the source: name lookups back the uniqueness check
// at creation and must not see stale entries.
func (r *CachedStoreRepository) GetByName(ctx context.Context, name string) (*domain.Store, error) {
	return r.inner.GetByName(ctx, name)
}

// List always goes to the source.
func (r *CachedStoreRepository) List(ctx context.Context) ([]*domain.Store, error) {
	return r.inner.List(ctx)
}

// Delete removes the record and its cached entry.
func (r *CachedStoreRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.redis.Delete(ctx, storeKey(id)); err != nil {
		r.logger.Warn("failed to invalidate store cache", slog.String("store_id", id), slog.String("error", err.Error()))
	}
	return nil
}

// AddAuditEvent passes through; audit events are never cached.
func (r *CachedStoreRepository) AddAuditEvent(ctx context.Context, event *domain.AuditEvent) error {
	return r.inner.AddAuditEvent(ctx, event)
}

// ListAuditEvents passes through.
func (r *CachedStoreRepository) ListAuditEvents(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	return r.inner.ListAuditEvents(ctx, limit)
}

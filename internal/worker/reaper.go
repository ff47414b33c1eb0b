package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/storeplane/internal/domain"
	"github.com/yourorg/storeplane/internal/observability/metrics"
	"github.com/yourorg/storeplane/internal/service"
)

// DeletionReaper periodically re-drives teardown for stores parked in
// DELETING after a failed deletion, so transient cluster trouble never
// strands a record forever. It also keeps the per-status store gauges fresh.
type DeletionReaper struct {
	stores   domain.StoreRepository
	cluster  domain.ClusterClient
	service  *service.StoreService
	logger   *slog.Logger
	interval time.Duration
}

func NewDeletionReaper(
	stores domain.StoreRepository,
	cluster domain.ClusterClient,
	svc *service.StoreService,
	logger *slog.Logger,
	interval time.Duration,
) *DeletionReaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeletionReaper{
		stores:   stores,
		cluster:  cluster,
		service:  svc,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the reaper loop until ctx is cancelled.
func (w *DeletionReaper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("deletion reaper started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("deletion reaper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep takes one pass over all stores: refresh the status gauges and retry
// any parked deletions.
func (w *DeletionReaper) sweep(ctx context.Context) {
	stores, err := w.stores.List(ctx)
	if err != nil {
		w.logger.Error("failed to list stores", slog.String("error", err.Error()))
		return
	}

	counts := map[domain.StoreStatus]int{
		domain.StatusProvisioning: 0,
		domain.StatusReady:        0,
		domain.StatusFailed:       0,
		domain.StatusDeleting:     0,
	}
	for _, store := range stores {
		counts[store.Status]++
	}
	for status, count := range counts {
		metrics.SetStoreCount(string(status), count)
	}

	for _, store := range stores {
		if store.Status != domain.StatusDeleting {
			continue
		}
		w.retryDeletion(ctx, store)
	}
}

func (w *DeletionReaper) retryDeletion(ctx context.Context, store *domain.Store) {
	// While the namespace is still terminating a retry would only fail again.
	phase, err := w.cluster.GetNamespaceStatus(ctx, store.Namespace)
	if err != nil {
		w.logger.Warn("failed to check namespace status",
			slog.String("store_id", store.ID),
			slog.String("namespace", store.Namespace),
			slog.String("error", err.Error()),
		)
		return
	}
	if phase == domain.NamespaceTerminating {
		w.logger.Info("namespace still terminating, retry postponed",
			slog.String("store_id", store.ID),
			slog.String("namespace", store.Namespace),
		)
		return
	}

	w.logger.Info("retrying parked deletion",
		slog.String("store_id", store.ID),
		slog.String("name", store.Name),
	)
	if err := w.service.RetryDeletion(ctx, store.ID); err != nil {
		w.logger.Warn("deletion retry failed",
			slog.String("store_id", store.ID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveTeardown("reaper", "error")
		return
	}
	metrics.ObserveTeardown("reaper", "success")
}

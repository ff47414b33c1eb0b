package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/yourorg/storeplane/internal/domain"
	"github.com/yourorg/storeplane/internal/observability/metrics"
	"github.com/yourorg/storeplane/internal/values"
)

const (
	// maxProvisionAttempts bounds the whole apply sequence. Each attempt
	// starts from a clean namespace: there is no partial-success bookkeeping
	// carried across attempts.
	maxProvisionAttempts = 2
	retryBackoff         = 5 * time.Second
)

// ProvisionStore drives a store from PROVISIONING to READY or FAILED. It runs
// outside the request path; every outcome is expressed only through the store
// record and the audit log, never as a returned error.
func (s *StoreService) ProvisionStore(ctx context.Context, storeID, env string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.guard.registerCancel(storeID, cancel)
	defer s.guard.clearCancel(storeID)

	release := s.guard.acquire(storeID)
	defer release()

	log := s.logger.With(slog.String("store_id", storeID))

	store, err := s.repo.GetByID(ctx, storeID)
	if err != nil {
		// The creation request already failed upstream or the store is gone;
		// nothing to drive.
		log.Error("store not found during provisioning", slog.String("error", err.Error()))
		return
	}

	log.Info("starting provisioning", slog.String("name", store.Name), slog.String("namespace", store.Namespace))
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= maxProvisionAttempts; attempt++ {
		host, err := s.provisionAttempt(ctx, store, env)
		if err == nil {
			store.Status = domain.StatusReady
			store.URL = "http://" + host
			if err := s.repo.Save(ctx, store); err != nil {
				log.Error("failed to persist READY status", slog.String("error", err.Error()))
				return
			}
			s.recordAudit(ctx, store, domain.AuditProvisionReady, "")
			metrics.ObserveProvisionAttempt("success")
			metrics.ObserveProvision("success", time.Since(start))
			log.Info("provisioning complete", slog.String("name", store.Name), slog.String("url", store.URL))
			return
		}

		lastErr = err
		metrics.ObserveProvisionAttempt("error")
		log.Error("provisioning attempt failed",
			slog.String("name", store.Name),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxProvisionAttempts),
			slog.String("error", err.Error()),
		)

		s.cleanupFailedAttempt(store)

		if ctx.Err() != nil {
			// A deletion request cancelled the run; it owns the store now.
			log.Info("provisioning cancelled", slog.String("name", store.Name))
			return
		}

		if attempt < maxProvisionAttempts {
			timer := time.NewTimer(s.provisionBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Info("provisioning cancelled during backoff", slog.String("name", store.Name))
				return
			case <-timer.C:
			}
		}
	}

	log.Error("provisioning failed permanently",
		slog.String("name", store.Name),
		slog.String("error", lastErr.Error()),
	)
	store.Status = domain.StatusFailed
	if err := s.repo.Save(ctx, store); err != nil {
		log.Error("failed to persist FAILED status", slog.String("error", err.Error()))
		return
	}
	s.recordAudit(ctx, store, domain.AuditProvisionFailed, lastErr.Error())
	metrics.ObserveProvision("error", time.Since(start))
}

// provisionAttempt performs one full apply sequence: ensure the namespace,
// derive the deployment values and install the release. On success it returns
// the store's external hostname.
func (s *StoreService) provisionAttempt(ctx context.Context, store *domain.Store, env string) (string, error) {
	if err := s.cluster.CreateNamespace(ctx, store.Namespace); err != nil {
		return "", err
	}

	chartPath := filepath.Join(s.config.ChartsDir, string(store.Type))
	global := s.values.Load(env)

	hostSuffix := values.HostSuffix(global)
	host := store.Namespace + hostSuffix

	ingress := map[string]any{
		"enabled": true,
		"host":    host,
	}
	if store.Type == domain.StoreTypeMedusa {
		// Medusa serves its storefront and API on separate hosts.
		ingress["apiHost"] = "api-" + store.Namespace + hostSuffix
	}
	overrides := map[string]any{
		"ingress":   ingress,
		"storeName": store.Name,
	}

	// Load returns a private copy, so merging in place is safe.
	merged := values.Merge(global, overrides)

	if err := s.deployer.InstallOrUpgrade(ctx, store.Name, chartPath, store.Namespace, merged); err != nil {
		return "", err
	}
	return host, nil
}

// cleanupFailedAttempt undoes whatever a failed attempt left behind so the
// next attempt starts clean. Each step is best-effort: cleanup failures are
// logged, never escalated. A fresh context is used because the run's own
// context may already be cancelled.
func (s *StoreService) cleanupFailedAttempt(store *domain.Store) {
	ctx := context.Background()

	if err := s.deployer.Uninstall(ctx, store.Name, store.Namespace); err != nil {
		s.logger.Warn("cleanup: release uninstall failed",
			slog.String("store_id", store.ID),
			slog.String("name", store.Name),
			slog.String("error", err.Error()),
		)
	}
	if err := s.cluster.DeleteNamespace(ctx, store.Namespace); err != nil {
		s.logger.Warn("cleanup: namespace delete failed",
			slog.String("store_id", store.ID),
			slog.String("namespace", store.Namespace),
			slog.String("error", err.Error()),
		)
	}
}

package service

import (
	"context"
	"sync"
)

// lifecycleGuard serializes lifecycle runs per store ID and lets a deletion
// request cancel an in-flight provisioning run instead of queueing behind its
// backoff. This is an internal hardening; the external contract still makes
// no ordering promise between racing operations on one store.
type lifecycleGuard struct {
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	cancels map[string]context.CancelFunc
}

func newLifecycleGuard() *lifecycleGuard {
	return &lifecycleGuard{
		locks:   make(map[string]*sync.Mutex),
		cancels: make(map[string]context.CancelFunc),
	}
}

// acquire takes the per-store lock and returns the release function.
func (g *lifecycleGuard) acquire(storeID string) func() {
	g.mu.Lock()
	lock, ok := g.locks[storeID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[storeID] = lock
	}
	g.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// registerCancel notes the cancel func of a running provisioning run.
func (g *lifecycleGuard) registerCancel(storeID string, cancel context.CancelFunc) {
	g.mu.Lock()
	g.cancels[storeID] = cancel
	g.mu.Unlock()
}

// clearCancel removes a finished run's cancel func.
func (g *lifecycleGuard) clearCancel(storeID string) {
	g.mu.Lock()
	delete(g.cancels, storeID)
	g.mu.Unlock()
}

// cancelRun aborts an in-flight provisioning run for the store, if any.
func (g *lifecycleGuard) cancelRun(storeID string) {
	g.mu.Lock()
	cancel := g.cancels[storeID]
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

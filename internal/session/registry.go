package session

import (
	"context"
	"sync"
	"time"
)

// restoreTimeout bounds the startup validation Get runs for a new session.
const restoreTimeout = 15 * time.Second

// StoreFactory returns the token store for one browser session.
type StoreFactory func(sessionID string) TokenStore

type entry struct {
	manager  *Manager
	lastSeen time.Time
}

// Registry holds one Manager per browser session for the gateway. Each
// Manager is restored from its store on first use.
type Registry struct {
	backend Backend
	stores  StoreFactory
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewRegistry(backend Backend, stores StoreFactory) *Registry {
	return &Registry{
		backend: backend,
		stores:  stores,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get returns the Manager for sessionID, creating it and running its
// startup validation if needed. Concurrent callers for a new id all wait
// for the same validation. The validation is detached from ctx so a
// request that goes away does not cut it short.
func (r *Registry) Get(ctx context.Context, sessionID string) *Manager {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	if !ok {
		e = &entry{manager: NewManager(r.backend, r.stores(sessionID))}
		r.entries[sessionID] = e
	}
	e.lastSeen = r.now()
	r.mu.Unlock()

	restoreCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
	defer cancel()

	// store read errors are logged by Restore; the session just starts
	// logged out
	_ = e.manager.Restore(restoreCtx)
	return e.manager
}

// Forget drops the in-memory Manager. The persisted token is untouched.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep forgets Managers idle for longer than maxIdle and returns how many
// were dropped. A later request restores them from their stores.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	dropped := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			dropped++
		}
	}
	return dropped
}

// SweepLoop runs Sweep every interval until ctx is done.
func (r *Registry) SweepLoop(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(maxIdle)
		}
	}
}

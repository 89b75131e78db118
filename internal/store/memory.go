package store

import (
	"context"
	"sync"

	"riskpulse/internal/risk"
)

// MemoryStore is a non-durable risk.PriorStore for tests and for running
// without a database file.
type MemoryStore struct {
	mu     sync.RWMutex
	priors map[string]risk.Prior
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{priors: make(map[string]risk.Prior)}
}

// Load returns the prior for a scope, if one was ever saved.
func (m *MemoryStore) Load(ctx context.Context, scope string) (risk.Prior, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.priors[scope]
	return p, ok, nil
}

// Save stores the prior for a scope.
func (m *MemoryStore) Save(ctx context.Context, scope string, p risk.Prior) error {
	m.mu.Lock()
	m.priors[scope] = p
	m.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

// Scopes lists every stored scope.
func (m *MemoryStore) Scopes(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	scopes := make([]string, 0, len(m.priors))
	for s := range m.priors {
		scopes = append(scopes, s)
	}
	return scopes, nil
}

// Package cache holds the last computed assessment per scope with a TTL
// selected by the assessment's classified state: stable states are cached
// long, volatile states expire almost immediately.
package cache

import (
	"sync"
	"time"

	"riskpulse/internal/risk"
)

// Default TTL table, keyed by classified state.
const (
	TTLDeterministic = 3600 * time.Second
	TTLProbabilistic = 1800 * time.Second
	TTLQuantum       = 900 * time.Second
	TTLChaotic       = 300 * time.Second
	TTLVoid          = 60 * time.Second
)

// TTLTable maps a state to the cache lifetime of its assessments.
type TTLTable map[risk.State]time.Duration

// DefaultTTLTable returns the standard state to TTL mapping.
func DefaultTTLTable() TTLTable {
	return TTLTable{
		risk.StateDeterministic: TTLDeterministic,
		risk.StateProbabilistic: TTLProbabilistic,
		risk.StateQuantum:       TTLQuantum,
		risk.StateChaotic:       TTLChaotic,
		risk.StateVoid:          TTLVoid,
	}
}

// TTLFor returns the TTL for a state, falling back to the most volatile
// tier for anything unknown.
func (t TTLTable) TTLFor(s risk.State) time.Duration {
	if ttl, ok := t[s]; ok && ttl > 0 {
		return ttl
	}
	return TTLVoid
}

type entry struct {
	assessment risk.Assessment
	cachedAt   time.Time
	expiresAt  time.Time
	hits       int
}

// AdaptiveCache is a scope-keyed assessment cache. Per-key get/set is
// atomic under a single RWMutex; there is no cross-key coordination to
// hold up.
type AdaptiveCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	ttls      TTLTable
	hitCount  int64
	missCount int64
	stop      chan struct{}
	stopOnce  sync.Once
}

// New creates an adaptive cache and starts its background sweeper.
func New(ttls TTLTable) *AdaptiveCache {
	if ttls == nil {
		ttls = DefaultTTLTable()
	}
	c := &AdaptiveCache{
		entries: make(map[string]entry),
		ttls:    ttls,
		stop:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get returns the cached assessment for the scope, if present and unexpired.
func (c *AdaptiveCache) Get(scope string) (risk.Assessment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[scope]
	if !ok || time.Now().After(e.expiresAt) {
		c.missCount++
		return risk.Assessment{}, false
	}

	e.hits++
	c.entries[scope] = e
	c.hitCount++
	return e.assessment, true
}

// Set stores the assessment under its scope with the TTL for its state.
func (c *AdaptiveCache) Set(scope string, a risk.Assessment) {
	ttl := c.ttls.TTLFor(a.State)
	a.TTLSeconds = int(ttl.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.entries[scope] = entry{
		assessment: a,
		cachedAt:   now,
		expiresAt:  now.Add(ttl),
	}
}

// TTLFor exposes the TTL the cache will apply for a state.
func (c *AdaptiveCache) TTLFor(s risk.State) time.Duration {
	return c.ttls.TTLFor(s)
}

// Invalidate drops the scope's entry, forcing a recompute on the next read.
func (c *AdaptiveCache) Invalidate(scope string) {
	c.mu.Lock()
	delete(c.entries, scope)
	c.mu.Unlock()
}

// Stats reports cache effectiveness counters.
func (c *AdaptiveCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hitCount + c.missCount
	ratio := float64(0)
	if total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}
	return map[string]interface{}{
		"entries":    len(c.entries),
		"hit_count":  c.hitCount,
		"miss_count": c.missCount,
		"hit_ratio":  ratio,
	}
}

// Stop terminates the background sweeper.
func (c *AdaptiveCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// sweep evicts expired entries so abandoned scopes do not pin memory.
// Expiry correctness does not depend on it; Get checks expiresAt itself.
func (c *AdaptiveCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for scope, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, scope)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

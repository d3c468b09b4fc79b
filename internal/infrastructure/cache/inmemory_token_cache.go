package cache

import (
	"context"
	"sync"
	"time"

	"github.com/channelsync/backend/internal/infrastructure/signing"
)

// InMemoryTokenCache implements signing.TokenCache with a process-local map.
// Suitable for single-instance deployments and testing. Expired entries are
// dropped lazily on read.
type InMemoryTokenCache struct {
	mu      sync.RWMutex
	entries map[string]tokenEntry
}

type tokenEntry struct {
	value     string
	expiresAt time.Time
}

// NewInMemoryTokenCache creates a new in-memory token cache
func NewInMemoryTokenCache() *InMemoryTokenCache {
	return &InMemoryTokenCache{
		entries: make(map[string]tokenEntry),
	}
}

// Get returns the cached token for the key, false when absent or expired
func (c *InMemoryTokenCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores the token with the given TTL
func (c *InMemoryTokenCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = tokenEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Ensure InMemoryTokenCache implements signing.TokenCache
var _ signing.TokenCache = (*InMemoryTokenCache)(nil)

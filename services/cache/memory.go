package cache

import (
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache: miss")

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process CacheService for runs without memcached
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryItem
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryItem),
	}
}

// Get retrieves a value, expiring it lazily
func (m *MemoryCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		delete(m.items, key)
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

// Set stores a value with an expiration time; zero means no expiry
func (m *MemoryCache) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := memoryItem{value: value}
	if expiration > 0 {
		item.expiresAt = time.Now().Add(expiration)
	}
	m.items[key] = item
	return nil
}

// Delete removes a value
func (m *MemoryCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

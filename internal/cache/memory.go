package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is a process local CacheService. Patterns follow path.Match,
// which covers the glob forms used with redis here.
type MemoryCache struct {
	mutex   sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}

	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries[key] = entry
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mutex.Lock()
	entry, ok := m.entries[key]
	if ok && entry.expired(m.now()) {
		delete(m.entries, key)
		ok = false
	}
	m.mutex.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(entry.payload, dest)
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryCache) DeletePattern(_ context.Context, pattern string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for key := range m.entries {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return fmt.Errorf("invalid cache pattern %s: %w", pattern, err)
		}
		if matched {
			delete(m.entries, key)
		}
	}
	return nil
}

type memoryLock struct {
	token     string
	expiresAt time.Time
}

// MemoryRunLocker is a process local RunLocker.
type MemoryRunLocker struct {
	mutex sync.Mutex
	locks map[uint]memoryLock
	now   func() time.Time
}

func NewMemoryRunLocker() *MemoryRunLocker {
	return &MemoryRunLocker{locks: make(map[uint]memoryLock), now: time.Now}
}

func (m *MemoryRunLocker) Acquire(_ context.Context, batchID uint, ttl time.Duration) (string, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	if lock, held := m.locks[batchID]; held && now.Before(lock.expiresAt) {
		return "", false, nil
	}

	token := uuid.NewString()
	m.locks[batchID] = memoryLock{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

func (m *MemoryRunLocker) Release(_ context.Context, batchID uint, token string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if lock, held := m.locks[batchID]; held && lock.token == token {
		delete(m.locks, batchID)
	}
	return nil
}

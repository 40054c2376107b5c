package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultIdleTTL — время, через которое неиспользуемый элемент удаляется из кэша.
const DefaultIdleTTL = 15 * time.Minute

// CacheItem представляет кэшированное значение
type CacheItem[V any] struct {
	Data      V
	ExpiresAt time.Time
}

// CacheStore — потокобезопасный кэш с вытеснением по времени простоя:
// каждое успешное чтение продлевает срок жизни элемента.
type CacheStore[K comparable, V any] struct {
	cache map[K]*CacheItem[V]
	mutex sync.RWMutex
	ttl   time.Duration

	// Now возвращает текущее время. Может быть подменена в тестах.
	Now func() time.Time
}

// NewCacheStore создает новый экземпляр CacheStore
func NewCacheStore[K comparable, V any](ttl time.Duration) *CacheStore[K, V] {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &CacheStore[K, V]{
		cache: make(map[K]*CacheItem[V]),
		ttl:   ttl,
		Now:   time.Now,
	}
}

// Get извлекает элемент по ключу и продлевает срок его жизни.
// Просроченный элемент удаляется при обращении.
func (cs *CacheStore[K, V]) Get(key K) (V, bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	var zero V
	item, exists := cs.cache[key]
	if !exists {
		return zero, false
	}

	now := cs.Now()
	if now.After(item.ExpiresAt) {
		delete(cs.cache, key)
		return zero, false
	}

	item.ExpiresAt = now.Add(cs.ttl)
	return item.Data, true
}

// Put сохраняет элемент в кэш, заменяя предыдущее значение.
func (cs *CacheStore[K, V]) Put(key K, data V) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.cache[key] = &CacheItem[V]{
		Data:      data,
		ExpiresAt: cs.Now().Add(cs.ttl),
	}
}

// Delete удаляет элемент из кэша.
func (cs *CacheStore[K, V]) Delete(key K) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	delete(cs.cache, key)
}

// Clear удаляет все элементы.
func (cs *CacheStore[K, V]) Clear() {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	cs.cache = make(map[K]*CacheItem[V])
}

// Len возвращает количество элементов, включая еще не удаленные просроченные.
func (cs *CacheStore[K, V]) Len() int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()
	return len(cs.cache)
}

// CleanupExpired удаляет просроченные элементы и возвращает их количество.
func (cs *CacheStore[K, V]) CleanupExpired() int {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	now := cs.Now()
	removed := 0
	for key, item := range cs.cache {
		if now.After(item.ExpiresAt) {
			delete(cs.cache, key)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker запускает таймер для периодической очистки просроченных элементов
func (cs *CacheStore[K, V]) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}

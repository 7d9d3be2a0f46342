package cache

import (
	"sync"
	"time"
)

// Cache - порт кеша для вычисленных агрегатов (например, списков слотов).
// Кеш сугубо вспомогательный: корректность движка не зависит от его
// наличия, авторитетные проверки всегда идут в транзакции.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Invalidate(prefix string)
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory - потокобезопасный кеш в памяти процесса с TTL на запись
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	m.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

// Invalidate удаляет все записи с указанным префиксом ключа
func (m *Memory) Invalidate(prefix string) {
	m.mu.Lock()
	for k := range m.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
}

// EvictExpired удаляет просроченные записи. Вызывается фоновой задачей.
func (m *Memory) EvictExpired() int {
	now := time.Now()
	removed := 0

	m.mu.Lock()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	m.mu.Unlock()

	return removed
}

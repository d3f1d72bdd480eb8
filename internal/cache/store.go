package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TokenStore is the injected identity→token cache. Entries are never
// persisted; a process restart forces re-resolution.
type TokenStore interface {
	Get(id int64) (string, bool)
	Put(id int64, token string)
	Evict(id int64)
}

// memoryTokenStore is a plain map store with no bound. Used in tests and as
// a fallback when no capacity is configured.
type memoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[int64]string
}

// NewMemoryTokenStore returns an unbounded map-backed store.
func NewMemoryTokenStore() TokenStore {
	return &memoryTokenStore{tokens: make(map[int64]string)}
}

func (s *memoryTokenStore) Get(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[id]
	return token, ok
}

func (s *memoryTokenStore) Put(id int64, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[id] = token
}

func (s *memoryTokenStore) Evict(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
}

// lruTokenStore bounds the cache with a fixed-capacity LRU so the token map
// cannot grow without limit under load.
type lruTokenStore struct {
	cache *lru.Cache[int64, string]
}

// NewLRUTokenStore returns a bounded store. Falls back to the map store when
// capacity is not positive.
func NewLRUTokenStore(capacity int) TokenStore {
	if capacity <= 0 {
		return NewMemoryTokenStore()
	}
	cache, err := lru.New[int64, string](capacity)
	if err != nil {
		return NewMemoryTokenStore()
	}
	return &lruTokenStore{cache: cache}
}

func (s *lruTokenStore) Get(id int64) (string, bool) {
	return s.cache.Get(id)
}

func (s *lruTokenStore) Put(id int64, token string) {
	s.cache.Add(id, token)
}

func (s *lruTokenStore) Evict(id int64) {
	s.cache.Remove(id)
}

package cache

import (
	"context"
	"sync"
	"time"

	adaptercache "github.com/marcos-nsantos/focusdeck-sync/internal/adapter/cache"
)

// sweepInterval bounds how often Put walks the map for expired entries.
const sweepInterval = time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryHandshakeStore is used when Redis is disabled. State is local to the
// process, so every handshake must finish on the instance that started it.
type MemoryHandshakeStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryHandshakeStore() *MemoryHandshakeStore {
	return &MemoryHandshakeStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryHandshakeStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.sweep(now)
	}

	buf := make([]byte, len(value))
	copy(buf, value)
	s.entries[key] = memoryEntry{value: buf, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryHandshakeStore) Take(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, adaptercache.ErrNotFound
	}
	delete(s.entries, key)
	if !s.now().Before(e.expiresAt) {
		return nil, adaptercache.ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryHandshakeStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.lastSweep = now
}

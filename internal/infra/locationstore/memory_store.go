package locationstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/moonwatch/internal/domain/moonrise"
)

type locationRecord struct {
	payload   moonrise.ObserverLocation
	expiresAt time.Time
}

// MemoryStore keeps resolved locations in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]locationRecord
	now   func() time.Time
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]locationRecord),
		now:   time.Now,
	}
}

// GetLocation implements moonrise.LocationStore.
func (s *MemoryStore) GetLocation(_ context.Context, key string) (moonrise.ObserverLocation, bool, error) {
	if key == "" {
		return moonrise.ObserverLocation{}, false, nil
	}
	s.mu.RLock()
	record, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return moonrise.ObserverLocation{}, false, nil
	}
	if s.hasExpired(record.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return moonrise.ObserverLocation{}, false, nil
	}
	return record.payload, true, nil
}

// SaveLocation caches the location with optional TTL.
func (s *MemoryStore) SaveLocation(_ context.Context, key string, loc moonrise.ObserverLocation, ttl time.Duration) error {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.items[key] = locationRecord{payload: loc, expiresAt: exp}
	return nil
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ moonrise.LocationStore = (*MemoryStore)(nil)

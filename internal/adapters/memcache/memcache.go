// Package memcache is the in-process cache tier. It exists so a Redis outage
// degrades the engine instead of taking it down; it is never consulted while
// the distributed tier is healthy.
package memcache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"villarosa/internal/adapters/observability"
)

const staleRetention = 24 * time.Hour

// maxEntries caps memory use; the sweep runs when Set crosses it.
const maxEntries = 8192

type entry struct {
	payload  []byte
	storedAt time.Time
	ttl      time.Duration
}

type Store struct {
	mu sync.RWMutex
	m  map[string]entry
}

func New() *Store { return &Store{m: make(map[string]entry)} }

func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok || time.Since(e.storedAt) > e.ttl {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.payload, dst)
}

func (s *Store) GetStale(ctx context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok || time.Since(e.storedAt) > e.ttl+staleRetention {
		return false, nil
	}
	observability.ObserveCache("memory", "stale")
	return true, json.Unmarshal(e.payload, dst)
}

func (s *Store) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.m[key] = entry{payload: b, storedAt: time.Now(), ttl: ttl}
	if len(s.m) > maxEntries {
		s.sweepLocked()
	}
	s.mu.Unlock()
	observability.ObserveCache("memory", "set")
	return nil
}

func (s *Store) Invalidate(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	n := 0
	for k := range s.m {
		if strings.HasPrefix(k, prefix) {
			delete(s.m, k)
			n++
		}
	}
	s.mu.Unlock()
	observability.ObserveCache("memory", "del")
	return n, nil
}

// sweepLocked drops entries past their stale-retention window.
func (s *Store) sweepLocked() {
	now := time.Now()
	for k, e := range s.m {
		if now.Sub(e.storedAt) > e.ttl+staleRetention {
			delete(s.m, k)
		}
	}
}

package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mathflix/internal/app"
)

// CachedStore wraps a slower backing store (Postgres, Redis over a socket)
// with a TTL read cache. Concurrent misses on the same key collapse into a
// single backing read.
type CachedStore struct {
	inner app.KeyValueStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedValue
}

type cachedValue struct {
	value     []byte
	found     bool
	expiresAt time.Time
}

func NewCachedStore(inner app.KeyValueStore, ttl time.Duration) *CachedStore {
	return &CachedStore{
		inner: inner,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedValue),
	}
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	now := s.clock()

	s.mu.RLock()
	if entry, ok := s.cache[key]; ok && entry.expiresAt.After(now) {
		s.mu.RUnlock()
		return entry.value, entry.found, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		now := s.clock()
		s.mu.RLock()
		if entry, ok := s.cache[key]; ok && entry.expiresAt.After(now) {
			s.mu.RUnlock()
			return entry, nil
		}
		s.mu.RUnlock()

		value, found, err := s.inner.Get(ctx, key)
		if err != nil {
			return cachedValue{}, err
		}

		entry := cachedValue{value: value, found: found, expiresAt: now.Add(s.ttlWithJitter())}
		s.mu.Lock()
		s.cache[key] = entry
		s.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, false, err
	}
	entry := result.(cachedValue)
	return entry.value, entry.found, nil
}

// Set writes through and refreshes the cached entry.
func (s *CachedStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.inner.Set(ctx, key, value); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache[key] = cachedValue{value: value, found: true, expiresAt: s.clock().Add(s.ttlWithJitter())}
	s.mu.Unlock()
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, key string) error {
	if err := s.inner.Delete(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}

func (s *CachedStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}

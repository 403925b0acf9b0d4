package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value   V
	created time.Time
}

// Scope holds the entries cached for a single access token.
type Scope[V any] struct {
	created time.Time
	now     func() time.Time
	onEvict func(V)

	mu      sync.Mutex
	entries map[string]entry[V]
	retired bool
	group   singleflight.Group
}

func newScope[V any](created time.Time, now func() time.Time, onEvict func(V)) *Scope[V] {
	return &Scope[V]{
		created: created,
		now:     now,
		onEvict: onEvict,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the value for key when present and not older than ttl.
func (s *Scope[V]) Get(key string, ttl time.Duration) (V, bool) {
	s.mu.Lock()

	var zero V
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return zero, false
	}
	if entryExpired(e.created, s.now(), ttl) {
		delete(s.entries, key)
		s.mu.Unlock()
		if s.onEvict != nil {
			s.onEvict(e.value)
		}
		return zero, false
	}
	s.mu.Unlock()
	return e.value, true
}

// ComputeIfAbsent returns the cached value for key or calls supplier to create it.
//
// Concurrent callers missing on the same key wait for one supplier call and share
// its result. A supplier error is returned to all of them and nothing is stored.
// A value computed after the scope was dropped is returned but not stored, and it
// goes to the eviction handler.
func (s *Scope[V]) ComputeIfAbsent(key string, ttl time.Duration, supplier func() (V, error)) (V, error) {
	if v, ok := s.Get(key, ttl); ok {
		return v, nil
	}

	res, err, _ := s.group.Do(key, func() (any, error) {
		// A flight that finished just before this one may have stored the value.
		if v, ok := s.Get(key, ttl); ok {
			return &v, nil
		}

		v, err := supplier()
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.retired {
			// the scope left the cache while the supplier ran
			s.mu.Unlock()
			if s.onEvict != nil {
				s.onEvict(v)
			}
			return &v, nil
		}
		s.entries[key] = entry[V]{value: v, created: s.now()}
		s.mu.Unlock()

		return &v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return *(res.(*V)), nil
}

// drain empties the scope, returns what it held and stops it from storing new
// values. It is called once the scope is no longer reachable from the cache.
func (s *Scope[V]) drain() []V {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retired = true
	values := make([]V, 0, len(s.entries))
	for _, e := range s.entries {
		values = append(values, e.value)
	}
	clear(s.entries)
	return values
}

// Len returns the number of entries held, expired or not.
func (s *Scope[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Package cache implements a two-level expiring cache keyed first by access token
// and then by an arbitrary string key.
//
// Each token owns a Scope with its own creation time. Once a scope outlives the TTL
// it is replaced by an empty one, so nothing cached for a token survives the token's
// lifetime. Entries inside a scope carry their own creation time and are expired
// lazily at lookup. Concurrent misses for the same key share a single supplier call.
package cache

import (
	"sync"
	"time"
)

// Option configures a TwoLevelCache.
type Option func(*options)

type options struct {
	now     func() time.Time
	onEvict any
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithEvictionHandler registers fn to receive every value dropped from the cache:
// by scope replacement, RemoveScope, Clear, EvictExpiredScopes or entry expiry. It
// runs after the cache locks are released. V must match the cache's value type.
func WithEvictionHandler[V any](fn func(V)) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}

// TwoLevelCache maps access tokens to scopes. The zero value is not usable; call New.
type TwoLevelCache[V any] struct {
	mu          sync.Mutex
	scopes      map[string]*Scope[V]
	now         func() time.Time
	onEvict     func(V)
	lastEvicted time.Time
}

// New creates an empty cache.
func New[V any](opts ...Option) *TwoLevelCache[V] {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	onEvict, _ := o.onEvict.(func(V))
	return &TwoLevelCache[V]{
		scopes:      make(map[string]*Scope[V]),
		now:         o.now,
		onEvict:     onEvict,
		lastEvicted: o.now(),
	}
}

// GetOrCreateScope returns the live scope for token, replacing it with a fresh one
// once ttl has elapsed since its creation.
func (c *TwoLevelCache[V]) GetOrCreateScope(token string, ttl time.Duration) *Scope[V] {
	c.mu.Lock()

	now := c.now()
	old, ok := c.scopes[token]
	if ok && !scopeExpired(old.created, now, ttl) {
		c.mu.Unlock()
		return old
	}

	scope := newScope(now, c.now, c.onEvict)
	c.scopes[token] = scope
	c.mu.Unlock()

	if ok {
		c.evict(old)
	}
	return scope
}

// RemoveScope drops everything cached for token. Later lookups start from an empty scope.
func (c *TwoLevelCache[V]) RemoveScope(token string) {
	c.mu.Lock()
	old, ok := c.scopes[token]
	delete(c.scopes, token)
	c.mu.Unlock()

	if ok {
		c.evict(old)
	}
}

// Clear drops every scope.
func (c *TwoLevelCache[V]) Clear() {
	c.mu.Lock()
	dropped := make([]*Scope[V], 0, len(c.scopes))
	for _, scope := range c.scopes {
		dropped = append(dropped, scope)
	}
	clear(c.scopes)
	c.mu.Unlock()

	c.evict(dropped...)
}

// EvictExpiredScopes removes scopes older than ttl. It does nothing when it already
// ran during the last ttl/2 and reports whether a sweep happened.
func (c *TwoLevelCache[V]) EvictExpiredScopes(ttl time.Duration) bool {
	c.mu.Lock()

	now := c.now()
	if now.Sub(c.lastEvicted) < ttl/2 {
		c.mu.Unlock()
		return false
	}

	var dropped []*Scope[V]
	for token, scope := range c.scopes {
		if scopeExpired(scope.created, now, ttl) {
			delete(c.scopes, token)
			dropped = append(dropped, scope)
		}
	}
	c.lastEvicted = now
	c.mu.Unlock()

	c.evict(dropped...)
	return true
}

// Len returns the number of scopes currently held, expired or not.
func (c *TwoLevelCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.scopes)
}

func (c *TwoLevelCache[V]) evict(scopes ...*Scope[V]) {
	for _, scope := range scopes {
		values := scope.drain()
		if c.onEvict == nil {
			continue
		}
		for _, v := range values {
			c.onEvict(v)
		}
	}
}

// scopeExpired reports whether a scope created at created is dead at now. A scope
// lives for [created, created+ttl).
func scopeExpired(created, now time.Time, ttl time.Duration) bool {
	return now.Sub(created) >= ttl
}

// entryExpired reports whether an entry is stale: strictly older than ttl.
func entryExpired(created, now time.Time, ttl time.Duration) bool {
	return now.Sub(created) > ttl
}

// Package cache is the keyed in-memory store of fetched entities shared by
// every read and mutation path of the client.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"WishBoard/internal/cli/metrics"
)

// Key is a composite cache key such as ("feed", "nike") or ("item", "42").
type Key []string

const sep = "\x1f"

func (k Key) String() string { return strings.Join(k, sep) }

// Kind is the first component of the key, used for metrics labels.
func (k Key) Kind() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// HasPrefix reports whether p is a leading part of k.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

// Well-known keys.
func Feed(search string) Key    { return Key{"feed", search} }
func Item(wishID string) Key    { return Key{"item", wishID} }
func Profile(userID string) Key { return Key{"profile", userID} }

var (
	Bookmarks  = Key{"bookmarks"}
	UserWishes = Key{"user", "wishes"}
	Profiles   = Key{"profiles"}
	AllFeeds   = Key{"feed"}
)

type entry struct {
	key         Key
	value       any
	updatedAt   time.Time
	invalidated bool
}

// Cache owns all entries; callers only receive snapshots and write back
// through Set/Update.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	staleAfter time.Duration
	now        func() time.Time
	metrics    *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

// WithMetrics attaches counters.
func WithMetrics(m *metrics.Metrics) Option { return func(c *Cache) { c.metrics = m } }

// New creates a cache whose entries become stale after staleAfter.
func New(staleAfter time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		staleAfter: staleAfter,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the last-known value for k, fresh or not.
func (c *Cache) Get(k Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[k.String()]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// IsStale reports whether k is missing, invalidated or older than the freshness window.
func (c *Cache) IsStale(k Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[k.String()]
	if !ok {
		return true
	}
	return c.staleLocked(e)
}

func (c *Cache) staleLocked(e *entry) bool {
	if e.invalidated {
		return true
	}
	return c.staleAfter > 0 && c.now().Sub(e.updatedAt) > c.staleAfter
}

// Set stores v under k and marks it fresh.
func (c *Cache) Set(k Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k.String()] = &entry{key: append(Key(nil), k...), value: v, updatedAt: c.now()}
}

// Update applies fn to the current value of k and stores the result.
// A missing key is left missing: fn is not called and false is returned.
// The freshness of the entry is not changed.
func (c *Cache) Update(k Key, fn func(old any) any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k.String()]
	if !ok {
		return false
	}
	e.value = fn(e.value)
	return true
}

// Invalidate marks every entry whose key starts with prefix as stale so the
// next Fetch refetches it. Values stay readable. Unknown keys are a no-op.
// Returns the number of entries marked.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.invalidated = true
			n++
		}
	}
	c.mu.Unlock()
	c.metrics.Invalidated(n)
	return n
}

// Remove drops the entry for k.
func (c *Cache) Remove(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, k.String())
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Lookup returns the value of k if it has type T.
func Lookup[T any](c *Cache, k Key) (T, bool) {
	var zero T
	v, ok := c.Get(k)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Patch is Update for typed values; entries of another type are left alone.
func Patch[T any](c *Cache, k Key, fn func(T) T) bool {
	patched := false
	c.Update(k, func(old any) any {
		t, ok := old.(T)
		if !ok {
			return old
		}
		patched = true
		return fn(t)
	})
	return patched
}

// Fetch is a read-through: a fresh entry of type T is returned as is,
// otherwise load is called and its result stored. A failed load leaves the
// previous entry untouched.
func Fetch[T any](ctx context.Context, c *Cache, k Key, load func(ctx context.Context) (T, error)) (T, error) {
	if !c.IsStale(k) {
		if v, ok := Lookup[T](c, k); ok {
			c.metrics.CacheHit(k.Kind())
			return v, nil
		}
	}
	c.metrics.CacheMiss(k.Kind())
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(k, v)
	return v, nil
}

package cache

import (
	"sync"
	"time"
)

const DefaultTTL = 1800 * time.Second

type key struct {
	userID int64
	query  string
}

type entry[T any] struct {
	items      []T
	totalFound int
	insertedAt time.Time
}

// ResultCache keeps ordered search results per (user, query) for a fixed TTL.
// Expired entries are swept lazily on every Get and Set.
type ResultCache[T any] struct {
	mu      sync.Mutex
	entries map[key]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

type Option[T any] func(*ResultCache[T])

func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *ResultCache[T]) {
		c.now = now
	}
}

func NewResultCache[T any](ttl time.Duration, options ...Option[T]) *ResultCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &ResultCache[T]{
		entries: make(map[key]entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Get returns a copy of the cached items and the total found count.
func (c *ResultCache[T]) Get(userID int64, query string) ([]T, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep()

	e, ok := c.entries[key{userID: userID, query: query}]
	if !ok {
		return nil, 0, false
	}

	items := make([]T, len(e.items))
	copy(items, e.items)
	return items, e.totalFound, true
}

func (c *ResultCache[T]) Set(userID int64, query string, items []T, totalFound int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep()

	stored := make([]T, len(items))
	copy(stored, items)

	c.entries[key{userID: userID, query: query}] = entry[T]{
		items:      stored,
		totalFound: totalFound,
		insertedAt: c.now(),
	}
}

func (c *ResultCache[T]) Invalidate(userID int64, query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key{userID: userID, query: query})
}

func (c *ResultCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// sweep must be called with mu held.
func (c *ResultCache[T]) sweep() {
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
}

// Package cache implements the in-process TTL cache used to memoize
// engine outputs: lazy expiry on read, least-recently-used eviction on
// cleanup, injected clock so tests can simulate time.
package cache

import (
	"container/list"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verdantis/peaproc/internal/clock"
	"github.com/verdantis/peaproc/internal/domain/errors"
	"github.com/verdantis/peaproc/internal/metrics"
)

// Cache is an in-memory TTL key/value store with LRU eviction
type Cache struct {
	logger     *zap.Logger
	clock      clock.Clock
	collector  metrics.Collector
	defaultTTL time.Duration

	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List // front = most recently used
	stats Stats
}

// Stats holds cache operation counters
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Expired int64 `json:"expired"`
	Evicted int64 `json:"evicted"`
	Size    int   `json:"size"`
}

// CleanupResult reports what a Cleanup pass removed
type CleanupResult struct {
	Expired   int `json:"expired"`
	Evicted   int `json:"evicted"`
	Remaining int `json:"remaining"`
}

// entry is one cached item
type entry struct {
	key        string
	value      interface{}
	expiry     time.Time
	lastAccess time.Time
}

// New creates a Cache with the given default TTL. Every hit, miss,
// expiry and eviction is reported through the collector.
func New(defaultTTL time.Duration, clk clock.Clock, collector metrics.Collector, logger *zap.Logger) (*Cache, error) {
	if defaultTTL <= 0 {
		return nil, errors.NewValidationError("INVALID_TTL", "default ttl must be positive")
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Cache{
		logger:     logger,
		clock:      clk,
		collector:  collector,
		defaultTTL: defaultTTL,
		items:      make(map[string]*list.Element),
		lru:        list.New(),
	}, nil
}

// Set stores a value under key. A zero ttl uses the cache default;
// a negative ttl is rejected. Overwriting refreshes expiry and recency.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return errors.NewValidationError("EMPTY_KEY", "cache key cannot be empty")
	}
	if ttl < 0 {
		return errors.NewValidationError("INVALID_TTL", "ttl cannot be negative")
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	expiry := now.Add(ttl)

	if element, exists := c.items[key]; exists {
		item := element.Value.(*entry)
		item.value = value
		item.expiry = expiry
		item.lastAccess = now
		c.lru.MoveToFront(element)
		return nil
	}

	element := c.lru.PushFront(&entry{
		key:        key,
		value:      value,
		expiry:     expiry,
		lastAccess: now,
	})
	c.items[key] = element
	return nil
}

// Get retrieves a value. An expired entry is removed on the spot and
// reported as a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[key]
	if !exists {
		c.stats.Misses++
		c.collector.RecordCacheEvent(metrics.CacheMiss)
		return nil, false
	}

	item := element.Value.(*entry)
	now := c.clock.Now()
	if now.After(item.expiry) {
		c.removeElement(element)
		c.stats.Expired++
		c.stats.Misses++
		c.collector.RecordCacheEvent(metrics.CacheExpired)
		c.collector.RecordCacheEvent(metrics.CacheMiss)
		return nil, false
	}

	item.lastAccess = now
	c.lru.MoveToFront(element)
	c.stats.Hits++
	c.collector.RecordCacheEvent(metrics.CacheHit)
	return item.value, true
}

// Delete removes a key, reporting whether it was present
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[key]
	if !exists {
		return false
	}
	c.removeElement(element)
	return true
}

// Clear removes every entry and returns how many were dropped
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.items)
	c.items = make(map[string]*list.Element)
	c.lru.Init()
	return removed
}

// Cleanup purges expired entries, then evicts least-recently-used entries
// until at most maxSize remain.
func (c *Cache) Cleanup(maxSize int) (CleanupResult, error) {
	if maxSize < 0 {
		return CleanupResult{}, errors.NewValidationError("INVALID_MAX_SIZE", "max size cannot be negative")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	result := CleanupResult{}

	var expired []*list.Element
	for element := c.lru.Back(); element != nil; element = element.Prev() {
		if now.After(element.Value.(*entry).expiry) {
			expired = append(expired, element)
		}
	}
	for _, element := range expired {
		c.removeElement(element)
		c.collector.RecordCacheEvent(metrics.CacheExpired)
	}
	result.Expired = len(expired)
	c.stats.Expired += int64(len(expired))

	for len(c.items) > maxSize {
		element := c.lru.Back()
		if element == nil {
			break
		}
		c.removeElement(element)
		result.Evicted++
		c.stats.Evicted++
		c.collector.RecordCacheEvent(metrics.CacheEvicted)
	}

	result.Remaining = len(c.items)
	if result.Expired > 0 || result.Evicted > 0 {
		c.logger.Debug("cache cleanup",
			zap.Int("expired", result.Expired),
			zap.Int("evicted", result.Evicted),
			zap.Int("remaining", result.Remaining),
		)
	}
	return result, nil
}

// Len returns the number of live entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// GetStats returns a snapshot of the operation counters
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.items)
	return stats
}

// removeElement drops an element from both the map and the recency list.
// Callers hold the lock.
func (c *Cache) removeElement(element *list.Element) {
	item := element.Value.(*entry)
	delete(c.items, item.key)
	c.lru.Remove(element)
}

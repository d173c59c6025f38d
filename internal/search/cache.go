package search

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pricescout/searchservice/internal/domain"
)

const defaultCacheTTL = 5 * time.Minute

type cacheEntry[V any] struct {
	data      V
	createdAt time.Time
	ttl       time.Duration
	timer     *time.Timer
}

func (e *cacheEntry[V]) stale(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// TTLCache is an in-memory store whose entries expire ttl after they are set.
// Entries are removed eagerly by a timer and lazily by any read that finds
// them stale; both paths use the same staleness test.
type TTLCache[V any] struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry[V]
	now     func() time.Time
}

type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

func NewTTLCache[V any]() *TTLCache[V] {
	return &TTLCache[V]{
		entries: make(map[string]*cacheEntry[V]),
		now:     time.Now,
	}
}

func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	entry := &cacheEntry[V]{data: value, createdAt: c.now(), ttl: ttl}

	c.mu.Lock()
	defer c.mu.Unlock()
	if previous, ok := c.entries[key]; ok && previous.timer != nil {
		previous.timer.Stop()
	}
	c.entries[key] = entry
	entry.timer = time.AfterFunc(ttl, func() {
		c.evict(key, entry)
	})
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookupLocked(key)
	if !ok {
		var zero V
		return zero, false
	}
	return entry.data, true
}

func (c *TTLCache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lookupLocked(key)
	return ok
}

func (c *TTLCache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(key, entry)
	return true
}

func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		c.removeLocked(key, entry)
	}
}

// Stats drops stale entries first so the reported keys are all readable.
func (c *TTLCache[V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	keys := make([]string, 0, len(c.entries))
	for key, entry := range c.entries {
		if entry.stale(now) {
			c.removeLocked(key, entry)
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return CacheStats{Size: len(keys), Keys: keys}
}

func (c *TTLCache[V]) lookupLocked(key string) (*cacheEntry[V], bool) {
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if entry.stale(c.now()) {
		c.removeLocked(key, entry)
		return nil, false
	}
	return entry, true
}

func (c *TTLCache[V]) removeLocked(key string, entry *cacheEntry[V]) {
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(c.entries, key)
}

// evict runs from the entry's own timer. A key that was set again since the
// timer was armed holds a different entry and is left alone.
func (c *TTLCache[V]) evict(key string, entry *cacheEntry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.entries[key]; ok && current == entry {
		delete(c.entries, key)
	}
}

var queryFolder = cases.Lower(language.Und)

// buildSearchCacheKey folds case and surrounding whitespace out of the query
// and serializes the filters canonically, so "iPhone" and "iphone " share a
// key while different filter combinations never do. A result cap is part of
// the key because a trimmed response cannot answer a wider request.
func buildSearchCacheKey(query string, filters *domain.SearchFilters, maxResults int) string {
	normalized := queryFolder.String(strings.TrimSpace(query))
	key := "search:" + normalized + ":" + filtersKey(filters)
	if maxResults > 0 {
		key += ":n=" + strconv.Itoa(maxResults)
	}
	return key
}

func filtersKey(filters *domain.SearchFilters) string {
	if filters.IsZero() {
		return ""
	}
	stores := normalizeStoreNames(filters.Stores)
	minPrice, maxPrice := "", ""
	if filters.MinPrice != nil {
		minPrice = filters.MinPrice.String()
	}
	if filters.MaxPrice != nil {
		maxPrice = filters.MaxPrice.String()
	}
	return strings.Join([]string{
		"s=" + strings.Join(stores, ","),
		"min=" + minPrice,
		"max=" + maxPrice,
	}, ";")
}

// normalizeStoreNames trims, de-duplicates and sorts. Case is kept because
// store membership is an exact match.
func normalizeStoreNames(stores []string) []string {
	if len(stores) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(stores))
	names := make([]string, 0, len(stores))
	for _, raw := range stores {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		names = append(names, value)
	}
	sort.Strings(names)
	return names
}

func cloneSearchResponse(response domain.SearchResponse) domain.SearchResponse {
	cloned := response
	if response.Results != nil {
		cloned.Results = append([]domain.SearchResult(nil), response.Results...)
	}
	cloned.Filters = response.Filters.Clone()
	return cloned
}
